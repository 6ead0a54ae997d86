package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// requestIDHeader is honored on input so upstream proxies can correlate logs,
// and always set on output.
const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID and a request-scoped timestamp.
// This must be the first middleware in the chain; everything downstream reads
// both values from the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
