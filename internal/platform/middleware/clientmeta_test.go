package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

const chromeLinuxUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestDeviceDisplayName(t *testing.T) {
	assert.Equal(t, "Unknown device", DeviceDisplayName(""))
	assert.Contains(t, DeviceDisplayName(chromeLinuxUA), "Chrome")
	assert.Contains(t, DeviceDisplayName(chromeLinuxUA), " on ")
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA, gotDevice string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		gotIP = requestcontext.ClientIP(ctx)
		gotUA = requestcontext.UserAgent(ctx)
		gotDevice = requestcontext.DeviceName(ctx)
	}))

	t.Run("remote addr fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.9:4312"
		r.Header.Set("User-Agent", chromeLinuxUA)
		handler.ServeHTTP(httptest.NewRecorder(), r)

		assert.Equal(t, "203.0.113.9", gotIP)
		assert.Equal(t, chromeLinuxUA, gotUA)
		assert.Contains(t, gotDevice, "Chrome")
	})

	t.Run("x-forwarded-for takes precedence", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:9999"
		r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), r)

		assert.Equal(t, "198.51.100.7", gotIP)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates when absent", func(t *testing.T) {
		var got string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestcontext.RequestID(r.Context())
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, got)
		assert.Equal(t, got, w.Header().Get("X-Request-ID"))
	})

	t.Run("honors incoming header", func(t *testing.T) {
		var got string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestcontext.RequestID(r.Context())
		}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "upstream-id")
		h.ServeHTTP(httptest.NewRecorder(), r)

		assert.Equal(t, "upstream-id", got)
	})
}
