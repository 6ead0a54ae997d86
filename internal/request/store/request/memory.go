package request

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

// InMemory is the map-backed request store used in development and unit
// tests.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]models.BloodRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]models.BloodRequest)}
}

func (s *InMemory) Create(_ context.Context, request *models.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[request.ID] = clone(request)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.requests[requestID]; ok {
		c := clone(&r)
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, request *models.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[request.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.requests[request.ID] = clone(request)
	return nil
}

func (s *InMemory) List(_ context.Context, filter service.Filter) ([]*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.BloodRequest, 0)
	for _, r := range s.requests {
		if !matches(&r, filter) {
			continue
		}
		c := clone(&r)
		out = append(out, &c)
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) ListOpen(_ context.Context) ([]*models.BloodRequest, error) {
	return s.List(context.Background(), service.Filter{Status: models.StatusOpen})
}

func matches(r *models.BloodRequest, filter service.Filter) bool {
	if filter.BloodType != "" && r.BloodType != filter.BloodType {
		return false
	}
	if filter.Urgency != "" && r.Urgency != filter.Urgency {
		return false
	}
	if filter.Status != "" && r.Status != filter.Status {
		return false
	}
	if filter.City != "" && !strings.Contains(strings.ToLower(r.City), strings.ToLower(filter.City)) {
		return false
	}
	if !filter.RequesterID.IsNil() && r.RequesterID != filter.RequesterID {
		return false
	}
	return true
}

func sortByCreation(requests []*models.BloodRequest) {
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID.String() < requests[j].ID.String()
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
}

// clone copies the request so callers never share pointers with the store.
func clone(r *models.BloodRequest) models.BloodRequest {
	c := *r
	if r.Location.Latitude != nil {
		lat := *r.Location.Latitude
		c.Location.Latitude = &lat
	}
	if r.Location.Longitude != nil {
		lon := *r.Location.Longitude
		c.Location.Longitude = &lon
	}
	return c
}
