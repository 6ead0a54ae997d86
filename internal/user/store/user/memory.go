package user

import (
	"context"
	"strings"
	"sync"

	"github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

// InMemory is the map-backed user store used in development and unit tests.
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemory) CreateIfEmailAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = clone(user)
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		c := clone(&u)
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u := s.users[userID]
	c := clone(&u)
	return &c, nil
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Email != user.Email {
		delete(s.byEmail, strings.ToLower(existing.Email))
		s.byEmail[strings.ToLower(user.Email)] = user.ID
	}
	s.users[user.ID] = clone(user)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		c := clone(&u)
		out = append(out, &c)
	}
	return out, nil
}

// ListAvailableDonors returns every available user whose role permits
// donating. Blood-type filtering happens in the matching service.
func (s *InMemory) ListAvailableDonors(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0)
	for _, u := range s.users {
		if !u.Role.CanDonate() || !u.IsAvailable {
			continue
		}
		c := clone(&u)
		out = append(out, &c)
	}
	return out, nil
}

// clone copies the user so callers never share slices or pointers with the
// store.
func clone(u *models.User) models.User {
	c := *u
	if u.HealthConditions != nil {
		c.HealthConditions = append([]string(nil), u.HealthConditions...)
	}
	if u.LastDonationDate != nil {
		t := *u.LastDonationDate
		c.LastDonationDate = &t
	}
	if u.DateOfBirth != nil {
		t := *u.DateOfBirth
		c.DateOfBirth = &t
	}
	if u.WeightKg != nil {
		w := *u.WeightKg
		c.WeightKg = &w
	}
	if u.Location.Latitude != nil {
		lat := *u.Location.Latitude
		c.Location.Latitude = &lat
	}
	if u.Location.Longitude != nil {
		lon := *u.Location.Longitude
		c.Location.Longitude = &lon
	}
	return c
}
