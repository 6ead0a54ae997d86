package donation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

type pairKey struct {
	request id.RequestID
	donor   id.UserID
}

// InMemory is the map-backed donation store used in development and unit
// tests. The pair index mirrors the database's uniqueness constraint.
type InMemory struct {
	mu        sync.RWMutex
	donations map[id.DonationID]models.Donation
	byPair    map[pairKey]id.DonationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		donations: make(map[id.DonationID]models.Donation),
		byPair:    make(map[pairKey]id.DonationID),
	}
}

func (s *InMemory) CreateIfAbsent(_ context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{request: donation.RequestID, donor: donation.DonorID}
	if _, taken := s.byPair[key]; taken {
		return sentinel.ErrConflict
	}
	s.donations[donation.ID] = clone(donation)
	s.byPair[key] = donation.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, donationID id.DonationID) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.donations[donationID]; ok {
		c := clone(&d)
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.donations[donation.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.donations[donation.ID] = clone(donation)
	return nil
}

func (s *InMemory) ListForRequest(_ context.Context, requestID id.RequestID) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Donation, 0)
	for _, d := range s.donations {
		if d.RequestID != requestID {
			continue
		}
		c := clone(&d)
		out = append(out, &c)
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) ListForDonor(_ context.Context, donorID id.UserID, status models.Status) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Donation, 0)
	for _, d := range s.donations {
		if d.DonorID != donorID {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		c := clone(&d)
		out = append(out, &c)
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) SumCompletedUnits(_ context.Context, requestID id.RequestID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, d := range s.donations {
		if d.RequestID == requestID && d.Status == models.StatusCompleted {
			total += d.Units
		}
	}
	return total, nil
}

func (s *InMemory) ListPendingForRequest(_ context.Context, requestID id.RequestID) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Donation, 0)
	for _, d := range s.donations {
		if d.RequestID == requestID && d.Status == models.StatusPending {
			c := clone(&d)
			out = append(out, &c)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) ListSince(_ context.Context, since time.Time) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Donation, 0)
	for _, d := range s.donations {
		if d.CreatedAt.Before(since) {
			continue
		}
		c := clone(&d)
		out = append(out, &c)
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(donations []*models.Donation) {
	sort.Slice(donations, func(i, j int) bool {
		if donations[i].CreatedAt.Equal(donations[j].CreatedAt) {
			return donations[i].ID.String() < donations[j].ID.String()
		}
		return donations[i].CreatedAt.Before(donations[j].CreatedAt)
	})
}

// clone copies the donation so callers never share pointers with the store.
func clone(d *models.Donation) models.Donation {
	c := *d
	if d.DonationDate != nil {
		date := *d.DonationDate
		c.DonationDate = &date
	}
	return c
}
