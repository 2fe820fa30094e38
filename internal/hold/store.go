// Package hold keeps temporary holds: short-lived soft reservations of a
// facility window by one browser session while the user is checking out.
//
// Holds are advisory.  Placing a hold does not re-check availability, and
// nothing makes "check availability" and "place hold" atomic; two sessions
// racing for the same slot can both succeed.
package hold

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// Store is the keyed backend of the hold registry.  At most one hold
// exists per (session, facility); Put overwrites.
type Store interface {
	Put(ctx context.Context, h model.TemporaryHold) error
	Get(ctx context.Context, sessionID string, facilityID int64) (model.TemporaryHold, bool, error)
	Delete(ctx context.Context, sessionID string, facilityID int64) error
	ListByFacility(ctx context.Context, facilityID int64) ([]model.TemporaryHold, error)
	// Sweep removes holds that expired before now and returns how many
	// were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func key(sessionID string, facilityID int64) string {
	return sessionID + ":" + strconv.FormatInt(facilityID, 10)
}

// MemoryStore is a process-local Store.  Holds are lost on restart and
// are not shared between instances.
type MemoryStore struct {
	mu    sync.Mutex
	holds map[string]model.TemporaryHold
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holds: make(map[string]model.TemporaryHold)}
}

func (s *MemoryStore) Put(_ context.Context, h model.TemporaryHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[key(h.SessionID, h.FacilityID)] = h
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string, facilityID int64) (model.TemporaryHold, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[key(sessionID, facilityID)]
	return h, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string, facilityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, key(sessionID, facilityID))
	return nil
}

func (s *MemoryStore) ListByFacility(_ context.Context, facilityID int64) ([]model.TemporaryHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TemporaryHold
	for _, h := range s.holds {
		if h.FacilityID == facilityID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, h := range s.holds {
		if h.Expired(now) {
			delete(s.holds, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored holds, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holds)
}
