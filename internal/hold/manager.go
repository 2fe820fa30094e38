package hold

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// DefaultTTL is how long a hold lives unless configured otherwise.
const DefaultTTL = 15 * time.Minute

// Manager implements the hold operations on top of a Store.  None of its
// methods return errors: backend failures are logged and the operation
// degrades to "no hold", which is acceptable for soft locks.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager returns a Manager.  ttl <= 0 selects DefaultTTL and a nil
// clock selects time.Now.
func NewManager(store Store, ttl time.Duration, now func() time.Time) *Manager {
	if store == nil {
		panic("hold: nil Store")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, ttl: ttl, now: now}
}

// TTL returns the lifetime given to new holds.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Hold stores or replaces the session's hold on the facility.  It does
// not check for conflicting holds; callers run the availability check
// first.  The returned bool is false only when the backend failed.
func (m *Manager) Hold(ctx context.Context, sessionID string, facilityID int64, p model.Package) (model.TemporaryHold, bool) {
	now := m.now().UTC()
	h := model.TemporaryHold{
		SessionID:  sessionID,
		FacilityID: facilityID,
		Package:    p,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, h); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Int64("facility_id", facilityID).Msg("hold: put failed")
		return h, false
	}
	return h, true
}

// Release removes the session's hold on the facility.  Releasing a hold
// that does not exist is a no-op.
func (m *Manager) Release(ctx context.Context, sessionID string, facilityID int64) {
	if err := m.store.Delete(ctx, sessionID, facilityID); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Int64("facility_id", facilityID).Msg("hold: delete failed")
	}
}

// Current returns the session's live hold on the facility, if any.
func (m *Manager) Current(ctx context.Context, sessionID string, facilityID int64) (model.TemporaryHold, bool) {
	h, ok, err := m.store.Get(ctx, sessionID, facilityID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("hold: get failed")
		return model.TemporaryHold{}, false
	}
	if !ok || h.Expired(m.now()) {
		return model.TemporaryHold{}, false
	}
	return h, true
}

// ActiveHoldsFor returns the live holds on the facility placed by other
// sessions.  Expired holds are filtered here as well, so a backend that
// has not purged them yet never leaks them into conflict checks.
func (m *Manager) ActiveHoldsFor(ctx context.Context, facilityID int64, excludingSessionID string) []model.TemporaryHold {
	all, err := m.store.ListByFacility(ctx, facilityID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("facility_id", facilityID).Msg("hold: list failed")
		return nil
	}
	now := m.now()
	out := make([]model.TemporaryHold, 0, len(all))
	for _, h := range all {
		if h.SessionID == excludingSessionID || h.Expired(now) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// SweepExpired purges dead holds.  It is called at the start of every
// request that touches holds; there is no background timer.
func (m *Manager) SweepExpired(ctx context.Context) {
	n, err := m.store.Sweep(ctx, m.now())
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("hold: sweep failed")
		return
	}
	if n > 0 {
		log.Ctx(ctx).Debug().Int("removed", n).Msg("hold: swept expired holds")
	}
}
