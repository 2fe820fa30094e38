package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/hold"
	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/repository"
)

const (
	holdSweepJob        = "hold_sweep"
	paymentRemindersJob = "payment_reminders"
	reminderJobTimeout  = 5 * time.Minute
	reminderPageSize    = 50
)

// RegisterHoldSweep purges expired holds every interval so an idle
// process does not keep dead holds around until the next request.
func RegisterHoldSweep(s *Service, holds *hold.Manager, every time.Duration) error {
	logger := log.With().Str("component", "hold_sweep_job").Logger()
	_, err := s.AddEvery(holdSweepJob, every, func() error {
		ctx := logger.WithContext(context.Background())
		holds.SweepExpired(ctx)
		return nil
	})
	return err
}

type BookingLister interface {
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, repository.Pagination, error)
}

type FacilityReader interface {
	GetByID(ctx context.Context, id int64) (model.Facility, error)
}

// Reminder is satisfied by service.Notifications; a booking in
// AWAITING_PAYMENT produces a payment reminder.
type Reminder interface {
	StatusChanged(ctx context.Context, b model.Booking, facilityName string)
}

// PaymentReminders re-sends the payment reminder of every booking that
// is still awaiting payment.
type PaymentReminders struct {
	Bookings   BookingLister
	Facilities FacilityReader
	Notify     Reminder
	PageSize   int
}

// Run walks all AWAITING_PAYMENT bookings page by page and returns how
// many reminders were queued.
func (r *PaymentReminders) Run(ctx context.Context) (int, error) {
	size := r.PageSize
	if size <= 0 {
		size = reminderPageSize
	}
	names := map[int64]string{}
	sent := 0
	for page := 1; ; page++ {
		items, p, err := r.Bookings.List(ctx, repository.BookingFilter{
			Status:   model.StatusAwaitingPayment,
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			return sent, err
		}
		for _, b := range items {
			if b.Status != model.StatusAwaitingPayment {
				continue
			}
			r.Notify.StatusChanged(ctx, b, r.facilityName(ctx, names, b.FacilityID))
			sent++
		}
		if len(items) == 0 || page >= p.PageCount {
			return sent, nil
		}
	}
}

func (r *PaymentReminders) facilityName(ctx context.Context, cache map[int64]string, id int64) string {
	if name, ok := cache[id]; ok {
		return name
	}
	f, err := r.Facilities.GetByID(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("facility_id", id).Msg("facility lookup for reminder failed")
	}
	cache[id] = f.Name
	return f.Name
}

// RegisterPaymentReminders schedules r under cronExpr.
func RegisterPaymentReminders(s *Service, r *PaymentReminders, cronExpr string) error {
	logger := log.With().Str("component", "payment_reminders_job").Str("cron", cronExpr).Logger()
	_, err := s.AddCron(paymentRemindersJob, cronExpr, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
		defer cancel()
		ctx = logger.WithContext(ctx)
		n, err := r.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("reminders", n).Msg("payment reminders queued")
		return nil
	})
	return err
}
