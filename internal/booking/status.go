package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// ErrInvalidTransition is returned when a status change is not allowed
// from the current state.
var ErrInvalidTransition = errors.New("invalid status transition")

var statusTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:         {model.StatusApproved, model.StatusRejected, model.StatusAwaitingPayment},
	model.StatusAwaitingPayment: {model.StatusReviewPayment, model.StatusRejected},
	model.StatusReviewPayment:   {model.StatusApproved, model.StatusRejected, model.StatusAwaitingPayment},
	model.StatusApproved:        {model.StatusCancelled},
}

var paymentTransitions = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentUnpaid:          {model.PaymentAwaitingPayment, model.PaymentPaid},
	model.PaymentAwaitingPayment: {model.PaymentReviewPayment},
	model.PaymentReviewPayment:   {model.PaymentVerified, model.PaymentFailed},
	model.PaymentPaid:            {model.PaymentVerified, model.PaymentFailed},
	model.PaymentFailed:          {model.PaymentAwaitingPayment},
}

// CanTransitionStatus reports whether a booking may move from one status
// to another.  REJECTED and CANCELLED are terminal.
func CanTransitionStatus(from, to model.BookingStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment track may move from
// one status to another.
func CanTransitionPayment(from, to model.PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyStatus moves b to the given status and applies the coupled
// payment changes: rejection fails the payment, approval verifies it and
// the two payment phases mirror onto the payment track.  The reason is
// recorded on rejection and cancellation.
func ApplyStatus(b *model.Booking, to model.BookingStatus, reason string) error {
	if !CanTransitionStatus(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	switch to {
	case model.StatusRejected:
		b.PaymentStatus = model.PaymentFailed
		b.StatusReason = reason
	case model.StatusCancelled:
		b.StatusReason = reason
	case model.StatusApproved:
		b.PaymentStatus = model.PaymentVerified
	case model.StatusAwaitingPayment:
		b.PaymentStatus = model.PaymentAwaitingPayment
	case model.StatusReviewPayment:
		b.PaymentStatus = model.PaymentReviewPayment
	}
	return nil
}

// ApplyPayment moves the payment track of b without touching the
// booking status.
func ApplyPayment(b *model.Booking, to model.PaymentStatus) error {
	from := b.PaymentStatus
	if from == "" {
		from = model.PaymentUnpaid
	}
	if !CanTransitionPayment(from, to) {
		return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, from, to)
	}
	b.PaymentStatus = to
	return nil
}
