package service

import (
	"context"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// Notifications turns booking events into notifications.
type Notifications struct {
	notifier   Notifier
	adminEmail string
}

// NewNotifications panics on a nil notifier.  adminEmail may be empty.
func NewNotifications(n Notifier, adminEmail string) *Notifications {
	if n == nil {
		panic("nil notifier")
	}
	return &Notifications{notifier: n, adminEmail: adminEmail}
}

// BookingCreated confirms receipt to the applicant and alerts the admin
// mailbox.
func (s *Notifications) BookingCreated(ctx context.Context, b model.Booking, facilityName string) {
	s.notifier.Notify(ctx, model.BookingNotification(model.NotifyBookingReceived, b, facilityName))
	if s.adminEmail != "" {
		n := model.BookingNotification(model.NotifyAdminNewBooking, b, facilityName)
		n.Email = s.adminEmail
		n.Name = "Administrator"
		s.notifier.Notify(ctx, n)
	}
}

// StatusChanged informs the applicant of a new booking status.  Moving
// to AWAITING_PAYMENT sends a payment reminder instead.
func (s *Notifications) StatusChanged(ctx context.Context, b model.Booking, facilityName string) {
	kind := model.NotifyStatusChanged
	if b.Status == model.StatusAwaitingPayment {
		kind = model.NotifyPaymentReminder
	}
	s.notifier.Notify(ctx, model.BookingNotification(kind, b, facilityName))
}

// PaymentChanged notifies the applicant when the payment was verified or
// must be (re)submitted.  Other payment moves are silent.
func (s *Notifications) PaymentChanged(ctx context.Context, b model.Booking, facilityName string) {
	switch b.PaymentStatus {
	case model.PaymentVerified:
		s.notifier.Notify(ctx, model.BookingNotification(model.NotifyPaymentVerified, b, facilityName))
	case model.PaymentAwaitingPayment:
		s.notifier.Notify(ctx, model.BookingNotification(model.NotifyPaymentReminder, b, facilityName))
	}
}

// Send forwards a prepared notification, used by the notification
// endpoints.
func (s *Notifications) Send(ctx context.Context, n model.Notification) {
	s.notifier.Notify(ctx, n)
}
