package model

import "time"

// NotificationKind selects the e-mail template of a notification.
type NotificationKind string

const (
	NotifyBookingReceived NotificationKind = "booking_received"
	NotifyAdminNewBooking NotificationKind = "admin_new_booking"
	NotifyStatusChanged   NotificationKind = "status_changed"
	NotifyPaymentReminder NotificationKind = "payment_reminder"
	NotifyPaymentVerified NotificationKind = "payment_verified"
)

// Notification is a transactional e-mail request.  It carries enough
// booking detail to render the message without another CMS lookup, which
// lets it travel through the message broker as is.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	Email         string           `json:"email"`
	Name          string           `json:"name"`
	BookingID     int64            `json:"bookingId"`
	BookingNumber string           `json:"bookingNumber,omitempty"`
	Status        BookingStatus    `json:"status,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	EventName     string           `json:"eventName"`
	FacilityName  string           `json:"facilityName,omitempty"`
	StartDate     Date             `json:"startDate"`
	EndDate       Date             `json:"endDate"`
	StartTime     string           `json:"startTime,omitempty"`
	EndTime       string           `json:"endTime,omitempty"`
	TotalPrice    Money            `json:"totalPrice"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// BookingNotification fills a notification from a booking.
func BookingNotification(kind NotificationKind, b Booking, facilityName string) Notification {
	return Notification{
		Kind:          kind,
		Email:         b.Email,
		Name:          b.ApplicantName,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		Status:        b.Status,
		Reason:        b.StatusReason,
		EventName:     b.EventName,
		FacilityName:  facilityName,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		StartTime:     b.StartTime.Short(),
		EndTime:       b.EndTime.Short(),
		TotalPrice:    b.TotalPrice,
		OccurredAt:    time.Now().UTC(),
	}
}
