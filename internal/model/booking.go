package model

import "time"

// PackageType is the booking granularity chosen by the applicant.
type PackageType string

const (
	PackageHourly   PackageType = "HOURLY"
	PackageHalfDay  PackageType = "HALF_DAY"
	PackageFullDay  PackageType = "FULL_DAY"
	PackageMultiDay PackageType = "MULTI_DAY"
)

// Valid reports whether p is one of the known package types.
func (p PackageType) Valid() bool {
	switch p {
	case PackageHourly, PackageHalfDay, PackageFullDay, PackageMultiDay:
		return true
	}
	return false
}

// BookingStatus is the administrative state of a booking.
type BookingStatus string

const (
	StatusPending         BookingStatus = "PENDING"
	StatusApproved        BookingStatus = "APPROVED"
	StatusRejected        BookingStatus = "REJECTED"
	StatusCancelled       BookingStatus = "CANCELLED"
	StatusReviewPayment   BookingStatus = "REVIEW_PAYMENT"
	StatusAwaitingPayment BookingStatus = "AWAITING_PAYMENT"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusReviewPayment, StatusAwaitingPayment:
		return true
	}
	return false
}

// BlocksSlot reports whether a booking in this status occupies its slot.
// Rejected and cancelled bookings never block availability.
func (s BookingStatus) BlocksSlot() bool {
	return s != StatusRejected && s != StatusCancelled
}

// PaymentStatus is the payment track of a booking.  AWAITING_PAYMENT and
// REVIEW_PAYMENT are shared with BookingStatus because the admin flow
// mirrors the payment phase on both fields.
type PaymentStatus string

const (
	PaymentUnpaid          PaymentStatus = "UNPAID"
	PaymentAwaitingPayment PaymentStatus = "AWAITING_PAYMENT"
	PaymentReviewPayment   PaymentStatus = "REVIEW_PAYMENT"
	PaymentPaid            PaymentStatus = "PAID"
	PaymentVerified        PaymentStatus = "VERIFIED"
	PaymentFailed          PaymentStatus = "FAILED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentAwaitingPayment, PaymentReviewPayment, PaymentPaid, PaymentVerified, PaymentFailed:
		return true
	}
	return false
}

// Package is a requested reservation window.  StartDate == EndDate is a
// single-day booking; otherwise the booking covers full operating hours on
// every day of the range.
type Package struct {
	Type      PackageType `json:"type"`
	StartDate Date        `json:"startDate"`
	EndDate   Date        `json:"endDate"`
	StartTime ClockTime   `json:"startTime"`
	EndTime   ClockTime   `json:"endTime"`
}

// IsMultiDay reports whether the window spans more than one calendar day.
func (p Package) IsMultiDay() bool {
	return !p.StartDate.Equal(p.EndDate)
}

// Days returns the number of calendar days covered, inclusive.
func (p Package) Days() int {
	return p.StartDate.DaysUntil(p.EndDate) + 1
}

// Booking is the canonical internal shape of a booking record.  The CMS
// owns persistence; see repository.normalizeBooking for the mapping.
type Booking struct {
	ID            int64         `json:"id"`
	BookingNumber string        `json:"bookingNumber"`
	ApplicantName string        `json:"name"`
	Department    string        `json:"department,omitempty"`
	Address       string        `json:"address,omitempty"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Purpose       string        `json:"purpose,omitempty"`
	EventName     string        `json:"eventName"`
	FacilityID    int64         `json:"facilityId"`
	StartDate     Date          `json:"startDate"`
	EndDate       Date          `json:"endDate"`
	StartTime     ClockTime     `json:"startTime"`
	EndTime       ClockTime     `json:"endTime"`
	PackageType   PackageType   `json:"packageType"`
	Attendance    int           `json:"attendance"`
	Equipment     []string      `json:"equipment,omitempty"`
	Consumables   []Consumable  `json:"consumables,omitempty"`
	Status        BookingStatus `json:"bookingStatus"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TotalPrice    Money         `json:"totalPrice"`
	SessionID     string        `json:"sessionId,omitempty"`
	StatusReason  string        `json:"statusReason,omitempty"`
	Attachments   []int64       `json:"attachments,omitempty"`
	PaymentProof  []int64       `json:"paymentProof,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Package returns the reservation window occupied by the booking.
func (b Booking) Package() Package {
	return Package{
		Type:      b.PackageType,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

// Consumable is a food or drink item ordered with a booking, priced at a
// fixed unit rate outside the pricing engine.
type Consumable struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// TemporaryHold is an expiring soft reservation of a facility window by
// one browser session.  At most one hold exists per (session, facility).
type TemporaryHold struct {
	SessionID  string    `json:"sessionId"`
	FacilityID int64     `json:"facilityId"`
	Package    Package   `json:"package"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the hold is dead at now.
func (h TemporaryHold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}
