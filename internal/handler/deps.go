// Package handler implements the HTTP endpoints of the reservation
// service on top of Echo.
package handler

import (
	"context"

	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/repository"
)

// The interfaces below are satisfied by the repository package and let
// tests substitute in-memory fakes for the CMS.

type FacilityReader interface {
	GetByID(ctx context.Context, id int64) (model.Facility, error)
}

type BookingReader interface {
	ListByFacilityInRange(ctx context.Context, facilityID int64, from, to model.Date) ([]model.Booking, error)
	GetByID(ctx context.Context, id int64) (model.Booking, error)
	FindByNumber(ctx context.Context, number string) (model.Booking, error)
}

type BookingStore interface {
	BookingReader
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, repository.Pagination, error)
	Create(ctx context.Context, b *model.Booking) error
	Update(ctx context.Context, id int64, patch repository.BookingPatch) (model.Booking, error)
}

type Uploader interface {
	Upload(ctx context.Context, files []repository.File) ([]repository.UploadedFile, error)
}

// NumberSource hands out booking numbers (booking.NumberGenerator).
type NumberSource interface {
	Next(ctx context.Context) (string, error)
}

// Notifier is implemented by service.Notifications.
type Notifier interface {
	BookingCreated(ctx context.Context, b model.Booking, facilityName string)
	StatusChanged(ctx context.Context, b model.Booking, facilityName string)
	PaymentChanged(ctx context.Context, b model.Booking, facilityName string)
	Send(ctx context.Context, n model.Notification)
}

// CachePurger drops cached calendar responses after a booking changes.
type CachePurger interface {
	Purge(ctx context.Context)
}
