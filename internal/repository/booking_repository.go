package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/facility-reservation/internal/booking"
	"github.com/iliyamo/facility-reservation/internal/model"
)

const (
	bookingsPath = "/api/bookings"
	maxPageSize  = 100
	maxPages     = 50 // upper bound on pages walked by listAll
)

// BookingRepo reads and writes bookings in the CMS.  Bookings are never
// deleted; they only change status.
type BookingRepo struct {
	cms *CMSClient
}

// NewBookingRepo returns a BookingRepo using cms.
func NewBookingRepo(cms *CMSClient) *BookingRepo { return &BookingRepo{cms: cms} }

// BookingFilter narrows List.  Zero fields do not filter.
type BookingFilter struct {
	FacilityID int64
	Status     model.BookingStatus
	Email      string
	Page       int
	PageSize   int
}

// BookingPatch is a partial update.  Nil fields are left unchanged.
type BookingPatch struct {
	Status        *model.BookingStatus
	PaymentStatus *model.PaymentStatus
	StatusReason  *string
	PaymentProof  []int64
}

func (p BookingPatch) payload() map[string]any {
	out := map[string]any{}
	if p.Status != nil {
		out["bookingStatus"] = string(*p.Status)
	}
	if p.PaymentStatus != nil {
		out["paymentStatus"] = string(*p.PaymentStatus)
	}
	if p.StatusReason != nil {
		out["statusReason"] = *p.StatusReason
	}
	if p.PaymentProof != nil {
		out["paymentProof"] = p.PaymentProof
	}
	return out
}

func activeFilter(q url.Values) {
	q.Set("filters[bookingStatus][$notIn][0]", string(model.StatusRejected))
	q.Set("filters[bookingStatus][$notIn][1]", string(model.StatusCancelled))
}

// ListByFacility returns every booking of the facility whose status
// still blocks its slot.
func (r *BookingRepo) ListByFacility(ctx context.Context, facilityID int64) ([]model.Booking, error) {
	q := url.Values{}
	q.Set("filters[facility][id][$eq]", strconv.FormatInt(facilityID, 10))
	activeFilter(q)
	return r.listAll(ctx, q)
}

// ListByFacilityInRange is ListByFacility restricted to bookings whose
// date range intersects [from, to].
func (r *BookingRepo) ListByFacilityInRange(ctx context.Context, facilityID int64, from, to model.Date) ([]model.Booking, error) {
	q := url.Values{}
	q.Set("filters[facility][id][$eq]", strconv.FormatInt(facilityID, 10))
	q.Set("filters[startDate][$lte]", to.String())
	q.Set("filters[endDate][$gte]", from.String())
	activeFilter(q)
	return r.listAll(ctx, q)
}

// List returns one page of bookings, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, Pagination, error) {
	q := url.Values{}
	if f.FacilityID != 0 {
		q.Set("filters[facility][id][$eq]", strconv.FormatInt(f.FacilityID, 10))
	}
	if f.Status != "" {
		q.Set("filters[bookingStatus][$eq]", string(f.Status))
	}
	if f.Email != "" {
		q.Set("filters[email][$eqi]", f.Email)
	}
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = 25
	}
	q.Set("pagination[page]", strconv.Itoa(page))
	q.Set("pagination[pageSize]", strconv.Itoa(size))
	q.Set("sort[0]", "createdAt:desc")
	return r.page(ctx, q)
}

func (r *BookingRepo) page(ctx context.Context, q url.Values) ([]model.Booking, Pagination, error) {
	env, err := r.cms.doJSON(ctx, http.MethodGet, bookingsPath, q, nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	var items []json.RawMessage
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, Pagination{}, fmt.Errorf("%w: decode booking list: %v", ErrUpstream, err)
		}
	}
	out := make([]model.Booking, 0, len(items))
	for _, raw := range items {
		b, err := normalizeBooking(raw)
		if err != nil {
			return nil, Pagination{}, err
		}
		out = append(out, b)
	}
	return out, env.Meta.Pagination, nil
}

// listAll walks every page of the query.
func (r *BookingRepo) listAll(ctx context.Context, q url.Values) ([]model.Booking, error) {
	q.Set("pagination[pageSize]", strconv.Itoa(maxPageSize))
	var all []model.Booking
	for page := 1; page <= maxPages; page++ {
		q.Set("pagination[page]", strconv.Itoa(page))
		items, p, err := r.page(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || page >= p.PageCount {
			break
		}
	}
	return all, nil
}

// GetByID loads one booking.  ErrBookingNotFound is returned when it
// does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id int64) (model.Booking, error) {
	env, err := r.cms.doJSON(ctx, http.MethodGet, bookingsPath+"/"+strconv.FormatInt(id, 10), nil, nil)
	if isStatus(err, http.StatusNotFound) {
		return model.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return model.Booking{}, ErrBookingNotFound
	}
	return normalizeBooking(env.Data)
}

// FindByNumber looks a booking up by its booking number.
func (r *BookingRepo) FindByNumber(ctx context.Context, number string) (model.Booking, error) {
	q := url.Values{}
	q.Set("filters[bookingNumber][$eq]", number)
	q.Set("pagination[pageSize]", "1")
	items, _, err := r.page(ctx, q)
	if err != nil {
		return model.Booking{}, err
	}
	if len(items) == 0 {
		return model.Booking{}, ErrBookingNotFound
	}
	return items[0], nil
}

// HighestNumberForYear returns the highest booking number issued in year,
// or "" when none exists.
func (r *BookingRepo) HighestNumberForYear(ctx context.Context, year int) (string, error) {
	q := url.Values{}
	q.Set("filters[bookingNumber][$startsWith]", fmt.Sprintf("%s-%04d-", booking.NumberPrefix, year))
	q.Set("sort[0]", "bookingNumber:desc")
	q.Set("pagination[pageSize]", "1")
	q.Set("fields[0]", "bookingNumber")
	items, _, err := r.page(ctx, q)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	return items[0].BookingNumber, nil
}

// ExistsNumber reports whether a booking with the number exists.
func (r *BookingRepo) ExistsNumber(ctx context.Context, number string) (bool, error) {
	_, err := r.FindByNumber(ctx, number)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrBookingNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Create persists b and fills in the id and timestamps assigned by the
// CMS.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	env, err := r.cms.doJSON(ctx, http.MethodPost, bookingsPath, nil, map[string]any{"data": bookingPayload(*b)})
	if isStatus(err, http.StatusConflict) || (isStatus(err, http.StatusBadRequest) && strings.Contains(strings.ToLower(err.Error()), "unique")) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if err != nil {
		return err
	}
	created, err := normalizeBooking(env.Data)
	if err != nil {
		return err
	}
	b.ID = created.ID
	b.CreatedAt = created.CreatedAt
	b.UpdatedAt = created.UpdatedAt
	return nil
}

// Update applies patch to booking id and returns the stored result.
func (r *BookingRepo) Update(ctx context.Context, id int64, patch BookingPatch) (model.Booking, error) {
	env, err := r.cms.doJSON(ctx, http.MethodPut, bookingsPath+"/"+strconv.FormatInt(id, 10), nil, map[string]any{"data": patch.payload()})
	if isStatus(err, http.StatusNotFound) {
		return model.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	return normalizeBooking(env.Data)
}
