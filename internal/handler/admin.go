package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/booking"
	"github.com/iliyamo/facility-reservation/internal/middleware"
	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/repository"
)

// AdminHandler serves the back-office booking endpoints.  Routes are
// guarded by middleware.AdminAuth.
type AdminHandler struct {
	Facilities FacilityReader
	Bookings   BookingStore
	Notify     Notifier
	Cache      CachePurger
}

func NewAdminHandler(f FacilityReader, b BookingStore, n Notifier, cache CachePurger) *AdminHandler {
	if f == nil || b == nil || n == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Facilities: f, Bookings: b, Notify: n, Cache: cache}
}

// List handles GET /admin/bookings?facilityId&status&email&page&pageSize.
func (h *AdminHandler) List(c echo.Context) error {
	var f repository.BookingFilter
	var err error
	if v := c.QueryParam("facilityId"); v != "" {
		if f.FacilityID, err = strconv.ParseInt(v, 10, 64); err != nil || f.FacilityID <= 0 {
			return badRequest(c, "facilityId must be a positive integer", echo.Map{"facilityId": "must be a positive integer"})
		}
	}
	if v := c.QueryParam("status"); v != "" {
		f.Status = model.BookingStatus(strings.ToUpper(v))
		if !f.Status.Valid() {
			return badRequest(c, "unknown status", echo.Map{"status": "is not a booking status"})
		}
	}
	f.Email = strings.TrimSpace(c.QueryParam("email"))
	if f.Page, err = intParam(c, "page", 1); err != nil {
		return respondError(c, err)
	}
	if f.PageSize, err = intParam(c, "pageSize", 25); err != nil {
		return respondError(c, err)
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	items, page, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "pagination": page})
}

func intParam(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fieldError(name, "must be a positive integer")
	}
	return n, nil
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED CANCELLED REVIEW_PAYMENT AWAITING_PAYMENT"`
	Reason string `json:"reason" validate:"max=1000"`
}

type paymentRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=UNPAID AWAITING_PAYMENT REVIEW_PAYMENT PAID VERIFIED FAILED"`
}

func (h *AdminHandler) load(c echo.Context) (model.Booking, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return model.Booking{}, fieldError("id", "must be a positive integer")
	}
	return h.Bookings.GetByID(c.Request().Context(), id)
}

// facilityName is best effort; a failed lookup only loses the name in
// the e-mail.
func (h *AdminHandler) facilityName(ctx context.Context, id int64) string {
	f, err := h.Facilities.GetByID(ctx, id)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("facility_id", id).Msg("facility lookup for notification failed")
		return ""
	}
	return f.Name
}

// UpdateStatus handles PATCH /admin/bookings/:id/status.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	req.Status = strings.ToUpper(req.Status)
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	b, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := booking.ApplyStatus(&b, model.BookingStatus(req.Status), req.Reason); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	updated, err := h.Bookings.Update(ctx, b.ID, repository.BookingPatch{
		Status:        &b.Status,
		PaymentStatus: &b.PaymentStatus,
		StatusReason:  &b.StatusReason,
	})
	if err != nil {
		return respondError(c, err)
	}
	log.Ctx(ctx).Info().
		Int64("booking_id", updated.ID).
		Str("status", string(updated.Status)).
		Str("admin", middleware.AdminSubject(c)).
		Msg("booking status changed")

	if h.Cache != nil {
		h.Cache.Purge(ctx)
	}
	h.Notify.StatusChanged(ctx, updated, h.facilityName(ctx, updated.FacilityID))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}

// UpdatePayment handles PATCH /admin/bookings/:id/payment.  Only the
// payment track moves.
func (h *AdminHandler) UpdatePayment(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	req.PaymentStatus = strings.ToUpper(req.PaymentStatus)
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	b, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := booking.ApplyPayment(&b, model.PaymentStatus(req.PaymentStatus)); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	updated, err := h.Bookings.Update(ctx, b.ID, repository.BookingPatch{PaymentStatus: &b.PaymentStatus})
	if err != nil {
		return respondError(c, err)
	}
	log.Ctx(ctx).Info().
		Int64("booking_id", updated.ID).
		Str("payment_status", string(updated.PaymentStatus)).
		Str("admin", middleware.AdminSubject(c)).
		Msg("booking payment changed")
	h.Notify.PaymentChanged(ctx, updated, h.facilityName(ctx, updated.FacilityID))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}
