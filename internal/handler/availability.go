package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-reservation/internal/availability"
	"github.com/iliyamo/facility-reservation/internal/hold"
	"github.com/iliyamo/facility-reservation/internal/metrics"
	"github.com/iliyamo/facility-reservation/internal/middleware"
	"github.com/iliyamo/facility-reservation/internal/model"
)

// AvailabilityHandler serves the availability check (with hold and
// release actions) and the monthly calendar.
type AvailabilityHandler struct {
	Facilities FacilityReader
	Bookings   BookingReader
	Holds      *hold.Manager
	Resolver   *availability.Resolver
	Metrics    *metrics.Metrics
}

// NewAvailabilityHandler panics on nil dependencies; m may be nil.
func NewAvailabilityHandler(f FacilityReader, b BookingReader, h *hold.Manager, r *availability.Resolver, m *metrics.Metrics) *AvailabilityHandler {
	if f == nil || b == nil || h == nil || r == nil {
		panic("nil dependency passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Facilities: f, Bookings: b, Holds: h, Resolver: r, Metrics: m}
}

const (
	actionCheck   = "check"
	actionHold    = "hold"
	actionRelease = "release"
)

type availabilityRequest struct {
	FacilityID    int64  `json:"facilityId" validate:"required,gt=0"`
	PackageType   string `json:"packageType" validate:"required_unless=Action release"`
	StartDate     string `json:"startDate" validate:"required_unless=Action release"`
	EndDate       string `json:"endDate"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	SessionID     string `json:"sessionId" validate:"max=128"`
	Action        string `json:"action" validate:"omitempty,oneof=check hold release"`
	HalfDayPeriod string `json:"halfDayPeriod" validate:"omitempty,oneof=morning afternoon evening"`
}

type availabilityResponse struct {
	Available      bool                `json:"available"`
	Package        model.Package       `json:"package"`
	ConflictReason *string             `json:"conflictReason"`
	Alternatives   []availability.Slot `json:"alternatives"`
	SessionID      string              `json:"sessionId,omitempty"`
	HoldExpiry     *time.Time          `json:"holdExpiry,omitempty"`
}

// packageRequest converts the wire fields into a package selection.
// Times are only parsed when given.
func packageRequest(typ, startDate, endDate, startTime, endTime, period string) (availability.PackageRequest, error) {
	req := availability.PackageRequest{
		Type:          model.PackageType(strings.ToUpper(typ)),
		HalfDayPeriod: availability.HalfDayPeriod(period),
	}
	var err error
	if startDate != "" {
		if req.StartDate, err = model.ParseDate(startDate); err != nil {
			return req, fieldError("startDate", "must be YYYY-MM-DD")
		}
	}
	if endDate != "" {
		if req.EndDate, err = model.ParseDate(endDate); err != nil {
			return req, fieldError("endDate", "must be YYYY-MM-DD")
		}
	}
	if startTime != "" {
		t, err := model.ParseClockTime(startTime)
		if err != nil {
			return req, fieldError("startTime", "must be HH:MM")
		}
		req.StartTime = &t
	}
	if endTime != "" {
		t, err := model.ParseClockTime(endTime)
		if err != nil {
			return req, fieldError("endTime", "must be HH:MM")
		}
		req.EndTime = &t
	}
	return req, nil
}

// Check handles POST /availability-check.
//
// Actions:
//
//	check   - report availability and alternatives.
//	hold    - check, then place a hold for the session when available.
//	          An unavailable window answers 409.
//	release - drop the session's hold on the facility.
//
// Expired holds are swept before anything else.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	if req.Action == "" {
		req.Action = actionCheck
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	if req.SessionID == "" {
		req.SessionID = c.Request().Header.Get(middleware.HeaderSessionID)
	}

	ctx := c.Request().Context()
	h.Holds.SweepExpired(ctx)

	if req.Action == actionRelease {
		if req.SessionID == "" {
			return badRequest(c, "sessionId is required to release a hold", echo.Map{"sessionId": "is required"})
		}
		h.Holds.Release(ctx, req.SessionID, req.FacilityID)
		h.Metrics.HoldAction(actionRelease, 1)
		return c.JSON(http.StatusOK, echo.Map{"released": true, "sessionId": req.SessionID})
	}
	if req.Action == actionHold && req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	facility, err := h.Facilities.GetByID(ctx, req.FacilityID)
	if err != nil {
		return respondError(c, err)
	}
	sel, err := packageRequest(req.PackageType, req.StartDate, req.EndDate, req.StartTime, req.EndTime, req.HalfDayPeriod)
	if err != nil {
		return respondError(c, err)
	}
	pkg, err := availability.ResolvePackage(facility, sel)
	if err != nil {
		return respondError(c, err)
	}
	if pkg.EndDate.Before(pkg.StartDate) {
		return badRequest(c, "end date is before start date", echo.Map{"endDate": "must not be before startDate"})
	}

	bookings, err := h.Bookings.ListByFacilityInRange(ctx, facility.ID, pkg.StartDate, pkg.EndDate)
	if err != nil {
		return respondError(c, err)
	}
	res := h.Resolver.Check(availability.Request{
		FacilityID: facility.ID,
		Package:    pkg,
		Bookings:   bookings,
		Holds:      h.Holds.ActiveHoldsFor(ctx, facility.ID, req.SessionID),
	})
	outcome := "available"
	if !res.Available {
		outcome = string(res.ConflictReason)
	}
	h.Metrics.AvailabilityChecked(outcome)

	resp := availabilityResponse{
		Available:    res.Available,
		Package:      pkg,
		Alternatives: res.Alternatives,
		SessionID:    req.SessionID,
	}
	if resp.Alternatives == nil {
		resp.Alternatives = []availability.Slot{}
	}
	if !res.Available {
		reason := string(res.ConflictReason)
		resp.ConflictReason = &reason
	}

	if req.Action == actionHold {
		if !res.Available {
			return fail(c, http.StatusConflict, CodeSlotUnavailable, "the requested slot is not available", resp)
		}
		held, ok := h.Holds.Hold(ctx, req.SessionID, facility.ID, pkg)
		if ok {
			h.Metrics.HoldAction(actionHold, 1)
			resp.HoldExpiry = &held.ExpiresAt
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Calendar handles GET /facilities/availability?facilityId&month&year.
// Month and year default to the current month.
func (h *AvailabilityHandler) Calendar(c echo.Context) error {
	facilityID, err := strconv.ParseInt(c.QueryParam("facilityId"), 10, 64)
	if err != nil || facilityID <= 0 {
		return badRequest(c, "facilityId must be a positive integer", echo.Map{"facilityId": "is required"})
	}
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := c.QueryParam("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 2000 || year > 2100 {
			return badRequest(c, "year is out of range", echo.Map{"year": "must be between 2000 and 2100"})
		}
	}
	if v := c.QueryParam("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return badRequest(c, "month is out of range", echo.Map{"month": "must be between 1 and 12"})
		}
	}

	ctx := c.Request().Context()
	if _, err := h.Facilities.GetByID(ctx, facilityID); err != nil {
		return respondError(c, err)
	}
	first := model.NewDate(year, time.Month(month), 1)
	last := model.NewDate(year, time.Month(month)+1, 1).AddDays(-1)
	bookings, err := h.Bookings.ListByFacilityInRange(ctx, facilityID, first, last)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.Resolver.MonthCalendar(bookings, year, time.Month(month)))
}
