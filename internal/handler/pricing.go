package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-reservation/internal/availability"
	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/pricing"
)

// PricingHandler prices a package selection without booking it.
type PricingHandler struct {
	Facilities FacilityReader
	Pricing    *pricing.Engine
}

func NewPricingHandler(f FacilityReader, e *pricing.Engine) *PricingHandler {
	if f == nil || e == nil {
		panic("nil dependency passed to NewPricingHandler")
	}
	return &PricingHandler{Facilities: f, Pricing: e}
}

type quoteRequest struct {
	FacilityID    int64              `json:"facilityId" validate:"required,gt=0"`
	PackageType   string             `json:"packageType" validate:"required,oneof=HOURLY HALF_DAY FULL_DAY MULTI_DAY"`
	StartDate     string             `json:"startDate" validate:"required"`
	EndDate       string             `json:"endDate"`
	StartTime     string             `json:"startTime" validate:"required_if=PackageType HOURLY"`
	EndTime       string             `json:"endTime" validate:"required_if=PackageType HOURLY"`
	HalfDayPeriod string             `json:"halfDayPeriod" validate:"omitempty,oneof=morning afternoon evening"`
	Equipment     []string           `json:"equipment" validate:"max=20,dive,required"`
	Consumables   []model.Consumable `json:"consumables" validate:"max=20"`
}

// Quote handles POST /pricing/quote.  It answers with the same breakdown
// a booking for this selection would be charged.
func (h *PricingHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	facility, err := h.Facilities.GetByID(c.Request().Context(), req.FacilityID)
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
	q, err := h.Pricing.Quote(pricing.Request{Facility: facility, Package: pkg, Equipment: req.Equipment})
	if err != nil {
		return respondError(c, err)
	}
	if q, err = h.Pricing.WithConsumables(q, req.Consumables); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"package": pkg, "quote": q})
}
