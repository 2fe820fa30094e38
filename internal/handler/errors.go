package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/availability"
	"github.com/iliyamo/facility-reservation/internal/booking"
	"github.com/iliyamo/facility-reservation/internal/pricing"
	"github.com/iliyamo/facility-reservation/internal/repository"
)

// Error codes of the {error, message, details} body.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeFacilityNotFound  = "FACILITY_NOT_FOUND"
	CodeBookingNotFound   = "BOOKING_NOT_FOUND"
	CodeSlotUnavailable   = "SLOT_UNAVAILABLE"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeDuplicateBooking  = "DUPLICATE_BOOKING"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// errorBody is the error response of every endpoint.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func fail(c echo.Context, status int, code, message string, details any) error {
	return c.JSON(status, errorBody{Error: code, Message: message, Details: details})
}

// fieldError is a 400 for one malformed request field.
func fieldError(field, message string) error {
	return &booking.ValidationError{Code: CodeValidation, Field: field, Message: field + " " + message}
}

func badRequest(c echo.Context, message string, details any) error {
	return fail(c, http.StatusBadRequest, CodeValidation, message, details)
}

// respondError maps a domain or upstream error onto the error taxonomy:
// validation 400, not found 404, conflict 409 and everything else 500.
// Upstream messages are not echoed to clients.
func respondError(c echo.Context, err error) error {
	var ve *booking.ValidationError
	var fe validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return fail(c, http.StatusBadRequest, ve.Code, ve.Message, echo.Map{"field": ve.Field})
	case errors.As(err, &fe):
		return badRequest(c, "request validation failed", fieldErrors(fe))
	case isBadInput(err):
		return badRequest(c, err.Error(), nil)
	case errors.Is(err, repository.ErrFacilityNotFound):
		return fail(c, http.StatusNotFound, CodeFacilityNotFound, "facility not found", nil)
	case errors.Is(err, repository.ErrBookingNotFound):
		return fail(c, http.StatusNotFound, CodeBookingNotFound, "booking not found", nil)
	case errors.Is(err, booking.ErrInvalidTransition):
		return fail(c, http.StatusConflict, CodeInvalidTransition, err.Error(), nil)
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, CodeDuplicateBooking, "booking could not be stored because of a conflict", nil)
	case errors.Is(err, repository.ErrUpstream):
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("upstream failure")
		return fail(c, http.StatusInternalServerError, CodeUpstream, "the booking backend is unavailable, please try again later", nil)
	default:
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("internal error")
		return fail(c, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}

var badInput = []error{
	availability.ErrMissingPackageType,
	availability.ErrUnknownPackageType,
	availability.ErrMissingStartDate,
	availability.ErrMissingHourlyTimes,
	availability.ErrUnknownPeriod,
	pricing.ErrEmptyWindow,
	pricing.ErrEndBeforeStart,
	pricing.ErrBelowMinimum,
	pricing.ErrUnpricedHours,
	pricing.ErrUnknownEquipment,
	pricing.ErrUnknownConsumable,
}

func isBadInput(err error) bool {
	for _, target := range badInput {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		if name != "" {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		switch fe.Tag() {
		case "required", "required_if", "required_unless":
			out[name] = "is required"
		case "email":
			out[name] = "must be a valid e-mail address"
		case "oneof":
			out[name] = "must be one of: " + fe.Param()
		default:
			out[name] = "failed " + fe.Tag() + " " + fe.Param()
		}
	}
	return out
}
