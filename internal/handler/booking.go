package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/availability"
	"github.com/iliyamo/facility-reservation/internal/booking"
	"github.com/iliyamo/facility-reservation/internal/hold"
	"github.com/iliyamo/facility-reservation/internal/metrics"
	"github.com/iliyamo/facility-reservation/internal/middleware"
	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/pricing"
	"github.com/iliyamo/facility-reservation/internal/repository"
)

const (
	maxUploadFiles   = 5
	maxUploadBytes   = 10 << 20
	maxCreateRetries = 3
)

// BookingHandler creates bookings and serves the applicant-facing
// lookups.
type BookingHandler struct {
	Facilities FacilityReader
	Bookings   BookingStore
	Uploads    Uploader
	Holds      *hold.Manager
	Resolver   *availability.Resolver
	Validator  *booking.Validator
	Pricing    *pricing.Engine
	Numbers    NumberSource
	Notify     Notifier
	Cache      CachePurger
	Metrics    *metrics.Metrics

	// PhoneRegion is the default region of phone numbers without a
	// country code.
	PhoneRegion string
}

// NewBookingHandler panics when a required dependency is nil.  Cache and
// Metrics are optional.
func NewBookingHandler(h BookingHandler) *BookingHandler {
	if h.Facilities == nil || h.Bookings == nil || h.Uploads == nil || h.Holds == nil ||
		h.Resolver == nil || h.Validator == nil || h.Pricing == nil || h.Numbers == nil || h.Notify == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &h
}

type createBookingRequest struct {
	Name          string             `json:"name" validate:"required,max=200"`
	Department    string             `json:"department" validate:"max=200"`
	Address       string             `json:"address" validate:"max=500"`
	Email         string             `json:"email" validate:"required,email"`
	Phone         string             `json:"phone" validate:"required,min=6,max=30"`
	Purpose       string             `json:"purpose" validate:"max=1000"`
	EventName     string             `json:"eventName" validate:"required,max=200"`
	FacilityID    int64              `json:"facilityId" validate:"required,gt=0"`
	PackageType   string             `json:"packageType" validate:"required,oneof=HOURLY HALF_DAY FULL_DAY MULTI_DAY"`
	StartDate     string             `json:"startDate" validate:"required"`
	EndDate       string             `json:"endDate"`
	StartTime     string             `json:"startTime" validate:"required_if=PackageType HOURLY"`
	EndTime       string             `json:"endTime" validate:"required_if=PackageType HOURLY"`
	HalfDayPeriod string             `json:"halfDayPeriod" validate:"omitempty,oneof=morning afternoon evening"`
	Attendance    int                `json:"attendance" validate:"required,gte=1"`
	Equipment     []string           `json:"equipment" validate:"max=20,dive,required"`
	Consumables   []model.Consumable `json:"consumables" validate:"max=20"`
	SessionID     string             `json:"sessionId" validate:"max=128"`
	TotalPrice    *float64           `json:"totalPrice" validate:"omitempty,gte=0"`
}

// bindCreateRequest reads either a JSON body or a multipart form.  In a
// multipart form, equipment may repeat or be comma separated, consumables
// is a JSON array and files are sent as "files".
func bindCreateRequest(c echo.Context) (createBookingRequest, []repository.File, error) {
	var req createBookingRequest
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return req, nil, fieldError("body", "is not valid JSON")
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, fieldError("body", "is not a valid multipart form")
	}
	get := func(k string) string { return strings.TrimSpace(c.FormValue(k)) }
	req.Name = get("name")
	req.Department = get("department")
	req.Address = get("address")
	req.Email = get("email")
	req.Phone = get("phone")
	req.Purpose = get("purpose")
	req.EventName = get("eventName")
	req.PackageType = get("packageType")
	req.StartDate = get("startDate")
	req.EndDate = get("endDate")
	req.StartTime = get("startTime")
	req.EndTime = get("endTime")
	req.HalfDayPeriod = get("halfDayPeriod")
	req.SessionID = get("sessionId")
	if v := get("facilityId"); v != "" {
		if req.FacilityID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return req, nil, fieldError("facilityId", "must be an integer")
		}
	}
	if v := get("attendance"); v != "" {
		if req.Attendance, err = strconv.Atoi(v); err != nil {
			return req, nil, fieldError("attendance", "must be an integer")
		}
	}
	if v := get("totalPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, nil, fieldError("totalPrice", "must be a number")
		}
		req.TotalPrice = &p
	}
	for _, v := range form.Value["equipment"] {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				req.Equipment = append(req.Equipment, item)
			}
		}
	}
	if v := get("consumables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Consumables); err != nil {
			return req, nil, fieldError("consumables", "must be a JSON array")
		}
	}

	files, err := formFiles(form.File["files"])
	if err != nil {
		return req, nil, err
	}
	return req, files, nil
}

// formFiles opens the uploaded parts.  The readers stay valid for the
// lifetime of the request.
func formFiles(headers []*multipart.FileHeader) ([]repository.File, error) {
	if len(headers) > maxUploadFiles {
		return nil, fieldError("files", fmt.Sprintf("accepts at most %d files", maxUploadFiles))
	}
	files := make([]repository.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			return nil, fieldError("files", fmt.Sprintf("%s exceeds %d MB", fh.Filename, maxUploadBytes>>20))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fieldError("files", "could not be read")
		}
		files = append(files, repository.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Body:        f,
		})
	}
	return files, nil
}

type createBookingResponse struct {
	Success       bool          `json:"success"`
	Data          model.Booking `json:"data"`
	BookingNumber string        `json:"bookingNumber"`
	FilesUploaded int           `json:"filesUploaded"`
	Quote         pricing.Quote `json:"quote"`
}

// Create handles POST /bookings/create.  The steps run in order and stop
// at the first failure: validation, conflict check against bookings and
// other sessions' holds, pricing, attachment upload, numbering and
// persistence.  The session's hold is released and the notifications are
// dispatched only after the booking is stored.
func (h *BookingHandler) Create(c echo.Context) error {
	req, files, err := bindCreateRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	if req.SessionID == "" {
		req.SessionID = c.Request().Header.Get(middleware.HeaderSessionID)
	}
	phone, err := booking.NormalizePhone(req.Phone, h.PhoneRegion)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	logger := log.Ctx(ctx).With().Int64("facility_id", req.FacilityID).Str("session_id", req.SessionID).Logger()
	h.Holds.SweepExpired(ctx)

	facility, err := h.Facilities.GetByID(ctx, req.FacilityID)
	if err != nil {
		return respondError(c, err)
	}

	pkgType := model.PackageType(req.PackageType)
	if req.StartTime == "" || req.EndTime == "" {
		sel, err := packageRequest(req.PackageType, req.StartDate, req.EndDate, "", "", req.HalfDayPeriod)
		if err != nil {
			return respondError(c, err)
		}
		def, err := availability.ResolvePackage(facility, sel)
		if err != nil {
			return respondError(c, err)
		}
		req.StartTime, req.EndTime = def.StartTime.Short(), def.EndTime.Short()
		if req.EndDate == "" {
			req.EndDate = def.EndDate.String()
		}
	}
	pkg, err := h.Validator.ForFacility(facility).Validate(booking.Input{
		PackageType: pkgType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Attendance:  req.Attendance,
		Capacity:    facility.Capacity,
	})
	if err != nil {
		return respondError(c, err)
	}

	existing, err := h.Bookings.ListByFacilityInRange(ctx, facility.ID, pkg.StartDate, pkg.EndDate)
	if err != nil {
		return respondError(c, err)
	}
	res := h.Resolver.Check(availability.Request{
		FacilityID: facility.ID,
		Package:    pkg,
		Bookings:   existing,
		Holds:      h.Holds.ActiveHoldsFor(ctx, facility.ID, req.SessionID),
	})
	if !res.Available {
		h.Metrics.AvailabilityChecked(string(res.ConflictReason))
		if res.Alternatives == nil {
			res.Alternatives = []availability.Slot{}
		}
		return fail(c, http.StatusConflict, CodeSlotUnavailable, "the requested slot is no longer available", echo.Map{
			"conflictReason": res.ConflictReason,
			"alternatives":   res.Alternatives,
		})
	}

	quote, err := h.Pricing.Quote(pricing.Request{Facility: facility, Package: pkg, Equipment: req.Equipment})
	if err != nil {
		return respondError(c, err)
	}
	if quote, err = h.Pricing.WithConsumables(quote, req.Consumables); err != nil {
		return respondError(c, err)
	}
	if req.TotalPrice != nil && model.FromFloat(*req.TotalPrice) != quote.Total {
		logger.Warn().Float64("client_total", *req.TotalPrice).Str("quoted_total", quote.Total.String()).Msg("client price differs from quote; using quote")
	}

	uploaded, err := h.Uploads.Upload(ctx, files)
	if err != nil {
		return respondError(c, err)
	}

	b := model.Booking{
		ApplicantName: req.Name,
		Department:    req.Department,
		Address:       req.Address,
		Email:         strings.ToLower(req.Email),
		Phone:         phone,
		Purpose:       req.Purpose,
		EventName:     req.EventName,
		FacilityID:    facility.ID,
		StartDate:     pkg.StartDate,
		EndDate:       pkg.EndDate,
		StartTime:     pkg.StartTime,
		EndTime:       pkg.EndTime,
		PackageType:   pkgType,
		Attendance:    req.Attendance,
		Equipment:     req.Equipment,
		Consumables:   req.Consumables,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
		TotalPrice:    quote.Total,
		SessionID:     req.SessionID,
		Attachments:   repository.IDs(uploaded),
	}
	if err := h.store(ctx, &b); err != nil {
		return respondError(c, err)
	}
	logger.Info().Str("booking_number", b.BookingNumber).Int64("booking_id", b.ID).Msg("booking created")

	if req.SessionID != "" {
		h.Holds.Release(ctx, req.SessionID, facility.ID)
		h.Metrics.HoldAction(actionRelease, 1)
	}
	if h.Cache != nil {
		h.Cache.Purge(ctx)
	}
	h.Metrics.BookingCreated(string(pkgType))
	h.Notify.BookingCreated(ctx, b, facility.Name)

	return c.JSON(http.StatusCreated, createBookingResponse{
		Success:       true,
		Data:          b,
		BookingNumber: b.BookingNumber,
		FilesUploaded: len(uploaded),
		Quote:         quote,
	})
}

// store numbers and persists b.  A uniqueness conflict reported by the
// CMS draws a fresh number a bounded number of times.
func (h *BookingHandler) store(ctx context.Context, b *model.Booking) error {
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		if b.BookingNumber, err = h.Numbers.Next(ctx); err != nil {
			return err
		}
		if err = h.Bookings.Create(ctx, b); !errors.Is(err, repository.ErrConflict) {
			return err
		}
		log.Ctx(ctx).Warn().Str("booking_number", b.BookingNumber).Msg("booking number taken, retrying")
	}
	return err
}

// lookup finds a booking by booking number first and numeric id second,
// and hides it unless email matches the applicant's.
func lookup(ctx context.Context, bookings BookingReader, ref, email string) (model.Booking, error) {
	b, err := bookings.FindByNumber(ctx, strings.ToUpper(ref))
	if errors.Is(err, repository.ErrBookingNotFound) {
		id, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil || id <= 0 {
			return model.Booking{}, err
		}
		b, err = bookings.GetByID(ctx, id)
	}
	if err != nil {
		return model.Booking{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(b.Email), strings.TrimSpace(email)) {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

// Search handles GET /bookings/search?email&id.
func (h *BookingHandler) Search(c echo.Context) error {
	email, ref := strings.TrimSpace(c.QueryParam("email")), strings.TrimSpace(c.QueryParam("id"))
	if email == "" || ref == "" {
		details := echo.Map{}
		if email == "" {
			details["email"] = "is required"
		}
		if ref == "" {
			details["id"] = "is required"
		}
		return badRequest(c, "email and id are required", details)
	}
	b, err := lookup(c.Request().Context(), h.Bookings, ref, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// UploadPaymentProof handles POST /bookings/:id/payment-proof.  The form
// carries the applicant e-mail and one or more "files".  The booking
// must be awaiting payment; it moves to REVIEW_PAYMENT.
func (h *BookingHandler) UploadPaymentProof(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	if email == "" {
		return badRequest(c, "email is required", echo.Map{"email": "is required"})
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "expected a multipart form", nil)
	}
	files, err := formFiles(form.File["files"])
	if err != nil {
		return respondError(c, err)
	}
	if len(files) == 0 {
		return badRequest(c, "at least one file is required", echo.Map{"files": "is required"})
	}

	ctx := c.Request().Context()
	b, err := lookup(ctx, h.Bookings, c.Param("id"), email)
	if err != nil {
		return respondError(c, err)
	}
	if err := booking.ApplyStatus(&b, model.StatusReviewPayment, ""); err != nil {
		return respondError(c, err)
	}
	uploaded, err := h.Uploads.Upload(ctx, files)
	if err != nil {
		return respondError(c, err)
	}
	proof := append(append([]int64{}, b.PaymentProof...), repository.IDs(uploaded)...)
	updated, err := h.Bookings.Update(ctx, b.ID, repository.BookingPatch{
		Status:        &b.Status,
		PaymentStatus: &b.PaymentStatus,
		PaymentProof:  proof,
	})
	if err != nil {
		return respondError(c, err)
	}
	log.Ctx(ctx).Info().Int64("booking_id", updated.ID).Int("files", len(uploaded)).Msg("payment proof uploaded")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated, "filesUploaded": len(uploaded)})
}
