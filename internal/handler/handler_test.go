package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-reservation/internal/availability"
	"github.com/iliyamo/facility-reservation/internal/booking"
	"github.com/iliyamo/facility-reservation/internal/hold"
	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/pricing"
	"github.com/iliyamo/facility-reservation/internal/repository"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

var hall = model.Facility{
	ID:             1,
	Name:           "Main Hall",
	Kind:           model.FacilityHall,
	Capacity:       100,
	Rates:          model.NewFlatRateCard(5000, 25000, 40000),
	EquipmentRates: map[string]model.Money{"projector": 7500},
}

type fakeFacilities map[int64]model.Facility

func (f fakeFacilities) GetByID(_ context.Context, id int64) (model.Facility, error) {
	if fac, ok := f[id]; ok {
		return fac, nil
	}
	return model.Facility{}, repository.ErrFacilityNotFound
}

type fakeBookings struct {
	mu        sync.Mutex
	items     []model.Booking
	createErr []error
	listErr   error
}

func (s *fakeBookings) ListByFacilityInRange(_ context.Context, facilityID int64, _, _ model.Date) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.Booking
	for _, b := range s.items {
		if b.FacilityID == facilityID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBookings) GetByID(_ context.Context, id int64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.items {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrBookingNotFound
}

func (s *fakeBookings) FindByNumber(_ context.Context, number string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.items {
		if b.BookingNumber == number {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrBookingNotFound
}

func (s *fakeBookings) List(_ context.Context, f repository.BookingFilter) ([]model.Booking, repository.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.items {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	return out, repository.Pagination{Page: f.Page, PageSize: f.PageSize, PageCount: 1, Total: len(out)}, nil
}

func (s *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.createErr) > 0 {
		err := s.createErr[0]
		s.createErr = s.createErr[1:]
		if err != nil {
			return err
		}
	}
	b.ID = int64(len(s.items) + 100)
	b.CreatedAt = now
	s.items = append(s.items, *b)
	return nil
}

func (s *fakeBookings) Update(_ context.Context, id int64, p repository.BookingPatch) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if p.Status != nil {
			s.items[i].Status = *p.Status
		}
		if p.PaymentStatus != nil {
			s.items[i].PaymentStatus = *p.PaymentStatus
		}
		if p.StatusReason != nil {
			s.items[i].StatusReason = *p.StatusReason
		}
		if p.PaymentProof != nil {
			s.items[i].PaymentProof = p.PaymentProof
		}
		return s.items[i], nil
	}
	return model.Booking{}, repository.ErrBookingNotFound
}

type fakeUploads struct {
	names []string
}

func (u *fakeUploads) Upload(_ context.Context, files []repository.File) ([]repository.UploadedFile, error) {
	var out []repository.UploadedFile
	for _, f := range files {
		if _, err := io.ReadAll(f.Body); err != nil {
			return nil, err
		}
		u.names = append(u.names, f.Name)
		out = append(out, repository.UploadedFile{ID: int64(len(u.names)), Name: f.Name})
	}
	return out, nil
}

type fakeNumbers struct{ n int }

func (f *fakeNumbers) Next(context.Context) (string, error) {
	f.n++
	return booking.FormatNumber(2024, f.n), nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	created []model.Booking
	status  []model.Booking
	payment []model.Booking
	sent    []model.Notification
}

func (n *fakeNotifier) BookingCreated(_ context.Context, b model.Booking, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, b)
}

func (n *fakeNotifier) StatusChanged(_ context.Context, b model.Booking, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = append(n.status, b)
}

func (n *fakeNotifier) PaymentChanged(_ context.Context, b model.Booking, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payment = append(n.payment, b)
}

func (n *fakeNotifier) Send(_ context.Context, m model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
}

type fakeCache struct{ purges int }

func (c *fakeCache) Purge(context.Context) { c.purges++ }

type fixture struct {
	e        *echo.Echo
	bookings *fakeBookings
	uploads  *fakeUploads
	numbers  *fakeNumbers
	notify   *fakeNotifier
	cache    *fakeCache
	holds    *hold.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		e:        echo.New(),
		bookings: &fakeBookings{},
		uploads:  &fakeUploads{},
		numbers:  &fakeNumbers{},
		notify:   &fakeNotifier{},
		cache:    &fakeCache{},
		holds:    hold.NewManager(hold.NewMemoryStore(), time.Minute, func() time.Time { return now }),
	}
	f.e.Validator = NewRequestValidator()

	facilities := fakeFacilities{hall.ID: hall}
	resolver := availability.DefaultResolver()
	v := booking.NewValidator(booking.General, time.UTC)
	v.Now = func() time.Time { return now }
	engine := pricing.NewEngine(map[string]model.Money{"water": 500})

	avail := NewAvailabilityHandler(facilities, f.bookings, f.holds, resolver, nil)
	bh := NewBookingHandler(BookingHandler{
		Facilities: facilities,
		Bookings:   f.bookings,
		Uploads:    f.uploads,
		Holds:      f.holds,
		Resolver:   resolver,
		Validator:  v,
		Pricing:    engine,
		Numbers:    f.numbers,
		Notify:     f.notify,
		Cache:      f.cache,
	})
	admin := NewAdminHandler(facilities, f.bookings, f.notify, f.cache)
	notes := NewNotificationHandler(f.notify)
	quotes := NewPricingHandler(facilities, engine)

	f.e.POST("/availability-check", avail.Check)
	f.e.GET("/facilities/availability", avail.Calendar)
	f.e.POST("/bookings/create", bh.Create)
	f.e.GET("/bookings/search", bh.Search)
	f.e.POST("/bookings/:id/payment-proof", bh.UploadPaymentProof)
	f.e.POST("/pricing/quote", quotes.Quote)
	f.e.GET("/admin/bookings", admin.List)
	f.e.PATCH("/admin/bookings/:id/status", admin.UpdateStatus)
	f.e.PATCH("/admin/bookings/:id/payment", admin.UpdatePayment)
	f.e.POST("/notifications/booking-status", notes.BookingStatus)
	f.e.POST("/notifications/booking-created", notes.BookingCreated)
	return f
}

func (f *fixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createBody() map[string]any {
	return map[string]any{
		"name":        "Ana Silva",
		"email":       "Ana@Example.com",
		"phone":       "+351 912 345 678",
		"eventName":   "Team workshop",
		"facilityId":  1,
		"packageType": "HOURLY",
		"startDate":   "2024-03-05",
		"startTime":   "09:00",
		"endTime":     "11:00",
		"attendance":  30,
		"equipment":   []string{"projector"},
		"consumables": []map[string]any{{"name": "water", "quantity": 10}},
		"sessionId":   "s1",
	}
}

func existing(start, end string, status model.BookingStatus) model.Booking {
	d := model.MustParseDate("2024-03-05")
	return model.Booking{
		ID:            7,
		BookingNumber: "UTC-2024-0007",
		ApplicantName: "Rui",
		Email:         "rui@example.com",
		EventName:     "Board meeting",
		FacilityID:    hall.ID,
		StartDate:     d,
		EndDate:       d,
		StartTime:     model.MustParseClock(start),
		EndTime:       model.MustParseClock(end),
		PackageType:   model.PackageHourly,
		Status:        status,
		PaymentStatus: model.PaymentUnpaid,
	}
}

func TestCreate_JSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/bookings/create", createBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "UTC-2024-0001", body["bookingNumber"])
	assert.EqualValues(t, 0, body["filesUploaded"])
	quote := body["quote"].(map[string]any)
	assert.EqualValues(t, 225, quote["total"]) // 2h x 50 + projector 75 + 10 water x 5

	require.Len(t, f.bookings.items, 1)
	b := f.bookings.items[0]
	assert.Equal(t, "ana@example.com", b.Email)
	assert.Equal(t, "+351912345678", b.Phone)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, model.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, model.Money(22500), b.TotalPrice)
	assert.Len(t, f.notify.created, 1)
	assert.Equal(t, 1, f.cache.purges)
}

func TestCreate_FillsPackageTimes(t *testing.T) {
	f := newFixture(t)
	body := createBody()
	body["packageType"] = "HALF_DAY"
	body["halfDayPeriod"] = "afternoon"
	delete(body, "startTime")
	delete(body, "endTime")
	rec := f.do(http.MethodPost, "/bookings/create", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := f.bookings.items[0]
	assert.Equal(t, model.PackageHalfDay, b.PackageType)
	assert.True(t, b.EndTime > b.StartTime)
}

func TestCreate_SchemaErrors(t *testing.T) {
	f := newFixture(t)
	body := createBody()
	delete(body, "email")
	delete(body, "startTime")
	rec := f.do(http.MethodPost, "/bookings/create", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, CodeValidation, out["error"])
	details := out["details"].(map[string]any)
	assert.Equal(t, "is required", details["email"])
	assert.Equal(t, "is required", details["startTime"])
	assert.Empty(t, f.bookings.items)
}

func TestCreate_BusinessRuleError(t *testing.T) {
	f := newFixture(t)
	body := createBody()
	body["attendance"] = 500
	rec := f.do(http.MethodPost, "/bookings/create", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, booking.CodeInvalidAttendance, out["error"])
	assert.Equal(t, "attendance", out["details"].(map[string]any)["field"])
}

func TestCreate_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	body := createBody()
	body["phone"] = "phone: none"
	rec := f.do(http.MethodPost, "/bookings/create", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, booking.CodeInvalidPhone, decode(t, rec)["error"])
}

func TestCreate_UnknownFacility(t *testing.T) {
	f := newFixture(t)
	body := createBody()
	body["facilityId"] = 99
	rec := f.do(http.MethodPost, "/bookings/create", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeFacilityNotFound, decode(t, rec)["error"])
}

func TestCreate_ConflictWithBooking(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("10:00", "12:00", model.StatusApproved)}
	rec := f.do(http.MethodPost, "/bookings/create", createBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, CodeSlotUnavailable, out["error"])
	details := out["details"].(map[string]any)
	assert.Equal(t, string(availability.ReasonExistingBooking), details["conflictReason"])
	assert.NotEmpty(t, details["alternatives"])
	assert.Empty(t, f.notify.created)
}

func TestCreate_RejectedBookingDoesNotConflict(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("10:00", "12:00", model.StatusRejected)}
	rec := f.do(http.MethodPost, "/bookings/create", createBody())
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreate_HeldByAnotherSession(t *testing.T) {
	f := newFixture(t)
	holdReq := map[string]any{
		"facilityId": 1, "packageType": "HOURLY", "startDate": "2024-03-05",
		"startTime": "10:00", "endTime": "11:00", "action": "hold", "sessionId": "s2",
	}
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/availability-check", holdReq).Code)

	rec := f.do(http.MethodPost, "/bookings/create", createBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	details := decode(t, rec)["details"].(map[string]any)
	assert.Equal(t, string(availability.ReasonTemporaryHold), details["conflictReason"])

	// the holder itself can book and its hold is released
	body := createBody()
	body["sessionId"] = "s2"
	rec = f.do(http.MethodPost, "/bookings/create", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, held := f.holds.Current(context.Background(), "s2", hall.ID)
	assert.False(t, held)
}

func TestCreate_RetriesDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	f.bookings.createErr = []error{repository.ErrConflict}
	rec := f.do(http.MethodPost, "/bookings/create", createBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "UTC-2024-0002", decode(t, rec)["bookingNumber"])

	f.bookings.createErr = []error{repository.ErrConflict, repository.ErrConflict, repository.ErrConflict}
	body := createBody()
	body["startTime"], body["endTime"] = "14:00", "16:00"
	rec = f.do(http.MethodPost, "/bookings/create", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeDuplicateBooking, decode(t, rec)["error"])
}

func TestCreate_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.bookings.listErr = fmt.Errorf("%w: dial tcp: refused", repository.ErrUpstream)
	rec := f.do(http.MethodPost, "/bookings/create", createBody())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, CodeUpstream, out["error"])
	assert.NotContains(t, out["message"], "refused")
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		w, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreate_Multipart(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, map[string]string{
		"name":        "Ana Silva",
		"email":       "ana@example.com",
		"phone":       "+351912345678",
		"eventName":   "Workshop",
		"facilityId":  "1",
		"packageType": "HOURLY",
		"startDate":   "2024-03-05",
		"startTime":   "09:00",
		"endTime":     "11:00",
		"attendance":  "20",
		"equipment":   "projector",
		"consumables": `[{"name":"water","quantity":2}]`,
	}, map[string]string{"letter.pdf": "%PDF-1.4"})

	req := httptest.NewRequest(http.MethodPost, "/bookings/create", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.EqualValues(t, 1, out["filesUploaded"])
	assert.Equal(t, []string{"letter.pdf"}, f.uploads.names)
	assert.Equal(t, []int64{1}, f.bookings.items[0].Attachments)
	assert.Equal(t, []model.Consumable{{Name: "water", Quantity: 2}}, f.bookings.items[0].Consumables)
}

func TestAvailability_HoldAndRelease(t *testing.T) {
	f := newFixture(t)
	req := map[string]any{
		"facilityId": 1, "packageType": "HOURLY", "startDate": "2024-03-05",
		"startTime": "09:00", "endTime": "10:00", "action": "hold", "sessionId": "s1",
	}
	rec := f.do(http.MethodPost, "/availability-check", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, true, out["available"])
	assert.Nil(t, out["conflictReason"])
	assert.NotEmpty(t, out["holdExpiry"])

	req["sessionId"], req["action"] = "s2", "check"
	out = decode(t, f.do(http.MethodPost, "/availability-check", req))
	assert.Equal(t, false, out["available"])
	assert.Equal(t, "temporary_hold", out["conflictReason"])

	req["action"] = "hold"
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/availability-check", req).Code)

	rel := map[string]any{"facilityId": 1, "action": "release", "sessionId": "s1"}
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/availability-check", rel).Code)

	req["action"] = "check"
	out = decode(t, f.do(http.MethodPost, "/availability-check", req))
	assert.Equal(t, true, out["available"])
}

func TestAvailability_HoldGeneratesSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/availability-check", map[string]any{
		"facilityId": 1, "packageType": "FULL_DAY", "startDate": "2024-03-05", "action": "hold",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["sessionId"])
}

func TestAvailability_BadInput(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/availability-check", map[string]any{"facilityId": 1, "action": "check"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/availability-check", map[string]any{
		"facilityId": 1, "packageType": "HOURLY", "startDate": "2024-03-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/availability-check", map[string]any{"facilityId": 1, "action": "release"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("09:00", "11:00", model.StatusApproved)}
	rec := f.do(http.MethodGet, "/facilities/availability?facilityId=1&month=3&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Len(t, out, 31)
	day := out["2024-03-05"].(map[string]any)
	assert.Equal(t, false, day["available"])
	assert.Equal(t, true, day["partiallyAvailable"])
	assert.Equal(t, []any{"09:00-11:00"}, day["bookedTimeSlots"])
	assert.Equal(t, true, out["2024-03-06"].(map[string]any)["available"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/facilities/availability?facilityId=1&month=13", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/facilities/availability?facilityId=9", nil).Code)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("09:00", "11:00", model.StatusPending)}

	rec := f.do(http.MethodGet, "/bookings/search?email=RUI@example.com&id=utc-2024-0007", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "UTC-2024-0007", decode(t, rec)["data"].(map[string]any)["bookingNumber"])

	rec = f.do(http.MethodGet, "/bookings/search?email=rui@example.com&id=7", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/bookings/search?email=someone@example.com&id=7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/bookings/search?id=7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadPaymentProof(t *testing.T) {
	f := newFixture(t)
	b := existing("09:00", "11:00", model.StatusAwaitingPayment)
	b.PaymentStatus = model.PaymentAwaitingPayment
	f.bookings.items = []model.Booking{b}

	body, ct := multipartBody(t, map[string]string{"email": "rui@example.com"}, map[string]string{"receipt.png": "png"})
	req := httptest.NewRequest(http.MethodPost, "/bookings/UTC-2024-0007/payment-proof", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := f.bookings.items[0]
	assert.Equal(t, model.StatusReviewPayment, got.Status)
	assert.Equal(t, model.PaymentReviewPayment, got.PaymentStatus)
	assert.Equal(t, []int64{1}, got.PaymentProof)

	// a second upload is no longer allowed
	body, ct = multipartBody(t, map[string]string{"email": "rui@example.com"}, map[string]string{"again.png": "png"})
	req = httptest.NewRequest(http.MethodPost, "/bookings/7/payment-proof", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPricingQuote(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/pricing/quote", map[string]any{
		"facilityId": 1, "packageType": "HOURLY", "startDate": "2024-03-05",
		"startTime": "09:00", "endTime": "14:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode(t, rec)["quote"].(map[string]any)
	assert.EqualValues(t, 250, quote["total"])

	rec = f.do(http.MethodPost, "/pricing/quote", map[string]any{
		"facilityId": 1, "packageType": "HOURLY", "startDate": "2024-03-05",
		"startTime": "09:00", "endTime": "10:00", "equipment": []string{"laser"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("09:00", "11:00", model.StatusPending)}

	rec := f.do(http.MethodPatch, "/admin/bookings/7/status", map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := f.bookings.items[0]
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, model.PaymentVerified, got.PaymentStatus)
	assert.Len(t, f.notify.status, 1)
	assert.Equal(t, 1, f.cache.purges)

	rec = f.do(http.MethodPatch, "/admin/bookings/7/status", map[string]any{"status": "REJECTED"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeInvalidTransition, decode(t, rec)["error"])

	rec = f.do(http.MethodPatch, "/admin/bookings/7/status", map[string]any{"status": "CANCELLED", "reason": "venue closed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "venue closed", f.bookings.items[0].StatusReason)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPatch, "/admin/bookings/8/status", map[string]any{"status": "APPROVED"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/admin/bookings/7/status", map[string]any{"status": "DONE"}).Code)
}

func TestAdmin_Reject(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("09:00", "11:00", model.StatusPending)}
	rec := f.do(http.MethodPatch, "/admin/bookings/7/status", map[string]any{"status": "REJECTED", "reason": "double booked"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := f.bookings.items[0]
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, "double booked", got.StatusReason)
}

func TestAdmin_Payment(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{existing("09:00", "11:00", model.StatusPending)}

	rec := f.do(http.MethodPatch, "/admin/bookings/7/payment", map[string]any{"paymentStatus": "PAID"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.PaymentPaid, f.bookings.items[0].PaymentStatus)
	assert.Equal(t, model.StatusPending, f.bookings.items[0].Status)
	assert.Len(t, f.notify.payment, 1)

	rec = f.do(http.MethodPatch, "/admin/bookings/7/payment", map[string]any{"paymentStatus": "UNPAID"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdmin_List(t *testing.T) {
	f := newFixture(t)
	f.bookings.items = []model.Booking{
		existing("09:00", "11:00", model.StatusPending),
		existing("12:00", "13:00", model.StatusApproved),
	}
	rec := f.do(http.MethodGet, "/admin/bookings?status=pending&pageSize=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Len(t, out["data"], 1)
	assert.EqualValues(t, 100, out["pagination"].(map[string]any)["pageSize"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/admin/bookings?page=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/admin/bookings?status=LOST", nil).Code)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/notifications/booking-status", map[string]any{
		"email": "rui@example.com", "name": "Rui", "bookingId": 7, "status": "rejected",
		"reason": "maintenance", "eventName": "Board meeting", "startDate": "2024-03-05",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, f.notify.sent, 1)
	n := f.notify.sent[0]
	assert.Equal(t, model.NotifyStatusChanged, n.Kind)
	assert.Equal(t, model.StatusRejected, n.Status)
	assert.Equal(t, model.MustParseDate("2024-03-05"), n.EndDate)

	rec = f.do(http.MethodPost, "/notifications/booking-status", map[string]any{
		"email": "rui@example.com", "name": "Rui", "bookingId": 7, "status": "AWAITING_PAYMENT",
		"eventName": "Board meeting", "startDate": "2024-03-05",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, model.NotifyPaymentReminder, f.notify.sent[1].Kind)

	rec = f.do(http.MethodPost, "/notifications/booking-created", map[string]any{
		"email": "rui@example.com", "name": "Rui", "bookingId": 7, "eventName": "Board meeting",
		"startDate": "2024-03-05", "bookingNumber": "UTC-2024-0007",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, model.NotifyBookingReceived, f.notify.sent[2].Kind)

	rec = f.do(http.MethodPost, "/notifications/booking-status", map[string]any{
		"email": "not-an-email", "name": "Rui", "bookingId": 7, "status": "APPROVED",
		"eventName": "x", "startDate": "2024-03-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.notify.sent, 3)
}

func TestRespondError_Internal(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, respondError(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), CodeInternal))
}
