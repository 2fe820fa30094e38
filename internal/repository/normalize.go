package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// attrs is the flattened field map of one CMS entity.
type attrs map[string]json.RawMessage

// flatten accepts both entity shapes the CMS produces, nested
// {"id": 1, "attributes": {...}} and flat {"id": 1, ...}, and returns a
// single field map that includes the id.
func flatten(raw json.RawMessage) (attrs, error) {
	var m attrs
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("empty entity")
	}
	nested, ok := m["attributes"]
	if !ok {
		return m, nil
	}
	var a attrs
	if err := json.Unmarshal(nested, &a); err != nil {
		return nil, err
	}
	if a == nil {
		a = attrs{}
	}
	a["id"] = m["id"]
	return a, nil
}

func (a attrs) str(keys ...string) string {
	for _, k := range keys {
		raw, ok := a[k]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// num reads a number that the CMS may send either as a JSON number or as
// a decimal string.
func (a attrs) num(keys ...string) float64 {
	for _, k := range keys {
		if v, ok := parseNumber(a[k]); ok {
			return v
		}
	}
	return 0
}

func (a attrs) integer(keys ...string) int64 {
	return int64(a.num(keys...))
}

func (a attrs) boolean(keys ...string) bool {
	for _, k := range keys {
		var b bool
		if raw, ok := a[k]; ok && json.Unmarshal(raw, &b) == nil {
			return b
		}
	}
	return false
}

func (a attrs) money(keys ...string) model.Money {
	return model.FromFloat(a.num(keys...))
}

func (a attrs) date(keys ...string) model.Date {
	s := a.str(keys...)
	if s == "" {
		return model.Date{}
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}
	}
	return d
}

func (a attrs) clock(keys ...string) model.ClockTime {
	s := a.str(keys...)
	if s == "" {
		return 0
	}
	c, err := model.ParseClockTime(s)
	if err != nil {
		return 0
	}
	return c
}

func (a attrs) timestamp(keys ...string) time.Time {
	s := a.str(keys...)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, true
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// relationID reads a to-one relation given as a bare id, {"id": n} or
// {"data": {"id": n}}.
func relationID(raw json.RawMessage) int64 {
	if v, ok := parseNumber(raw); ok {
		return int64(v)
	}
	var obj struct {
		ID   *int64          `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(raw, &obj) != nil {
		return 0
	}
	if obj.ID != nil {
		return *obj.ID
	}
	if len(obj.Data) > 0 {
		return relationID(obj.Data)
	}
	return 0
}

// relationIDs reads a to-many relation or media field given as [ids],
// [{"id": n}] or {"data": [...]}.
func relationIDs(raw json.RawMessage) []int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) != nil {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if json.Unmarshal(raw, &wrapped) != nil {
			return nil
		}
		return relationIDs(wrapped.Data)
	}
	var ids []int64
	for _, item := range list {
		if id := relationID(item); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func normalizeFacility(raw json.RawMessage) (model.Facility, error) {
	a, err := flatten(raw)
	if err != nil {
		return model.Facility{}, fmt.Errorf("%w: decode facility: %v", ErrUpstream, err)
	}
	f := model.Facility{
		ID:                a.integer("id"),
		Name:              a.str("name", "title"),
		Kind:              facilityKind(a.str("facilityType", "type", "category")),
		Capacity:          int(a.integer("capacity")),
		RequireAdvanceDay: a.boolean("requireAdvanceBooking", "requireAdvanceDay"),
	}

	day, night := a.money("dayRate"), a.money("nightRate")
	if day > 0 || night > 0 {
		f.Rates = model.NewDayNightRateCard(day, night)
		f.Kind = model.FacilitySport
	} else {
		f.Rates = model.NewFlatRateCard(a.money("hourlyRate"), a.money("halfDayRate"), a.money("fullDayRate"))
	}
	f.EquipmentRates = equipmentRates(a["equipment"])
	if f.EquipmentRates == nil {
		f.EquipmentRates = equipmentRates(a["equipmentRates"])
	}
	return f, nil
}

func facilityKind(s string) model.FacilityKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SPORT", "SPORTS":
		return model.FacilitySport
	case "HALL":
		return model.FacilityHall
	default:
		return model.FacilityRoom
	}
}

// equipmentRates reads either a list of {name, dailyRate} components or
// a plain name-to-rate object.
func equipmentRates(raw json.RawMessage) map[string]model.Money {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		out := make(map[string]model.Money, len(list))
		for _, item := range list {
			a, err := flatten(item)
			if err != nil {
				continue
			}
			if name := a.str("name"); name != "" {
				out[name] = a.money("dailyRate", "rate", "price")
			}
		}
		return out
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	out := make(map[string]model.Money, len(obj))
	for name, v := range obj {
		if f, ok := parseNumber(v); ok {
			out[name] = model.FromFloat(f)
		}
	}
	return out
}

func normalizeBooking(raw json.RawMessage) (model.Booking, error) {
	a, err := flatten(raw)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: decode booking: %v", ErrUpstream, err)
	}
	b := model.Booking{
		ID:            a.integer("id"),
		BookingNumber: a.str("bookingNumber"),
		ApplicantName: a.str("name", "applicantName"),
		Department:    a.str("department"),
		Address:       a.str("address"),
		Email:         a.str("email"),
		Phone:         a.str("phone"),
		Purpose:       a.str("purpose"),
		EventName:     a.str("eventName"),
		FacilityID:    relationID(a["facility"]),
		StartDate:     a.date("startDate"),
		EndDate:       a.date("endDate"),
		StartTime:     a.clock("startTime"),
		EndTime:       a.clock("endTime"),
		PackageType:   model.PackageType(a.str("packageType")),
		Attendance:    int(a.integer("attendance", "attendees")),
		Status:        model.BookingStatus(a.str("bookingStatus")),
		PaymentStatus: model.PaymentStatus(a.str("paymentStatus")),
		TotalPrice:    a.money("totalPrice"),
		SessionID:     a.str("sessionId"),
		StatusReason:  a.str("statusReason"),
		Attachments:   relationIDs(a["attachments"]),
		PaymentProof:  relationIDs(a["paymentProof"]),
		CreatedAt:     a.timestamp("createdAt"),
		UpdatedAt:     a.timestamp("updatedAt"),
	}
	if b.FacilityID == 0 {
		b.FacilityID = a.integer("facilityId")
	}
	if b.EndDate.IsZero() {
		b.EndDate = b.StartDate
	}
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentUnpaid
	}
	if raw, ok := a["equipment"]; ok {
		_ = json.Unmarshal(raw, &b.Equipment)
	}
	if raw, ok := a["consumables"]; ok {
		_ = json.Unmarshal(raw, &b.Consumables)
	}
	return b, nil
}

// cmsTime renders a clock time in the CMS format.  The CMS time field
// cannot hold 24:00, so the end of the day is written as 23:59.
func cmsTime(c model.ClockTime) string {
	if c >= model.EndOfDay {
		c = model.Clock(23, 59)
	}
	return c.String()
}

// bookingPayload is the write shape of a booking.
func bookingPayload(b model.Booking) map[string]any {
	p := map[string]any{
		"bookingNumber": b.BookingNumber,
		"name":          b.ApplicantName,
		"department":    b.Department,
		"address":       b.Address,
		"email":         b.Email,
		"phone":         b.Phone,
		"purpose":       b.Purpose,
		"eventName":     b.EventName,
		"facility":      b.FacilityID,
		"startDate":     b.StartDate.String(),
		"endDate":       b.EndDate.String(),
		"startTime":     cmsTime(b.StartTime),
		"endTime":       cmsTime(b.EndTime),
		"packageType":   string(b.PackageType),
		"attendance":    b.Attendance,
		"bookingStatus": string(b.Status),
		"paymentStatus": string(b.PaymentStatus),
		"totalPrice":    b.TotalPrice.Float(),
		"sessionId":     b.SessionID,
	}
	if len(b.Equipment) > 0 {
		p["equipment"] = b.Equipment
	}
	if len(b.Consumables) > 0 {
		p["consumables"] = b.Consumables
	}
	if len(b.Attachments) > 0 {
		p["attachments"] = b.Attachments
	}
	return p
}
