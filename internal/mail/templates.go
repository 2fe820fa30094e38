package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/iliyamo/facility-reservation/internal/model"
)

const layout = `<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<p>Dear {{.N.Name}},</p>
{{template "body" .}}
<table style="border-collapse:collapse;margin:16px 0">
{{if .N.BookingNumber}}<tr><td style="padding:2px 12px 2px 0"><b>Booking number</b></td><td>{{.N.BookingNumber}}</td></tr>{{end}}
<tr><td style="padding:2px 12px 2px 0"><b>Event</b></td><td>{{.N.EventName}}</td></tr>
{{if .N.FacilityName}}<tr><td style="padding:2px 12px 2px 0"><b>Facility</b></td><td>{{.N.FacilityName}}</td></tr>{{end}}
<tr><td style="padding:2px 12px 2px 0"><b>Date</b></td><td>{{.N.StartDate}}{{if .MultiDay}} to {{.N.EndDate}}{{end}}</td></tr>
{{if .N.StartTime}}<tr><td style="padding:2px 12px 2px 0"><b>Time</b></td><td>{{.N.StartTime}} - {{.N.EndTime}}</td></tr>{{end}}
{{if .N.TotalPrice}}<tr><td style="padding:2px 12px 2px 0"><b>Total</b></td><td>{{.N.TotalPrice}}</td></tr>{{end}}
</table>
{{if .TrackURL}}<p>You can follow your booking at <a href="{{.TrackURL}}">{{.TrackURL}}</a>.</p>{{end}}
<p>Regards,<br>Facility Booking Service</p>
</body></html>`

var bodies = map[model.NotificationKind]string{
	model.NotifyBookingReceived: `<p>We have received your booking request. It is now waiting for review; we will e-mail you once it has been processed.</p>`,
	model.NotifyAdminNewBooking: `<p>A new booking request was submitted by {{.N.Name}} ({{.N.Email}}) and is waiting for review.</p>`,
	model.NotifyStatusChanged: `{{if eq .N.Status "APPROVED"}}<p>Good news: your booking has been <b>approved</b>.</p>
{{else if eq .N.Status "REJECTED"}}<p>We are sorry, your booking has been <b>rejected</b>.</p>{{if .N.Reason}}<p>Reason: {{.N.Reason}}</p>{{end}}
{{else if eq .N.Status "CANCELLED"}}<p>Your booking has been <b>cancelled</b>.</p>{{if .N.Reason}}<p>Reason: {{.N.Reason}}</p>{{end}}
{{else}}<p>The status of your booking is now <b>{{.N.Status}}</b>.</p>{{end}}`,
	model.NotifyPaymentReminder: `<p>Your booking is awaiting payment. Please upload your proof of payment so we can complete the review.</p>`,
	model.NotifyPaymentVerified: `<p>Your payment has been verified. Thank you.</p>`,
}

var subjects = map[model.NotificationKind]string{
	model.NotifyBookingReceived: "Booking request received",
	model.NotifyAdminNewBooking: "New booking request",
	model.NotifyStatusChanged:   "Booking status update",
	model.NotifyPaymentReminder: "Payment required for your booking",
	model.NotifyPaymentVerified: "Payment verified",
}

var templates = func() map[model.NotificationKind]*template.Template {
	out := make(map[model.NotificationKind]*template.Template, len(bodies))
	for kind, body := range bodies {
		t := template.Must(template.New(string(kind)).Parse(layout))
		template.Must(t.New("body").Parse(body))
		out[kind] = t
	}
	return out
}()

type view struct {
	N        model.Notification
	MultiDay bool
	TrackURL string
}

// Render returns the subject and HTML body of n.
func Render(n model.Notification, publicBaseURL string) (subject, html string, err error) {
	t, ok := templates[n.Kind]
	if !ok {
		return "", "", fmt.Errorf("mail: no template for %q", n.Kind)
	}
	v := view{N: n, MultiDay: !n.EndDate.IsZero() && !n.EndDate.Equal(n.StartDate)}
	if publicBaseURL != "" && n.BookingNumber != "" {
		v.TrackURL = publicBaseURL + "/bookings/search?id=" + n.BookingNumber
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", "", fmt.Errorf("mail: render %s: %w", n.Kind, err)
	}
	subject = subjects[n.Kind]
	if n.BookingNumber != "" {
		subject += " - " + n.BookingNumber
	}
	return subject, buf.String(), nil
}
