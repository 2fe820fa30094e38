package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// NotificationHandler lets the CMS (or an operator) trigger booking
// e-mails.  Delivery happens after the response; the endpoints answer
// 202 once the notification is accepted.
type NotificationHandler struct {
	Notify Notifier
}

func NewNotificationHandler(n Notifier) *NotificationHandler {
	if n == nil {
		panic("nil notifier passed to NewNotificationHandler")
	}
	return &NotificationHandler{Notify: n}
}

type notificationRequest struct {
	Email         string      `json:"email" validate:"required,email"`
	Name          string      `json:"name" validate:"required,max=200"`
	BookingID     int64       `json:"bookingId" validate:"required,gt=0"`
	BookingNumber string      `json:"bookingNumber" validate:"max=32"`
	Status        string      `json:"status"`
	Reason        string      `json:"reason" validate:"max=1000"`
	EventName     string      `json:"eventName" validate:"required,max=200"`
	FacilityName  string      `json:"facilityName" validate:"max=200"`
	StartDate     string      `json:"startDate" validate:"required"`
	EndDate       string      `json:"endDate"`
	StartTime     string      `json:"startTime"`
	EndTime       string      `json:"endTime"`
	TotalPrice    model.Money `json:"totalPrice"`
}

func (r notificationRequest) notification(kind model.NotificationKind) (model.Notification, error) {
	start, err := model.ParseDate(r.StartDate)
	if err != nil {
		return model.Notification{}, fieldError("startDate", "must be YYYY-MM-DD")
	}
	end := start
	if r.EndDate != "" {
		if end, err = model.ParseDate(r.EndDate); err != nil {
			return model.Notification{}, fieldError("endDate", "must be YYYY-MM-DD")
		}
	}
	return model.Notification{
		Kind:          kind,
		Email:         r.Email,
		Name:          r.Name,
		BookingID:     r.BookingID,
		BookingNumber: r.BookingNumber,
		Status:        model.BookingStatus(strings.ToUpper(r.Status)),
		Reason:        r.Reason,
		EventName:     r.EventName,
		FacilityName:  r.FacilityName,
		StartDate:     start,
		EndDate:       end,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalPrice:    r.TotalPrice,
		OccurredAt:    time.Now().UTC(),
	}, nil
}

func (h *NotificationHandler) accept(c echo.Context, kind model.NotificationKind, needStatus bool) error {
	var req notificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	n, err := req.notification(kind)
	if err != nil {
		return respondError(c, err)
	}
	if needStatus && !n.Status.Valid() {
		return badRequest(c, "unknown status", echo.Map{"status": "is not a booking status"})
	}
	if n.Status == model.StatusAwaitingPayment && kind == model.NotifyStatusChanged {
		n.Kind = model.NotifyPaymentReminder
	}
	h.Notify.Send(c.Request().Context(), n)
	return c.JSON(http.StatusAccepted, echo.Map{"success": true, "kind": n.Kind})
}

// BookingStatus handles POST /notifications/booking-status.
func (h *NotificationHandler) BookingStatus(c echo.Context) error {
	return h.accept(c, model.NotifyStatusChanged, true)
}

// BookingCreated handles POST /notifications/booking-created.
func (h *NotificationHandler) BookingCreated(c echo.Context) error {
	return h.accept(c, model.NotifyBookingReceived, false)
}
