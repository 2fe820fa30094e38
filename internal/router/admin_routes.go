package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-reservation/internal/handler"
	"github.com/iliyamo/facility-reservation/internal/middleware"
)

// RoleAdmin is the role claim required on /admin and /notifications.
const RoleAdmin = "admin"

// RegisterAdmin registers the back-office endpoints.  Both groups need an
// admin token when jwtSecret is set; the notification endpoints are
// called by the CMS with such a token.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/admin",
		middleware.AdminAuth(jwtSecret),
		middleware.RequireRole(RoleAdmin),
	)
	g.GET("/bookings", a.List)
	g.PATCH("/bookings/:id/status", a.UpdateStatus)
	g.PATCH("/bookings/:id/payment", a.UpdatePayment)

	notify := e.Group(
		"/notifications",
		middleware.AdminAuth(jwtSecret),
		middleware.RequireRole(RoleAdmin),
	)
	notify.POST("/booking-status", n.BookingStatus)
	notify.POST("/booking-created", n.BookingCreated)
}
