// Package router registers the HTTP routes of the reservation API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-reservation/internal/handler"
	"github.com/iliyamo/facility-reservation/internal/metrics"
	"github.com/iliyamo/facility-reservation/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: the health check
// used by load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// Public groups the handlers behind the unauthenticated booking flow.
type Public struct {
	Availability *handler.AvailabilityHandler
	Bookings     *handler.BookingHandler
	Pricing      *handler.PricingHandler
}

// RegisterPublic registers the applicant-facing endpoints.  limit guards
// the endpoints that write holds or bookings; cache serves the monthly
// calendar and may be nil.
func RegisterPublic(e *echo.Echo, p Public, limit echo.MiddlewareFunc, cache *middleware.ResponseCache) {
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	e.POST("/availability-check", p.Availability.Check, limit)
	e.GET("/facilities/availability", p.Availability.Calendar, cache.Middleware())

	e.POST("/bookings/create", p.Bookings.Create, limit)
	e.GET("/bookings/search", p.Bookings.Search)
	e.POST("/bookings/:id/payment-proof", p.Bookings.UploadPaymentProof, limit)

	e.POST("/pricing/quote", p.Pricing.Quote)
}
