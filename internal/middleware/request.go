package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/metrics"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns every request an id, echoes it in the response and
// attaches a logger carrying it to the request context.  An incoming
// X-Request-ID is kept so ids can be correlated across services.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			logger := log.With().Str("request_id", id).Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))
			c.Set("request_id", id)
			c.Response().Header().Set(HeaderRequestID, id)
			return next(c)
		}
	}
}

// AccessLog writes one log line per request and records it in m (which
// may be nil).  Handler errors are rendered here so the logged status is
// the one the client sees.
func AccessLog(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			m.ObserveHTTP(c.Request().Method, route, strconv.Itoa(status), elapsed)

			ev := log.Ctx(c.Request().Context()).Info()
			if status >= http.StatusInternalServerError {
				ev = log.Ctx(c.Request().Context()).Error()
			}
			ev.Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("route", route).
				Int("status", status).
				Int64("bytes", c.Response().Size).
				Dur("duration", elapsed).
				Str("ip", c.RealIP()).
				Msg("request completed")
			return nil
		}
	}
}

// Recover turns a panic into a 500 with the standard error body.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				log.Ctx(c.Request().Context()).Error().
					Str("panic", fmt.Sprint(r)).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")
				err = c.JSON(http.StatusInternalServerError, echo.Map{
					"error":   "INTERNAL_ERROR",
					"message": "internal server error",
				})
			}()
			return next(c)
		}
	}
}
