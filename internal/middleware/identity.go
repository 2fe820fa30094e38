package middleware

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// HeaderSessionID lets clients identify their browser session to the
// rate limiter.  The booking endpoints also read it when the body has no
// sessionId.
const HeaderSessionID = "X-Session-ID"

// sessionID returns the caller's session id or "anon".
func sessionID(c echo.Context) string {
	if v := c.Request().Header.Get(HeaderSessionID); v != "" && len(v) <= 128 {
		return v
	}
	return "anon"
}

// AdminSubject returns the subject of the admin token stored by
// AdminAuth, or "" for unauthenticated requests.
func AdminSubject(c echo.Context) string {
	tok, ok := c.Get(tokenKey).(*jwt.Token)
	if !ok {
		return ""
	}
	sub, _ := tok.Claims.GetSubject()
	return sub
}
