package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	tokenKey = "admin_token"
	roleKey  = "role"
)

// AdminAuth validates an HS256 bearer token signed with secret and stores
// the token and its role claim in the context.  With an empty secret the
// admin routes are open, which is only meant for local development.
func AdminAuth(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(roleKey, "admin")
				return next(c)
			}
		}
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "missing bearer token"})
			}
			tok, err := parser.Parse(strings.TrimPrefix(auth, "Bearer "), func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				log.Ctx(c.Request().Context()).Warn().Err(err).Msg("admin token rejected")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "invalid claims"})
			}
			c.Set(tokenKey, tok)
			c.Set(roleKey, claims["role"])
			return next(c)
		}
	}
}
