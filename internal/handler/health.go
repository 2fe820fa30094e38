package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports that the process is up.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
