package apperr

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Respond writes err as {"error", "kind"} with the status Status picks.
// Unclassified errors are logged and answered with a generic message.
func Respond(c echo.Context, err error) error {
	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal error", "kind": "internal"})
	}
	return c.JSON(status, echo.Map{"error": err.Error(), "kind": KindOf(err)})
}
