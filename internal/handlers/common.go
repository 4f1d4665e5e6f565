package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/ahmedembaby/chat/internal/apperr"
)

// httpError translates a service error into an echo HTTP error carrying
// the machine-readable kind alongside the message.
func httpError(err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return he
	}
	return echo.NewHTTPError(apperr.HTTPStatus(err), echo.Map{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
}
