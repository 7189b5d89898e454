package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medpoint/clinic_auth/internal/autherr"
)

// httpError maps the auth error taxonomy onto HTTP status codes. Anything
// outside the taxonomy is an opaque 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, autherr.ErrUnauthorized),
		errors.Is(err, autherr.ErrInvalidToken),
		errors.Is(err, autherr.ErrExpiredToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, autherr.ErrInactiveUser),
		errors.Is(err, autherr.ErrInvalidTokenType),
		errors.Is(err, autherr.ErrNotEnoughPermissions):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
