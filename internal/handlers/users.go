package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medpoint/clinic_auth/internal/autherr"
	"github.com/medpoint/clinic_auth/internal/service"
)

type UserHandler struct {
	Auth *service.AuthService
}

// Profile returns the authenticated user's own record. The subject id is
// set into context by the permission middleware.
func (h *UserHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()

	subject, _ := c.Get("userID").(string)
	id, err := uuid.Parse(subject)
	if err != nil {
		return httpError(autherr.ErrUnauthorized)
	}

	profile, err := h.Auth.UserInfo(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}
