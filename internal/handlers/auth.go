package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medpoint/clinic_auth/internal/autherr"
	"github.com/medpoint/clinic_auth/internal/logging"
	"github.com/medpoint/clinic_auth/internal/service"
	"github.com/medpoint/clinic_auth/internal/tokens"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	Auth  *service.AuthService
	Codec *tokens.Codec
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password required")
	}

	if err := h.Auth.Register(ctx, req.Username, req.Password); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	refreshExp := time.Now().Add(h.Codec.RefreshTTL())
	c.SetCookie(CreateCookie(refreshCookieName, pair.RefreshToken, "/", refreshExp))

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return httpError(autherr.ErrUnauthorized)
	}

	if err := h.Auth.Logout(ctx, cookie.Value); err != nil {
		return httpError(err)
	}

	c.SetCookie(DeleteCookie(refreshCookieName, "/"))
	return c.JSON(http.StatusOK, echo.Map{"status": "OK"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return httpError(autherr.ErrUnauthorized)
	}

	payload, err := h.Codec.Decode(cookie.Value)
	if err != nil {
		return httpError(err)
	}

	accessToken, err := h.Auth.Refresh(ctx, payload)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
}
