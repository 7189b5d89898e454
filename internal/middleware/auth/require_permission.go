package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medpoint/clinic_auth/internal/audit"
	"github.com/medpoint/clinic_auth/internal/autherr"
	"github.com/medpoint/clinic_auth/internal/logging"
	"github.com/medpoint/clinic_auth/internal/models"
	"github.com/medpoint/clinic_auth/internal/tokens"
)

// Guard answers whether any of the roles may perform action on resource.
type Guard interface {
	Check(ctx context.Context, roles []string, resource models.Resource, action models.Action) (bool, error)
}

// AuditRecorder writes authorization denials to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Middleware protects routes with a bearer access token and an RBAC check.
// Audit is optional; when set, every denial is recorded.
type Middleware struct {
	Codec *tokens.Codec
	Guard Guard
	Audit AuditRecorder
}

// RequirePermission decodes the bearer access token, then asks the guard
// whether the token's roles allow (resource, action). On admit the subject
// id and roles are placed into the echo context for the handler.
func (m *Middleware) RequirePermission(resource models.Resource, action models.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			raw, err := bearerToken(c)
			if err != nil {
				return statusError(err)
			}

			payload, err := m.Codec.Decode(raw)
			if err != nil {
				return statusError(err)
			}
			if err := payload.RequireKind(tokens.KindAccess); err != nil {
				return statusError(err)
			}

			ok, err := m.Guard.Check(ctx, payload.Roles, resource, action)
			if err != nil {
				logging.FromContext(ctx).Error("permission_check_failed", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if !ok {
				logging.FromContext(ctx).Warn("permission_denied",
					"roles", payload.Roles, "resource", resource, "action", action)
				if m.Audit != nil {
					m.Audit.Record(ctx, audit.Entry{
						Event:   "rbac",
						UserID:  payload.Subject,
						Outcome: "denied",
						Detail:  fmt.Sprintf("%s.%s", resource, action),
					})
				}
				return statusError(autherr.ErrNotEnoughPermissions)
			}

			c.Set("userID", payload.Subject)
			c.Set("roles", payload.Roles)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", autherr.ErrUnauthorized
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", autherr.ErrUnauthorized
	}
	return strings.TrimPrefix(header, prefix), nil
}

func statusError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, autherr.ErrInactiveUser),
		errors.Is(err, autherr.ErrInvalidTokenType),
		errors.Is(err, autherr.ErrNotEnoughPermissions):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
}
