package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/medpoint/clinic_auth/internal/handlers"
	authmw "github.com/medpoint/clinic_auth/internal/middleware/auth"
	"github.com/medpoint/clinic_auth/internal/models"
)

type Deps struct {
	AuthHandler  *handlers.AuthHandler
	UserHandler  *handlers.UserHandler
	AuditHandler *handlers.AuditHandler
	Access       *authmw.Middleware
}

// Register wires every route. Protected routes declare their
// (resource, action) pair here; the middleware hands it to the guard.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	users := e.Group("/users")
	users.GET("/profile", d.UserHandler.Profile,
		d.Access.RequirePermission(models.ResourceUsers, models.ActionView))

	e.GET("/audit", d.AuditHandler.Search,
		d.Access.RequirePermission(models.ResourceReports, models.ActionView))
}
