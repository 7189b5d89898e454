package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medpoint/clinic_auth/internal/audit"
	"github.com/medpoint/clinic_auth/internal/util"
)

// AuditSearcher serves the audit trail queries.
type AuditSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []audit.Entry, error)
}

type AuditHandler struct {
	Audit AuditSearcher
}

func (h *AuditHandler) Search(c echo.Context) error {
	if h.Audit == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit trail disabled")
	}

	q := c.QueryParam("q")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, entries, err := h.Audit.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "entries": entries})
}
