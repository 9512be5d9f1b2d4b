package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"commerce-service/internal/entity"
)

type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]entity.AuditRecord, error)
}

type AuditHandler struct {
	auditLog AuditLog
}

func NewAuditHandler(auditLog AuditLog) *AuditHandler {
	return &AuditHandler{auditLog: auditLog}
}

// ListRecent --> GET /audit-logs?limit=50
func (h *AuditHandler) ListRecent(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
		}
		limit = n
	}
	records, err := h.auditLog.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	if records == nil {
		records = []entity.AuditRecord{}
	}
	return c.JSON(http.StatusOK, records)
}
