package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// auditHandler exposes the audit trail of an entity.
type auditHandler struct {
	auditService portssvc.AuditSvcFacade
}

func newAuditHandler(auditService portssvc.AuditSvcFacade) *auditHandler {
	return &auditHandler{auditService: auditService}
}

func (h *auditHandler) listAuditEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityType := c.Param("entityType")
	entityID := c.Param("entityID")

	entries, err := h.auditService.Find(c.Request.Context(), entityType, entityID)
	if err != nil {
		logger.Error("Failed to list audit entries",
			slog.String("error", err.Error()),
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// registerAuditRoutes registers audit trail routes.
func registerAuditRoutes(group *gin.RouterGroup, auditService portssvc.AuditSvcFacade) {
	h := newAuditHandler(auditService)

	group.GET("/audit/:entityType/:entityID", h.listAuditEntries)
}
