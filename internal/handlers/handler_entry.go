package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// entryHandler handles the guided entry forms that sit in front of the
// journal pipeline.
type entryHandler struct {
	entryService portssvc.EntrySvcFacade
	prefs        dto.EntryPreferences
}

func newEntryHandler(entryService portssvc.EntrySvcFacade, prefs dto.EntryPreferences) *entryHandler {
	return &entryHandler{entryService: entryService, prefs: prefs}
}

func (h *entryHandler) createSimpleEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SimpleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createSimpleEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.entryService.CreateSimpleEntry(c.Request.Context(), req, h.prefs)
	respondEntryResult(c, logger, result)
}

func (h *entryHandler) createMultiLineEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.MultiLineEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createMultiLineEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.entryService.CreateMultiLineEntry(c.Request.Context(), req)
	respondEntryResult(c, logger, result)
}

func (h *entryHandler) updateMultiLineEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.MultiLineEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateMultiLineEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.entryService.UpdateMultiLineEntry(c.Request.Context(), journalID, req)
	respondEntryResult(c, logger, result)
}

// respondEntryResult writes an EntryResult as-is. Builders report failures in
// the result body so forms can show the reason inline.
func respondEntryResult(c *gin.Context, logger *slog.Logger, result dto.EntryResult) {
	if !result.Success {
		logger.Warn("Entry rejected", slog.String("reason", result.Error))
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	logger.Info("Entry recorded", slog.String("journal_id", result.JournalID))
	c.JSON(http.StatusCreated, result)
}

// registerEntryRoutes registers the guided entry routes.
func registerEntryRoutes(group *gin.RouterGroup, entryService portssvc.EntrySvcFacade, prefs dto.EntryPreferences) {
	h := newEntryHandler(entryService, prefs)

	entries := group.Group("/entries")
	{
		entries.POST("/simple", h.createSimpleEntry)
		entries.POST("/multiline", h.createMultiLineEntry)
		entries.PUT("/multiline/:journalID", h.updateMultiLineEntry)
	}
}
