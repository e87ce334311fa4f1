package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/core/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journals.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: journalService}
}

func (h *journalHandler) createJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	journal, err := h.journalService.CreateJournal(c.Request.Context(), req)
	if err != nil {
		respondJournalError(c, logger, err, "Failed to create journal")
		return
	}

	logger.Info("Journal created", slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) getJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, err := h.journalService.GetJournalByID(c.Request.Context(), journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
			return
		}
		logger.Error("Failed to get journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve journal"})
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

func (h *journalHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListJournalsParams{}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		params.Limit = limit
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	page, err := h.journalService.ListJournals(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list journals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list journals"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *journalHandler) updateJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.UpdateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	journal, err := h.journalService.UpdateJournal(c.Request.Context(), journalID, req)
	if err != nil {
		respondJournalError(c, logger, err, "Failed to update journal")
		return
	}

	logger.Info("Journal updated", slog.String("journal_id", journalID))
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

func (h *journalHandler) deleteJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	if err := h.journalService.DeleteJournal(c.Request.Context(), journalID); err != nil {
		logger.Error("Failed to delete journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete journal"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *journalHandler) duplicateJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, err := h.journalService.DuplicateJournal(c.Request.Context(), journalID)
	if err != nil {
		respondJournalError(c, logger, err, "Failed to duplicate journal")
		return
	}

	logger.Info("Journal duplicated",
		slog.String("source_journal_id", journalID),
		slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.ReverseJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for reverseJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	reversal, err := h.journalService.ReverseJournal(c.Request.Context(), journalID, req.Reason)
	if err != nil {
		respondJournalError(c, logger, err, "Failed to reverse journal")
		return
	}

	logger.Info("Journal reversed",
		slog.String("journal_id", journalID),
		slog.String("reversal_journal_id", reversal.JournalID))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(reversal))
}

// respondJournalError maps journal pipeline errors onto HTTP statuses.
func respondJournalError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyReversed),
		errors.Is(err, services.ErrReversalOfReversal),
		errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrJournalUnbalanced),
		errors.Is(err, services.ErrJournalMinEntries),
		errors.Is(err, services.ErrJournalMinAccounts),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrRateRequired),
		errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Journal validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// registerJournalRoutes registers journal specific routes.
func registerJournalRoutes(group *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journals := group.Group("/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.GET("/:journalID", h.getJournal)
		journals.PUT("/:journalID", h.updateJournal)
		journals.DELETE("/:journalID", h.deleteJournal)
		journals.POST("/:journalID/duplicate", h.duplicateJournal)
		journals.POST("/:journalID/reverse", h.reverseJournal)
	}
}
