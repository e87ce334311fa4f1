package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/core/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts and their
// derived balances.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	balanceService portssvc.BalanceSvcFacade
}

func newAccountHandler(accountService portssvc.AccountSvcFacade, balanceService portssvc.BalanceSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: accountService,
		balanceService: balanceService,
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		respondAccountError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve account"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list accounts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": dto.ToAccountResponses(accounts)})
}

func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), accountID, req)
	if err != nil {
		respondAccountError(c, logger, err, "Failed to update account")
		return
	}

	logger.Info("Account updated", slog.String("account_id", accountID))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) deleteAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	if err := h.accountService.DeleteAccount(c.Request.Context(), accountID); err != nil {
		respondAccountError(c, logger, err, "Failed to delete account")
		return
	}

	logger.Info("Account deleted", slog.String("account_id", accountID))
	c.Status(http.StatusNoContent)
}

func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	balance, err := h.balanceService.GetAccountBalance(c.Request.Context(), accountID, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to compute account balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance"})
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (h *accountHandler) getBalanceTree(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	balances, err := h.balanceService.GetBalanceTree(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to compute balance tree", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balances"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances, "asOfDate": asOf})
}

// parseAsOf reads the optional asOf query parameter, defaulting to now.
func parseAsOf(c *gin.Context) (time.Time, bool) {
	asOfStr := c.Query("asOf")
	if asOfStr == "" {
		return time.Now(), true
	}
	asOf, err := time.Parse(time.RFC3339, asOfStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected RFC3339"})
		return time.Time{}, false
	}
	return asOf, true
}

func respondAccountError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAccountInUse),
		errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAccountTypeMismatch),
		errors.Is(err, services.ErrAccountCycle),
		errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Account validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// registerAccountRoutes registers account specific routes.
func registerAccountRoutes(group *gin.RouterGroup, accountService portssvc.AccountSvcFacade, balanceService portssvc.BalanceSvcFacade) {
	h := newAccountHandler(accountService, balanceService)

	accounts := group.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/balances", h.getBalanceTree)
		accounts.GET("/:accountID", h.getAccount)
		accounts.PUT("/:accountID", h.updateAccount)
		accounts.DELETE("/:accountID", h.deleteAccount)
		accounts.GET("/:accountID/balance", h.getAccountBalance)
	}
}
