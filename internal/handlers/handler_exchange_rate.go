package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	rateService portssvc.RateSvcFacade
}

func newExchangeRateHandler(rateService portssvc.RateSvcFacade) *exchangeRateHandler {
	return &exchangeRateHandler{rateService: rateService}
}

func (h *exchangeRateHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if len(from) != 3 || len(to) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be 3-letter currency codes"})
		return
	}

	rate, err := h.rateService.GetRate(c.Request.Context(), from, to)
	if err != nil {
		logger.Warn("Failed to resolve exchange rate",
			slog.String("from", from),
			slog.String("to", to),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "rate": rate})
}

func (h *exchangeRateHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.ConvertQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Error("Failed to bind query for convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversion query"})
		return
	}

	conversion, err := h.rateService.Convert(c.Request.Context(), query.Amount, query.From, query.To)
	if err != nil {
		logger.Warn("Failed to convert amount",
			slog.String("from", query.From),
			slog.String("to", query.To),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversion)
}

// registerExchangeRateRoutes registers exchange rate specific routes.
func registerExchangeRateRoutes(group *gin.RouterGroup, rateService portssvc.RateSvcFacade) {
	h := newExchangeRateHandler(rateService)

	rates := group.Group("/exchange-rates")
	{
		rates.GET("", h.getRate)
		rates.GET("/convert", h.convert)
	}
}
