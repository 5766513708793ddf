package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// marketHandler handles pricing and market condition requests.
type marketHandler struct {
	manager *session.Manager
}

func newMarketHandler(manager *session.Manager) *marketHandler {
	return &marketHandler{manager: manager}
}

// registerMarketRoutes registers the pricing and market routes.
func registerMarketRoutes(rg *gin.RouterGroup, manager *session.Manager) {
	h := newMarketHandler(manager)

	rg.PUT("/games/:gameID/companies/:companyID/prices", h.setPrice)
	rg.GET("/games/:gameID/companies/:companyID/prices", h.listPrices)
	rg.GET("/games/:gameID/conditions", h.listConditions)
}

// setPrice updates a company's offer price for one product.
func (h *marketHandler) setPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}

	var req dto.SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SetPrice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ps, err := sess.Services.Market.SetPrice(c.Request.Context(), c.Param("companyID"), req.ProductID, req.Price)
	if err != nil {
		logger.Warn("Failed to set price", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

// listPrices returns a company's standing offers in product order.
func (h *marketHandler) listPrices(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	prices, err := sess.Services.Market.ListPrices(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

// listConditions lists the market conditions currently in effect.
func (h *marketHandler) listConditions(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	conditions, err := sess.Services.Market.ActiveConditions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conditions)
}
