package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// inventoryHandler handles purchasing and stock queries.
type inventoryHandler struct {
	manager *session.Manager
}

func newInventoryHandler(manager *session.Manager) *inventoryHandler {
	return &inventoryHandler{manager: manager}
}

// registerInventoryRoutes registers the inventory routes.
func registerInventoryRoutes(rg *gin.RouterGroup, manager *session.Manager) {
	h := newInventoryHandler(manager)

	companies := rg.Group("/games/:gameID/companies/:companyID")
	{
		companies.POST("/purchases", h.purchaseInventory)
		companies.GET("/inventory", h.getInventory)
		companies.GET("/inventory/:productID/reorder", h.getReorder)
	}
}

// purchaseInventory buys stock for a company. A zero unit cost means the
// product's base cost.
func (h *inventoryHandler) purchaseInventory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}

	var req dto.PurchaseInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PurchaseInventory", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	unitCost := req.UnitCost
	if unitCost.IsZero() {
		products, err := sess.Services.Game.ListProducts(c.Request.Context())
		if err != nil {
			respondServiceError(c, err)
			return
		}
		for _, p := range products {
			if p.ProductID == req.ProductID {
				unitCost = p.BaseCost
				break
			}
		}
	}

	pos, err := sess.Services.Inventory.PurchaseInventory(c.Request.Context(), c.Param("companyID"), req.ProductID, req.Quantity, unitCost)
	if err != nil {
		logger.Warn("Failed to purchase inventory", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pos)
}

// getInventory lists a company's positions.
func (h *inventoryHandler) getInventory(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	positions, err := sess.Services.Inventory.GetInventory(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

// getReorder returns the demand forecast, safety stock and recommended
// reorder quantity for one product.
func (h *inventoryHandler) getReorder(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	companyID := c.Param("companyID")
	productID := c.Param("productID")

	forecast, err := sess.Services.Inventory.ForecastDemand(c.Request.Context(), companyID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	safety, err := sess.Services.Inventory.SafetyStock(c.Request.Context(), companyID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	reorder, err := sess.Services.Inventory.ReorderQuantity(c.Request.Context(), companyID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"forecast":        forecast,
		"safetyStock":     safety,
		"reorderQuantity": reorder,
	})
}
