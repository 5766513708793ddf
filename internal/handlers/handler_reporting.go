package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// reportingHandler handles financial statement requests.
type reportingHandler struct {
	manager *session.Manager
}

func newReportingHandler(manager *session.Manager) *reportingHandler {
	return &reportingHandler{manager: manager}
}

// registerReportingRoutes registers the reporting routes.
func registerReportingRoutes(rg *gin.RouterGroup, manager *session.Manager) {
	h := newReportingHandler(manager)

	reports := rg.Group("/games/:gameID/companies/:companyID/reports")
	{
		reports.GET("/balance-sheet", h.getBalanceSheet)
		reports.GET("/income-statement", h.getIncomeStatement)
		reports.GET("/metrics", h.getKeyMetrics)
		reports.GET("/snapshots", h.getSnapshots)
	}
}

func (h *reportingHandler) getBalanceSheet(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	sheet, err := sess.Services.Reporting.BalanceSheet(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (h *reportingHandler) getIncomeStatement(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	stmt, err := sess.Services.Reporting.IncomeStatement(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stmt)
}

func (h *reportingHandler) getKeyMetrics(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	metrics, err := sess.Services.Reporting.KeyMetrics(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *reportingHandler) getSnapshots(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	snapshots, err := sess.Services.Reporting.Snapshots(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}
