package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// ledgerHandler handles bookkeeping requests for one company.
type ledgerHandler struct {
	manager *session.Manager
}

func newLedgerHandler(manager *session.Manager) *ledgerHandler {
	return &ledgerHandler{manager: manager}
}

// registerLedgerRoutes registers the bookkeeping routes.
func registerLedgerRoutes(rg *gin.RouterGroup, manager *session.Manager) {
	h := newLedgerHandler(manager)

	companies := rg.Group("/games/:gameID/companies/:companyID")
	{
		companies.POST("/transactions", h.postTransaction)
		companies.GET("/transactions", h.listTransactions)
		companies.GET("/trial-balance", h.getTrialBalance)
		companies.GET("/accounts/:code", h.getAccount)
	}
}

// postTransaction posts a balanced transaction to a company's books.
func (h *ledgerHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}

	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := sess.Services.Ledger.PostTransaction(c.Request.Context(), c.Param("companyID"), req.Date, req.Description, req.Entries)
	if err != nil {
		logger.Warn("Failed to post transaction", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listTransactions returns the company's committed transactions, oldest
// first.
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	txns, err := sess.Services.Ledger.ListTransactions(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]dto.TransactionResponse, len(txns))
	for i := range txns {
		out[i] = dto.ToTransactionResponse(&txns[i])
	}
	c.JSON(http.StatusOK, out)
}

// getTrialBalance returns the company's trial balance.
func (h *ledgerHandler) getTrialBalance(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	rows, err := sess.Services.Ledger.GetTrialBalance(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// getAccount returns one account by its chart code.
func (h *ledgerHandler) getAccount(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	account, err := sess.Services.Ledger.GetAccount(c.Request.Context(), c.Param("companyID"), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
