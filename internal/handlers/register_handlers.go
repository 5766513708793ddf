package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// RegisterRoutes sets up all application routes over the session manager.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, manager *session.Manager) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	v1 := r.Group("/api/v1")

	registerGameRoutes(v1, manager)
	registerLedgerRoutes(v1, manager)
	registerInventoryRoutes(v1, manager)
	registerMarketRoutes(v1, manager)
	registerEventRoutes(v1, manager)
	registerReportingRoutes(v1, manager)
}
