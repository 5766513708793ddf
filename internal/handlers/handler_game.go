package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// gameHandler handles game lifecycle and turn requests.
type gameHandler struct {
	manager *session.Manager
}

func newGameHandler(manager *session.Manager) *gameHandler {
	return &gameHandler{manager: manager}
}

// registerGameRoutes registers the game lifecycle and turn routes.
func registerGameRoutes(rg *gin.RouterGroup, manager *session.Manager) {
	h := newGameHandler(manager)

	games := rg.Group("/games")
	{
		games.POST("", h.createGame)
		games.GET("", h.listGames)
		games.DELETE("/:gameID", h.deleteGame)
		games.GET("/:gameID/state", h.getState)
		games.POST("/:gameID/turns", h.advanceTurn)
		games.GET("/:gameID/companies", h.listCompanies)
		games.GET("/:gameID/products", h.listProducts)
	}
}

// createGame starts a new game session.
func (h *gameHandler) createGame(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	sess, err := h.manager.Create(c.Request.Context())
	if err != nil {
		logger.Error("Failed to create game session", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	logger.Info("Game session created", slog.String("game_id", sess.ID))
	c.JSON(http.StatusCreated, gin.H{
		"gameID":    sess.ID,
		"createdAt": sess.CreatedAt,
		"player":    sess.Player,
	})
}

// listGames lists the running sessions.
func (h *gameHandler) listGames(c *gin.Context) {
	sessions := h.manager.List()
	out := make([]gin.H, len(sessions))
	for i, sess := range sessions {
		out[i] = gin.H{"gameID": sess.ID, "createdAt": sess.CreatedAt, "player": sess.Player}
	}
	c.JSON(http.StatusOK, out)
}

// deleteGame drops a session.
func (h *gameHandler) deleteGame(c *gin.Context) {
	h.manager.Delete(c.Param("gameID"))
	c.Status(http.StatusNoContent)
}

// getState returns the simulated calendar.
func (h *gameHandler) getState(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	state, err := sess.Services.Turn.CurrentState(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// advanceTurn processes one month.
func (h *gameHandler) advanceTurn(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}

	summary, err := sess.Services.Turn.AdvanceTurn(c.Request.Context())
	if err != nil {
		logger.Warn("Turn failed", slog.String("game_id", sess.ID), slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TurnSummaryResponse{
		Month:     summary.Month,
		Year:      summary.Year,
		Log:       summary.Log,
		NewEvents: summary.NewEvents,
		GameOver:  summary.GameOver,
	})
}

// listCompanies lists the competitors in the game.
func (h *gameHandler) listCompanies(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	companies, err := sess.Services.Game.ListCompanies(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

// listProducts lists the shared catalog.
func (h *gameHandler) listProducts(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	products, err := sess.Services.Game.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}
