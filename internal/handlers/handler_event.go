package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

// eventHandler handles decision event requests.
type eventHandler struct {
	manager *session.Manager
}

func newEventHandler(manager *session.Manager) *eventHandler {
	return &eventHandler{manager: manager}
}

// registerEventRoutes registers the decision event routes.
func registerEventRoutes(rg *gin.RouterGroup, manager *session.Manager) {
	h := newEventHandler(manager)

	events := rg.Group("/games/:gameID/events")
	{
		events.POST("", h.createEvent)
		events.GET("", h.listPending)
		events.POST("/:eventID/resolve", h.resolveEvent)
	}
}

// createEvent defines a new decision event.
func (h *eventHandler) createEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ev, err := sess.Services.Event.CreateEvent(c.Request.Context(), req.ToDomainEvent())
	if err != nil {
		logger.Warn("Failed to create event", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// listPending lists events still awaiting a decision.
func (h *eventHandler) listPending(c *gin.Context) {
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}
	events, err := sess.Services.Event.ListPending(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// resolveEvent applies a choice to a pending event.
func (h *eventHandler) resolveEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sess, ok := resolveSession(c, h.manager)
	if !ok {
		return
	}

	var req dto.ResolveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ev, err := sess.Services.Event.ResolveEvent(c.Request.Context(), c.Param("eventID"), req.ChoiceID)
	if err != nil {
		logger.Warn("Failed to resolve event", slog.String("event_id", c.Param("eventID")), slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}
