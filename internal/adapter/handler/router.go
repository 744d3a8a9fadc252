package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-roster/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-roster/pkg/config"
	"github.com/johnquangdev/meeting-roster/pkg/jwt"
	meetingMiddleware "github.com/johnquangdev/meeting-roster/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	rosterHandler  *Roster
	webhookHandler *WebhookHandler
	zoomAppHandler *ZoomAppHandler
	pushTokens     *jwt.Manager
	startedAt      time.Time
}

// NewRouter creates a new router. webhookHandler and zoomAppHandler are
// nil when their source is not in use.
func NewRouter(cfg *config.Config, rosterHandler *Roster, webhookHandler *WebhookHandler, zoomAppHandler *ZoomAppHandler, pushTokens *jwt.Manager) *Router {
	return &Router{
		cfg:            cfg,
		rosterHandler:  rosterHandler,
		webhookHandler: webhookHandler,
		zoomAppHandler: zoomAppHandler,
		pushTokens:     pushTokens,
		startedAt:      time.Now(),
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupMeetingRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupMeetingRoutes configures roster routes of the tracked meeting
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meeting := g.Group("/meetings/:"+meetingMiddleware.MeetingParam, meetingMiddleware.RequireMeeting(rt.cfg.Roster.MeetingID))

	meeting.GET("/participants", rt.rosterHandler.ListParticipants)
	meeting.GET("/participants/:participant_id", rt.rosterHandler.GetParticipant)
	meeting.GET("/changelog", rt.rosterHandler.GetChangeLog)
	meeting.GET("/status", rt.rosterHandler.GetStatus)
	meeting.GET("/report", rt.rosterHandler.GetReport)
	meeting.GET("/events", rt.rosterHandler.ListEvents)
	meeting.POST("/refresh", rt.rosterHandler.Refresh)

	if rt.zoomAppHandler != nil && rt.pushTokens != nil {
		meeting.POST("/zoomapp/snapshot", rt.zoomAppHandler.PushSnapshot,
			middleware.EchoPushAuth(rt.pushTokens, rt.cfg.Roster.MeetingID))
	} else {
		meeting.POST("/zoomapp/snapshot", rt.notImplemented)
	}
}

// setupWebhookRoutes configures platform webhooks
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	webhooks := g.Group("/webhooks")

	if rt.webhookHandler != nil {
		webhooks.POST("/livekit", rt.webhookHandler.HandleLiveKitWebhook)
	} else {
		webhooks.POST("/livekit", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not enabled for the configured roster source",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"source":  rt.cfg.Roster.Source,
		"message": "Set ROSTER_SOURCE to enable it",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
		"meeting_id":  rt.cfg.Roster.MeetingID,
		"source":      rt.cfg.Roster.Source,
		"uptime":      time.Since(rt.startedAt).Round(time.Second).String(),
	})
}
