// Package handler serves the admin HTTP API: health, metrics, statistics,
// broadcasts and a live feed of pairing events.
package handler

import (
	"context"
	"errors"
	"net/http"

	"anonmatch/backend/internal/broadcast"
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatsSource reports the admin statistics snapshot.
type StatsSource interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

// Broadcaster runs an admin announcement.
type Broadcaster interface {
	Run(ctx context.Context, text string) (*broadcast.Report, error)
}

// EventSource streams pairing events.
type EventSource interface {
	SubscribeEvents(ctx context.Context) (<-chan models.SessionEvent, func(), error)
}

// Handler містить залежності адмінського API.
type Handler struct {
	Stats       StatsSource
	Broadcaster Broadcaster
	Events      EventSource
	Admin       config.AdminConfig

	log *zap.SugaredLogger
}

func NewHandler(stats StatsSource, b Broadcaster, events EventSource, admin config.AdminConfig, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.S()
	}
	return &Handler{Stats: stats, Broadcaster: b, Events: events, Admin: admin, log: log}
}

// Router будує gin engine. Група /admin підключається лише тоді, коли
// задано секрет для підпису токенів.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.Admin.JWTSecret == "" {
		h.log.Warn("ANONMATCH_ADMIN_JWT_SECRET is not set, admin API disabled")
		return r
	}
	admin := r.Group("/admin", h.AdminAuth())
	{
		admin.GET("/stats", h.GetStats)
		admin.POST("/broadcast", h.PostBroadcast)
		admin.GET("/events", h.ServeEvents)
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats повертає ту саму статистику, що й команда /stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Stats.Stats(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to collect stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type broadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

// PostBroadcast розсилає текст усім активним профілям і повертає підсумок.
func (h *Handler) PostBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	report, err := h.Broadcaster.Run(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, broadcast.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	case err != nil:
		h.log.Errorw("broadcast failed", "error", err, "admin", c.GetString("admin"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Broadcast failed"})
		return
	}

	h.log.Infow("broadcast sent over HTTP", "admin", c.GetString("admin"), "sent", report.Sent, "failed", report.Failed)
	c.JSON(http.StatusOK, report)
}
