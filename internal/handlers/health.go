package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/auth"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	Ping    func(ctx context.Context) error
	Auth    *auth.Broadcaster
	started time.Time
}

func NewHealthHandler(ping func(ctx context.Context) error, b *auth.Broadcaster) *HealthHandler {
	return &HealthHandler{Ping: ping, Auth: b, started: time.Now()}
}

// HealthCheck is GET /health. The database must answer; Gmail is reported
// but never fails the check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}

	if h.Auth != nil {
		state, ready := h.Auth.Current()
		body["auth_ready"] = ready
		body["gmail_connected"] = state.Authenticated()
		if state.MailErr != nil {
			body["gmail_error"] = state.MailErr.Error()
		}
	}

	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	body["database"] = "ok"
	c.JSON(http.StatusOK, body)
}
