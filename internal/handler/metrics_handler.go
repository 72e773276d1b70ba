package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/service"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
	"github.com/noah-isme/turmas-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   kvstore.Store
}

// NewMetricsHandler constructs a metrics handler. Ready checks store.
func NewMetricsHandler(metrics *service.MetricsService, store kvstore.Store) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the document store answers.
func (h *MetricsHandler) Ready(c *gin.Context) {
	pinger, ok := h.store.(kvstore.Pinger)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		response.Error(c, appErrors.Storage(err, "document store unreachable"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Summary godoc
// @Summary Metrics summary
// @Description Request, ledger and storage counters for the admin panel
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
