package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
	nodex "github.com/tanpawarit/recruiter-chat/agent/nodes/orchestrator"
	streamx "github.com/tanpawarit/recruiter-chat/agent/stream"
	metricsx "github.com/tanpawarit/recruiter-chat/pkg/metrics"
)

// ChatService runs one streamed turn. *orchestrator.Service implements it.
type ChatService interface {
	Validate(req contractx.TurnRequest) error
	Stream(ctx context.Context, req contractx.TurnRequest, w streamx.EnvelopeWriter) error
}

type Option func(*handlers)

// WithMetrics counts written envelopes on m and serves gatherer at /metrics.
func WithMetrics(m *metricsx.Chat, gatherer prometheus.Gatherer) Option {
	return func(h *handlers) {
		h.metrics = m
		h.gatherer = gatherer
	}
}

// WithDefaultSweepHours sets the threshold used when a cleanup request
// omits hoursOld.
func WithDefaultSweepHours(hours float64) Option {
	return func(h *handlers) {
		h.sweepHours = hours
	}
}

type handlers struct {
	chat       ChatService
	store      contractx.SessionStore
	metrics    *metricsx.Chat
	gatherer   prometheus.Gatherer
	sweepHours float64
}

func NewRouter(chat ChatService, store contractx.SessionStore, opts ...Option) *gin.Engine {
	h := &handlers{chat: chat, store: store, sweepHours: nodex.DefaultSweepHours}
	for _, opt := range opts {
		opt(h)
	}

	router := gin.New()
	router.Use(gin.Recovery(), AccessLog())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/chat", h.postChat)
		api.GET("/conversation", h.getConversation)
		api.GET("/conversations", h.listConversations)
		api.DELETE("/conversation", h.deleteConversation)
		api.PUT("/conversation", h.putConversation)
	}

	return router
}
