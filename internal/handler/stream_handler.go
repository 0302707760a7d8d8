package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/sse"
	"tableside/internal/transport/httpdto"
	"tableside/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubscriptionAuthorizer decides whether a principal may follow a topic.
type SubscriptionAuthorizer interface {
	CanSubscribe(ctx context.Context, p domain.Principal, topic string) error
}

// StreamHandler serves the server-sent event endpoints.
type StreamHandler struct {
	bus    events.Bus
	access SubscriptionAuthorizer
	opts   sse.Options
	log    *logger.Logger
}

func NewStreamHandler(bus events.Bus, access SubscriptionAuthorizer, opts sse.Options, log *logger.Logger) *StreamHandler {
	log = logger.OrNop(log).Named("stream")
	if opts.Logger == nil {
		opts.Logger = log
	}
	return &StreamHandler{bus: bus, access: access, opts: opts, log: log}
}

func (h *StreamHandler) DashboardOrders(c *gin.Context) {
	h.serve(c, events.DashboardOrders)
}

// Tables shares the dashboard topic; table views refresh on any order change.
func (h *StreamHandler) Tables(c *gin.Context) {
	h.serve(c, events.DashboardOrders)
}

func (h *StreamHandler) Notifications(c *gin.Context) {
	role := strings.TrimSpace(c.Query("role"))
	if role == "" {
		badRequest(c, "missing role")
		return
	}
	h.serve(c, events.RoleTopic(role))
}

func (h *StreamHandler) Order(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.serve(c, events.OrderTopic(id))
}

func (h *StreamHandler) MenuNotifications(c *gin.Context) {
	id, ok := parseQueryID(c, "user")
	if !ok {
		return
	}
	h.serve(c, events.MenuNotificationsTopic(id))
}

func (h *StreamHandler) serve(c *gin.Context, topic string) {
	ctx := c.Request.Context()
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if err := h.access.CanSubscribe(ctx, p, topic); err != nil {
		writeError(c, err)
		return
	}

	session, err := sse.Open(ctx, c.Writer, h.bus, topic, h.opts)
	if err != nil {
		if errors.Is(err, sse.ErrStreamingUnsupported) {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
			return
		}
		writeError(c, err)
		return
	}

	log := h.log.WithContext(ctx).With(zap.String("topic", topic))
	log.Debug("stream opened")
	if err := session.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Info("stream ended", zap.Error(err))
		return
	}
	log.Debug("stream closed")
}
