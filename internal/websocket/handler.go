package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"
	"tableside/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type SubscriptionAuthorizer interface {
	CanSubscribe(ctx context.Context, p domain.Principal, topic string) error
}

type Options struct {
	PingInterval time.Duration
	Buffer       int
	// AllowedOrigins empty means any origin.
	AllowedOrigins []string
}

type Handler struct {
	bus      events.Bus
	access   SubscriptionAuthorizer
	opts     Options
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewHandler(bus events.Bus, access SubscriptionAuthorizer, opts Options, log *logger.Logger) *Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 15 * time.Second
	}
	h := &Handler{bus: bus, access: access, opts: opts, log: logger.OrNop(log).Named("ws")}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.opts.AllowedOrigins {
		if strings.TrimRight(o, "/") == origin {
			return true
		}
	}
	return false
}

// Connect upgrades GET /ws?topic=<t> after the same checks as the SSE routes.
func (h *Handler) Connect(c *gin.Context) {
	p, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	topic := strings.TrimSpace(c.Query("topic"))
	if topic == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing topic", "INVALID_REQUEST"))
		return
	}
	if err := h.access.CanSubscribe(c.Request.Context(), p, topic); err != nil {
		status := services.HTTPStatus(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), httpdto.ErrorCode(status)))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, p, topic, h.opts.Buffer)
	client.Attach(h.bus)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go client.WriteLoop(ctx, h.opts.PingInterval)

	client.ReadLoop(2 * h.opts.PingInterval)
	h.log.WithContext(ctx).Debug("websocket closed", zap.String("topic", topic), zap.String("client_id", client.ID))
}
