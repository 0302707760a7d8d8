package handler

import (
	"net/http"

	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// TopicStats is implemented by events.Registry.
type TopicStats interface {
	Topics() []string
	SubscriberCount(topic string) int
}

type DebugHandler struct {
	stats TopicStats
}

func NewDebugHandler(stats TopicStats) *DebugHandler {
	return &DebugHandler{stats: stats}
}

// Topics lists the live topics and how many listeners each has.
func (h *DebugHandler) Topics(c *gin.Context) {
	topics := h.stats.Topics()
	out := make([]httpdto.TopicStatsDTO, 0, len(topics))
	for _, t := range topics {
		out = append(out, httpdto.TopicStatsDTO{Topic: t, Subscribers: h.stats.SubscriberCount(t)})
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
