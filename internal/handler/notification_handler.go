package handler

import (
	"net/http"

	"tableside/internal/commands"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req httpdto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role and message are required")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	err := h.service.Broadcast(c.Request.Context(), commands.StaffBroadcastCommand{
		Sender:    p,
		Role:      req.Role,
		Message:   req.Message,
		Receivers: req.Receivers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(gin.H{"status": "sent"}))
}

func (h *NotificationHandler) SuggestBasket(c *gin.Context) {
	customerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.BasketSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	err := h.service.SuggestBasket(c.Request.Context(), commands.BasketSuggestionCommand{
		Sender:     p,
		CustomerID: customerID,
		Items:      req.Items,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(gin.H{"status": "sent"}))
}

func (h *NotificationHandler) CallWaiter(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.CallWaiterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and tableId are required")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	err := h.service.CallWaiter(c.Request.Context(), commands.CallWaiterCommand{
		Customer: p,
		OrderID:  orderID,
		Name:     req.Name,
		TableID:  req.TableID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(gin.H{"status": "sent"}))
}
