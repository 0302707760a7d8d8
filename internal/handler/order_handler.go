package handler

import (
	"net/http"
	"strconv"
	"strings"

	"tableside/internal/commands"
	"tableside/internal/domain/order"
	"tableside/internal/repository"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service *services.OrderService
}

func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Checkout places the caller's basket as a new order.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req httpdto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	o, err := h.service.Checkout(c.Request.Context(), commands.CheckoutCommand{
		Customer:            p,
		TableID:             req.TableID,
		Basket:              req.Basket,
		IdempotencyKeyValue: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewOrderDTO(o)))
}

// Get returns one order. A session_id query parameter completes a pending payment.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var (
		o   order.Order
		err error
	)
	if sessionID := c.Query("session_id"); sessionID != "" {
		o, err = h.service.CompletePayment(c.Request.Context(), p, id, sessionID)
	} else {
		o, err = h.service.GetOrder(c.Request.Context(), p, id)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewOrderDTO(o)))
}

// Revenue serves the staff revenue dashboard.
func (h *OrderHandler) Revenue(c *gin.Context) {
	report, err := h.service.RevenueReport(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewRevenueDTO(report)))
}

// List serves the staff dashboard. Filters: status (comma separated), table, customer, limit.
func (h *OrderHandler) List(c *gin.Context) {
	var filter repository.OrderFilter
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, ok := order.ParseStatus(part)
			if !ok {
				badRequest(c, "invalid status")
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	if raw := c.Query("table"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid table")
			return
		}
		filter.TableID = uint(n)
	}
	if raw := c.Query("customer"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid customer")
			return
		}
		filter.CustomerID = uint(n)
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		filter.Limit = n
	}

	orders, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewOrderDTOs(orders)))
}

// UpdateStatus moves an order along its lifecycle as the calling staff member.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	target, valid := order.ParseStatus(req.Status)
	if !valid {
		badRequest(c, "invalid status")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	o, err := h.service.Transition(c.Request.Context(), commands.TransitionOrderCommand{
		OrderID:      id,
		TargetStatus: target,
		Actor:        p,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewOrderDTO(o)))
}

func (h *OrderHandler) UpdateItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.UpdateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	lines := make([]commands.ItemLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, commands.ItemLine{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Note:       it.Note,
			Reason:     it.Reason,
		})
	}

	o, err := h.service.UpdateItems(c.Request.Context(), commands.UpdateOrderItemsCommand{
		OrderID: id,
		Items:   lines,
		Actor:   p,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewOrderDTO(o)))
}

// Pay opens a payment checkout and returns where to send the guest.
func (h *OrderHandler) Pay(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	url, err := h.service.Pay(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PayResponse{RedirectURL: url}))
}
