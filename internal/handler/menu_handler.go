package handler

import (
	"net/http"

	"tableside/internal/domain/menu"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MenuHandler struct {
	service *services.MenuService
}

func NewMenuHandler(service *services.MenuService) *MenuHandler {
	return &MenuHandler{service: service}
}

func (h *MenuHandler) List(c *gin.Context) {
	items, err := h.service.ListMenu(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *MenuHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

func (h *MenuHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	item, err := h.service.UpdateMenuItem(c.Request.Context(), menu.MenuItem{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Category:      menu.Category(req.Category),
		Price:         req.Price,
		Cost:          req.Cost,
		Calories:      req.Calories,
		IsVegetarian:  req.IsVegetarian,
		IsGlutenFree:  req.IsGlutenFree,
		StripePriceID: req.StripePriceID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

// UpdateStock sets the stock level. Zero stock cancels pending orders for the item.
func (h *MenuHandler) UpdateStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "stock is required")
		return
	}

	moved, err := h.service.SetStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		writeError(c, err)
		return
	}
	if moved == nil {
		moved = []uint{}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UpdateStockResponse{
		Stock:             *req.Stock,
		UnavailableOrders: moved,
	}))
}

func (h *MenuHandler) PresignImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	upload, err := h.service.PresignImage(c.Request.Context(), id, req.ContentType, req.SizeBytes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(upload))
}

// SetImage records the public URL once the browser finished the upload.
func (h *MenuHandler) SetImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.SetImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.service.SetImage(c.Request.Context(), id, req.URL); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"image": req.URL}))
}

func (h *MenuHandler) Tables(c *gin.Context) {
	tables, err := h.service.ListTables(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(tables))
}
