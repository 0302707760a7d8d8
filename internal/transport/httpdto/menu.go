package httpdto

// UpdateMenuItemRequest is used for PUT /staff/menu/:id
type UpdateMenuItemRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Category      string  `json:"category" binding:"required"`
	Price         float64 `json:"price"`
	Cost          float64 `json:"cost"`
	Calories      int     `json:"calories"`
	IsVegetarian  bool    `json:"isVegetarian"`
	IsGlutenFree  bool    `json:"isGlutenFree"`
	StripePriceID *string `json:"stripePriceId,omitempty"`
}

type UpdateStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

type UpdateStockResponse struct {
	Stock             int    `json:"stock"`
	UnavailableOrders []uint `json:"unavailableOrders"`
}

type PresignImageRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	SizeBytes   int64  `json:"sizeBytes" binding:"required"`
}

type SetImageRequest struct {
	URL string `json:"url" binding:"required"`
}
