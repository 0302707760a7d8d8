package httpdto

// BroadcastRequest is used for POST /staff/notifications
type BroadcastRequest struct {
	Role      string   `json:"role" binding:"required"`
	Message   string   `json:"message" binding:"required"`
	Receivers []string `json:"receivers,omitempty"`
}

// BasketSuggestionRequest maps menu item ids to quantities.
type BasketSuggestionRequest struct {
	Items map[uint]int `json:"items" binding:"required"`
}

type TopicStatsDTO struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}
