package payment

import (
	"context"

	tableside_errors "tableside/pkg/errors"
)

// LineItem is one priced line sent to the gateway.
type LineItem struct {
	PriceID  string
	Quantity int64
}

// Gateway creates hosted checkout sessions and reads their outcome.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, orderID uint, items []LineItem) (redirectURL string, err error)
	RetrieveSession(ctx context.Context, sessionID string) (paymentIntentID string, err error)
}

// Disabled is used when no gateway is configured.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, uint, []LineItem) (string, error) {
	return "", tableside_errors.ErrServiceUnavailable
}

func (Disabled) RetrieveSession(context.Context, string) (string, error) {
	return "", tableside_errors.ErrServiceUnavailable
}
