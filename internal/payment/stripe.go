package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tableside_errors "tableside/pkg/errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway uses Stripe Checkout in payment mode.
type StripeGateway struct {
	api     *client.API
	baseURL string
}

func NewStripeGateway(secretKey, publicBaseURL string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// SuccessURL is where Stripe sends the browser after payment. Stripe fills in
// the session id placeholder.
func SuccessURL(baseURL string, orderID uint) string {
	return fmt.Sprintf("%s/order/%d?session_id={CHECKOUT_SESSION_ID}", strings.TrimRight(baseURL, "/"), orderID)
}

func CancelURL(baseURL string, orderID uint) string {
	return fmt.Sprintf("%s/order/%d", strings.TrimRight(baseURL, "/"), orderID)
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, orderID uint, items []LineItem) (string, error) {
	if len(items) == 0 {
		return "", tableside_errors.ErrInvalidInput
	}
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, it := range items {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(it.PriceID),
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lines,
		SuccessURL: stripe.String(SuccessURL(g.baseURL, orderID)),
		CancelURL:  stripe.String(CancelURL(g.baseURL, orderID)),
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatUint(uint64(orderID), 10))

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tableside_errors.ErrPaymentFailed, err)
	}
	return sess.URL, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tableside_errors.ErrPaymentFailed, err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid || sess.PaymentIntent == nil {
		return "", tableside_errors.ErrPaymentFailed
	}
	return sess.PaymentIntent.ID, nil
}
