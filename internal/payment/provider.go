// Package payment wraps the hosted-checkout provider behind a narrow
// interface so the order workflow never talks to the provider SDK directly.
package payment

import (
	"context"

	"github.com/tahaet/book-ecommerce/internal/domain"
)

// CheckoutSession is the provider-neutral view of a hosted checkout.
type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	PaymentIntentID string `json:"-"`
	Paid            bool   `json:"paid"`
}

// Provider is the payment collaborator: create a hosted checkout for an
// order, poll it for completion, refund a captured payment.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, order *domain.OrderHeader, successURL, cancelURL string) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string) error
}
