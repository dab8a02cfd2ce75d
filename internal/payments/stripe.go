// Package payments wraps stripe-go for fare charges at payment completion.
package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type StripeClient struct {
	currency string
}

// NewStripeClient sets the package-level API key stripe-go expects and fixes
// the charge currency.
func NewStripeClient(apiKey, currency string) *StripeClient {
	stripe.Key = apiKey
	if currency == "" {
		currency = "kes"
	}
	return &StripeClient{currency: currency}
}

// Charge creates and confirms a PaymentIntent for the fare. The fare is in
// whole currency units; Stripe wants the minor unit.
func (s *StripeClient) Charge(ctx context.Context, fare float64, description string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(fare * 100)),
		Currency:    stripe.String(s.currency),
		Description: stripe.String(description),
		Confirm:     stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ID, nil
}
