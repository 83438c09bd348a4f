// Package payment bridges checkout to Stripe payment intents
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce-service/config"
	"ecommerce-service/internal/util"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// ErrInvalidAmount is returned for non-positive amounts
var ErrInvalidAmount = errors.New("amount must be a positive integer")

// intentCreator is the part of the Stripe client the gateway uses
type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Gateway creates payment intents in INR
type Gateway struct {
	intents        intentCreator
	publishableKey string
	logger         *zap.Logger
}

// NewGateway creates a new Stripe gateway
func NewGateway(cfg config.StripeConfig) *Gateway {
	sc := client.New(cfg.SecretKey, nil)
	return newGateway(sc.PaymentIntents, cfg.APIKey)
}

func newGateway(intents intentCreator, publishableKey string) *Gateway {
	return &Gateway{
		intents:        intents,
		publishableKey: publishableKey,
		logger:         util.GetLogger(),
	}
}

// CreatePaymentIntent asks Stripe for an intent of amount minor units and
// returns its client secret
func (g *Gateway) CreatePaymentIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}

	start := time.Now()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyINR)),
	}
	params.AddMetadata("company", "Ecommerce")
	params.Context = ctx

	pi, err := g.intents.New(params)
	util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentIntentsTotal.WithLabelValues("failed").Inc()
		g.logger.Error("Payment intent failed", zap.Int64("amount", amount), zap.Error(err))
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	util.PaymentIntentsTotal.WithLabelValues("created").Inc()
	g.logger.Info("Payment intent created", zap.String("intent_id", pi.ID), zap.Int64("amount", amount))
	return pi.ClientSecret, nil
}

// PublishableKey returns the key the storefront uses to confirm payments
func (g *Gateway) PublishableKey() string {
	return g.publishableKey
}
