package service

import (
	"context"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/util"

	"go.uber.org/zap"
)

// PaymentService forwards checkout amounts to the payment processor
type PaymentService struct {
	gateway PaymentGateway
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(gateway PaymentGateway) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		logger:  util.GetLogger(),
	}
}

// ProcessPayment creates a payment intent for amount minor units and returns its client secret
func (ps *PaymentService) ProcessPayment(ctx context.Context, amount int64) (string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	if amount <= 0 {
		return "", apperr.Validation("Please Enter a valid amount")
	}

	ps.logger.Info("Processing payment", zap.Int64("amount", amount))

	secret, err := ps.gateway.CreatePaymentIntent(ctx, amount)
	if err != nil {
		return "", apperr.Upstream(err, "Payment processing failed")
	}
	return secret, nil
}

// PublishableKey returns the processor key the storefront needs
func (ps *PaymentService) PublishableKey() string {
	return ps.gateway.PublishableKey()
}
