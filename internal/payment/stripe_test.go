package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

type fakeIntents struct {
	last *stripe.PaymentIntentParams
	err  error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
}

func TestCreatePaymentIntent(t *testing.T) {
	intents := &fakeIntents{}
	g := newGateway(intents, "pk_test")

	secret, err := g.CreatePaymentIntent(context.Background(), 199800)
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret_abc", secret)

	require.NotNil(t, intents.last)
	assert.Equal(t, int64(199800), *intents.last.Amount)
	assert.Equal(t, "inr", *intents.last.Currency)
	assert.Equal(t, "Ecommerce", intents.last.Metadata["company"])
	assert.Equal(t, "pk_test", g.PublishableKey())
}

func TestCreatePaymentIntent_RejectsNonPositive(t *testing.T) {
	intents := &fakeIntents{}
	g := newGateway(intents, "pk_test")

	_, err := g.CreatePaymentIntent(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, intents.last)
}

func TestCreatePaymentIntent_ProcessorError(t *testing.T) {
	g := newGateway(&fakeIntents{err: errors.New("card_declined")}, "pk_test")

	_, err := g.CreatePaymentIntent(context.Background(), 500)
	assert.ErrorContains(t, err, "card_declined")
}
