package entity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// StripeMutator is the payments collaborator. It drives Stripe on the user's
// behalf; amounts are integer cents.
type StripeMutator struct {
	client *client.API
	log    *slog.Logger
}

func NewStripeMutator(apiKey string, log *slog.Logger) (*StripeMutator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeMutator{
		client: api,
		log:    log,
	}, nil
}

func (m *StripeMutator) Category() string {
	return "payments"
}

func (m *StripeMutator) Mutate(ctx context.Context, op Operation) (string, error) {
	switch op.ActionID {
	case "send_payment":
		return m.sendPayment(op)
	case "refund_payment":
		return m.refundPayment(op)
	default:
		return "", fmt.Errorf("unrecognized payment action: %s", op.ActionID)
	}
}

func (m *StripeMutator) sendPayment(op Operation) (string, error) {
	amount, ok := AmountParam(op.Params)
	if !ok {
		return "", fmt.Errorf("missing or invalid parameter %q", "amount")
	}
	currency := "usd"
	if c, ok := op.Params["currency"].(string); ok && c != "" {
		currency = c
	}
	description, _ := op.Params["description"].(string)

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(amount)),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
		Confirm:     stripe.Bool(true),
	}
	params.AddMetadata("agent_user", op.UserID)
	params.AddMetadata("agent_actor", op.ActorID)

	pi, err := m.client.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}
	m.log.Info("payment sent", "user", op.UserID, "amount", amount, "currency", currency)
	return fmt.Sprintf("sent payment of %d %s (%s)", amount, currency, pi.ID), nil
}

func (m *StripeMutator) refundPayment(op Operation) (string, error) {
	paymentID, err := StringParam(op.Params, "payment_id")
	if err != nil {
		return "", err
	}

	refund, err := m.client.Refunds.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
	})
	if err != nil {
		return "", fmt.Errorf("refund payment: %w", err)
	}
	return fmt.Sprintf("refunded payment %s (%s)", paymentID, refund.ID), nil
}
