package settlement

import (
	"context"
	"fmt"

	"vendora/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// StripeRefunder refunds card payments against their PaymentIntent. Stripe
// dedupes on the idempotency key, so a retried push never double-refunds. The
// per-payment key requires the engine to always push a payment's committed
// share, never a recomputed one.
type StripeRefunder struct {
	Logger *zap.Logger
}

func (r *StripeRefunder) Refund(ctx context.Context, p *models.Payment, amount int64) error {
	if p.ProviderRef == "" {
		return fmt.Errorf("payment %s has no provider reference to refund against", p.ID)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.ProviderRef),
		Amount:        stripe.Int64(amount),
	}
	params.SetIdempotencyKey("refund-" + p.ID)

	re, err := refund.New(params)
	if err != nil {
		return fmt.Errorf("stripe refund failed for payment %s: %w", p.ID, err)
	}
	r.Logger.Info("stripe refund created",
		zap.String("payment_id", p.ID),
		zap.String("refund_id", re.ID),
		zap.Int64("amount", amount))
	return nil
}

// ManualRefunder covers the mobile-money rail, where refunds go back out the
// same way the money came in, by a person. It records the obligation and
// reports failure so refund_settled stays false until operations confirms.
type ManualRefunder struct {
	Logger *zap.Logger
}

func (r *ManualRefunder) Refund(ctx context.Context, p *models.Payment, amount int64) error {
	r.Logger.Warn("manual refund required",
		zap.String("payment_id", p.ID),
		zap.String("method", p.Method),
		zap.Int64("amount", amount))
	return fmt.Errorf("payment %s on %s requires a manual refund of %d", p.ID, p.Method, amount)
}
