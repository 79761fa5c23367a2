package payment

import (
	"context"
	"fmt"

	"vendora/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// CardCheckout is what the client needs to drive the card confirm step.
type CardCheckout struct {
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

// CardRail creates Stripe PaymentIntents for card attempts. The final
// SUCCEEDED/FAILED transition never happens here; it arrives through the
// webhook, correlated by the intent ID recorded below.
type CardRail struct {
	Intake IntakeService
	Repo   interface {
		SetProviderRef(ctx context.Context, id, provider, providerRef string) error
	}
	Logger *zap.Logger
}

// StartCardPayment creates the attempt, opens a PaymentIntent for it and
// moves the attempt to PROCESSING. The returned client secret goes to the
// browser SDK; our side then waits for the webhook.
func (r *CardRail) StartCardPayment(ctx context.Context, in CreateAttemptInput) (*CardCheckout, error) {
	in.Rail = models.RailCard
	if in.Method == "" {
		in.Method = "card"
	}

	p, err := r.Intake.CreatePaymentAttempt(ctx, in)
	if err != nil {
		return nil, err
	}

	// Retried submit for an attempt that already has an intent: reopen it
	// instead of creating a second charge path.
	if p.ProviderRef != "" {
		pi, err := paymentintent.Get(p.ProviderRef, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
		}
		return &CardCheckout{Payment: p, ClientSecret: pi.ClientSecret}, nil
	}
	if p.Status != models.PaymentPending {
		return nil, ErrInvalidTransition
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("payment_id", p.ID)
	params.AddMetadata("invoice_id", p.InvoiceID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := r.Repo.SetProviderRef(ctx, p.ID, "stripe", pi.ID); err != nil {
		return nil, fmt.Errorf("failed to record provider ref: %w", err)
	}
	p, err = r.Intake.AdvanceToProcessing(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("card payment intent created",
		zap.String("payment_id", p.ID),
		zap.String("provider_ref", pi.ID),
		zap.Int64("amount", p.Amount))
	return &CardCheckout{Payment: p, ClientSecret: pi.ClientSecret}, nil
}
