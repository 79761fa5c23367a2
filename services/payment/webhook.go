package payment

import (
	"context"
	"encoding/json"
	"fmt"

	eventsRepo "vendora/database/repository/events"
	"vendora/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// WebhookService turns at-least-once Stripe deliveries into at-most-once
// payment resolutions. Every delivery is persisted first; the unique
// (provider, event_id) index decides whether this is the first time we see it.
type WebhookService struct {
	Intake        IntakeService
	Events        eventsRepo.EventRepository
	WebhookSecret string
	Logger        *zap.Logger
}

// HandleStripeEvent verifies, dedupes and applies one delivery. Unrecognized
// event types are acknowledged without effect so Stripe stops retrying them.
func (s *WebhookService) HandleStripeEvent(ctx context.Context, payload []byte, signature string) error {
	var event stripe.Event
	if s.WebhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, signature, s.WebhookSecret)
		if err != nil {
			return fmt.Errorf("webhook signature verification failed: %w", err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	record := &eventsRepo.ProviderEvent{
		ID:        uuid.New().String(),
		Provider:  "stripe",
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   payload,
	}
	isNew, err := s.Events.Insert(ctx, record)
	if err != nil {
		return err
	}
	if !isNew {
		s.Logger.Info("duplicate webhook delivery ignored",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return nil
	}

	if err := s.applyStripeEvent(ctx, event); err != nil {
		if merr := s.Events.MarkError(ctx, record.ID, err.Error()); merr != nil {
			s.Logger.Error("failed to record event error", zap.Error(merr))
		}
		return err
	}
	return s.Events.MarkProcessed(ctx, record.ID)
}

func (s *WebhookService) applyStripeEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		s.Logger.Debug("ignoring webhook event", zap.String("event_type", string(event.Type)))
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("failed to parse payment intent from event %s: %w", event.ID, err)
	}

	in := ResolveInput{
		PaymentID:   pi.Metadata["payment_id"],
		Provider:    "stripe",
		ProviderRef: pi.ID,
	}
	if event.Type == "payment_intent.succeeded" {
		in.Outcome = models.OutcomeSucceeded
	} else {
		in.Outcome = models.OutcomeFailed
		in.FailureReason = "provider declined"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			in.FailureReason = pi.LastPaymentError.Msg
		}
	}

	if _, err := s.Intake.ResolveOutcome(ctx, in); err != nil {
		return fmt.Errorf("failed to resolve payment for intent %s: %w", pi.ID, err)
	}
	return nil
}
