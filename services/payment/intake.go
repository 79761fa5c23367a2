package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paymentRepo "vendora/database/repository/payment"
	"vendora/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const statusCacheTTL = 5 * time.Second

// CreatePaymentAttempt records a PENDING payment toward a payable invoice.
// Repeating the call with the same (invoice, idempotency token) returns the
// existing attempt: the unique index closes the check-then-insert race, the
// lookup just avoids burning an insert on the common retry.
func (s *DefaultIntakeService) CreatePaymentAttempt(ctx context.Context, in CreateAttemptInput) (*models.Payment, error) {
	if in.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if in.Amount <= 0 {
		return nil, ErrInvoiceNotPayable
	}

	if existing, err := s.Payments.GetByIdempotencyKey(ctx, in.InvoiceID, in.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	inv, err := s.Invoices.GetByID(ctx, in.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if inv == nil || !inv.Payable() {
		return nil, ErrInvoiceNotPayable
	}
	if in.Amount > inv.RemainingAmount() {
		return nil, ErrInvoiceNotPayable
	}
	if in.Currency != inv.Currency {
		return nil, ErrInvoiceNotPayable
	}

	p := &models.Payment{
		ID:             uuid.New().String(),
		InvoiceID:      inv.ID,
		InquiryID:      inv.InquiryID,
		UserID:         in.UserID,
		VendorID:       inv.VendorID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		Method:         in.Method,
		Rail:           in.Rail,
		Status:         models.PaymentPending,
		IdempotencyKey: in.IdempotencyKey,
	}

	if err := s.Payments.Create(ctx, p); err != nil {
		if errors.Is(err, paymentRepo.ErrDuplicateKey) {
			// Lost the race to a concurrent retry; hand back the winner.
			return s.Payments.GetByIdempotencyKey(ctx, in.InvoiceID, in.IdempotencyKey)
		}
		return nil, err
	}

	s.Logger.Info("payment attempt created",
		zap.String("payment_id", p.ID),
		zap.String("invoice_id", p.InvoiceID),
		zap.String("rail", string(p.Rail)),
		zap.Int64("amount", p.Amount))
	return p, nil
}

// AdvanceToProcessing moves PENDING -> PROCESSING; the card rail calls this
// right before the external confirm step.
func (s *DefaultIntakeService) AdvanceToProcessing(ctx context.Context, paymentID string) (*models.Payment, error) {
	ok, err := s.Payments.MarkProcessing(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.invalidateStatus(ctx, paymentID)
	return s.Payments.GetByID(ctx, paymentID)
}

// ResolveOutcome finishes a payment. On SUCCEEDED the fee split and the
// invoice paid_amount increment commit in one transaction; a duplicate
// delivery for an already-terminal (provider, providerRef) is a no-op
// returning the canonical record.
func (s *DefaultIntakeService) ResolveOutcome(ctx context.Context, in ResolveInput) (*models.Payment, error) {
	if in.ProviderRef != "" {
		existing, err := s.Payments.GetByProviderRef(ctx, in.Provider, in.ProviderRef)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Status.Terminal() {
			s.Logger.Info("duplicate resolution ignored",
				zap.String("provider", in.Provider),
				zap.String("provider_ref", in.ProviderRef),
				zap.String("payment_id", existing.ID))
			return existing, nil
		}
		if existing != nil && in.PaymentID == "" {
			in.PaymentID = existing.ID
		}
	}

	p, err := s.Payments.GetByID(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if p.Status.Terminal() {
		return p, nil
	}

	switch in.Outcome {
	case models.OutcomeSucceeded:
		inv, err := s.Invoices.GetByID(ctx, p.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load invoice: %w", err)
		}
		if inv == nil {
			return nil, fmt.Errorf("invoice %s missing for payment %s", p.InvoiceID, p.ID)
		}

		// Fee split from the invoice's policy snapshot, never live config.
		fee := inv.Policy.PlatformFee(p.Amount)
		vendorAmt := p.Amount - fee

		res := paymentRepo.SucceededResolution{
			PaymentID:   p.ID,
			InvoiceID:   p.InvoiceID,
			Amount:      p.Amount,
			Provider:    in.Provider,
			ProviderRef: in.ProviderRef,
			PlatformFee: fee,
			VendorAmt:   vendorAmt,
			ProcessedAt: time.Now(),
		}
		if err := s.Payments.ResolveSucceededTx(ctx, res); err != nil {
			if errors.Is(err, paymentRepo.ErrConflict) || errors.Is(err, paymentRepo.ErrDuplicateKey) {
				// A concurrent resolution won; the stored record is canonical.
				if cur, gerr := s.Payments.GetByID(ctx, p.ID); gerr == nil && cur != nil && cur.Status.Terminal() {
					return cur, nil
				}
			}
			return nil, err
		}
		s.Logger.Info("payment succeeded",
			zap.String("payment_id", p.ID),
			zap.String("invoice_id", p.InvoiceID),
			zap.Int64("amount", p.Amount),
			zap.Int64("platform_fee", fee))

	case models.OutcomeFailed:
		ok, err := s.Payments.ResolveFailed(ctx, p.ID, in.Provider, in.ProviderRef, in.FailureReason)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Already terminal; idempotent.
			return s.Payments.GetByID(ctx, p.ID)
		}
		s.Logger.Info("payment failed",
			zap.String("payment_id", p.ID),
			zap.String("reason", in.FailureReason))

	default:
		return nil, fmt.Errorf("unsupported outcome: %s", in.Outcome)
	}

	s.invalidateStatus(ctx, p.ID)
	return s.Payments.GetByID(ctx, p.ID)
}

// GetPaymentStatus serves the checkout poll, with a short redis cache in
// front of the store.
func (s *DefaultIntakeService) GetPaymentStatus(ctx context.Context, paymentID string) (*models.Payment, error) {
	key := statusCacheKey(paymentID)
	if s.Cache != nil {
		if data, err := s.Cache.Get(ctx, key).Result(); err == nil {
			var cached models.Payment
			if jerr := json.Unmarshal([]byte(data), &cached); jerr == nil {
				return &cached, nil
			}
		}
	}

	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}

	if s.Cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.Cache.Set(ctx, key, data, statusCacheTTL).Err()
		}
	}
	return p, nil
}

// ListInvoicePayments lists all attempts toward an invoice.
func (s *DefaultIntakeService) ListInvoicePayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	return s.Payments.ListByInvoice(ctx, invoiceID)
}

// ListVendorPayments lists a vendor's payments in the optional window.
func (s *DefaultIntakeService) ListVendorPayments(ctx context.Context, vendorID string, from, to *time.Time) ([]models.Payment, error) {
	return s.Payments.ListByVendor(ctx, vendorID, from, to)
}

func (s *DefaultIntakeService) invalidateStatus(ctx context.Context, paymentID string) {
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, statusCacheKey(paymentID)).Err()
	}
}

func statusCacheKey(paymentID string) string {
	return "payment:status:" + paymentID
}
