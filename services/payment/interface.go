package payment

import (
	"context"
	"time"

	invoiceRepo "vendora/database/repository/invoice"
	paymentRepo "vendora/database/repository/payment"
	"vendora/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CreateAttemptInput describes a new payment attempt on either rail.
type CreateAttemptInput struct {
	InvoiceID      string             `json:"invoice_id"`
	Amount         int64              `json:"amount"`
	Currency       string             `json:"currency"`
	Method         string             `json:"method"`
	Rail           models.PaymentRail `json:"rail"`
	UserID         string             `json:"user_id"`
	IdempotencyKey string             `json:"idempotency_key"`
}

// ResolveInput is the rail adapters' request to finish a payment.
type ResolveInput struct {
	PaymentID     string
	Outcome       models.PaymentOutcome
	Provider      string
	ProviderRef   string
	FailureReason string
}

// IntakeService owns payment creation and the status machine. Rail adapters
// and the settlement engine go through it; nothing else writes payments.
type IntakeService interface {
	CreatePaymentAttempt(ctx context.Context, in CreateAttemptInput) (*models.Payment, error)
	AdvanceToProcessing(ctx context.Context, paymentID string) (*models.Payment, error)
	// ResolveOutcome applies a terminal outcome. Repeating the call for a
	// (provider, providerRef) that already resolved returns the canonical
	// record without side effects.
	ResolveOutcome(ctx context.Context, in ResolveInput) (*models.Payment, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (*models.Payment, error)
	ListInvoicePayments(ctx context.Context, invoiceID string) ([]models.Payment, error)
	ListVendorPayments(ctx context.Context, vendorID string, from, to *time.Time) ([]models.Payment, error)
}

// DefaultIntakeService implements IntakeService.
type DefaultIntakeService struct {
	Payments paymentRepo.PaymentRepository
	Invoices invoiceRepo.InvoiceRepository
	Cache    *redis.Client
	Logger   *zap.Logger
}
