package paymentRepo

import (
	"context"
	"errors"
	"time"

	"vendora/models"
)

// ErrDuplicateKey signals a unique-index collision (idempotency token or
// provider reference already recorded). Callers treat it as "fetch the
// canonical record instead".
var ErrDuplicateKey = errors.New("duplicate payment key")

// ErrConflict signals that a guarded update matched nothing: the record was
// not in the expected state, or the invoice ceiling would be exceeded. The
// same call is safe to retry after re-reading.
var ErrConflict = errors.New("payment state conflict")

// SucceededResolution carries everything the success transaction needs so the
// payment update and the invoice paid_amount increment commit or abort as one.
type SucceededResolution struct {
	PaymentID   string
	InvoiceID   string
	Amount      int64
	Provider    string
	ProviderRef string
	PlatformFee int64
	VendorAmt   int64
	ProcessedAt time.Time
}

// PaymentRepository persists payments and their mobile-money receipts.
// It owns the only write path for payment status.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByProviderRef(ctx context.Context, provider, providerRef string) (*models.Payment, error)
	GetByIdempotencyKey(ctx context.Context, invoiceID, key string) (*models.Payment, error)
	// SetProviderRef records the external reference assigned when the card
	// intent is created. Unique per provider.
	SetProviderRef(ctx context.Context, id, provider, providerRef string) error
	// MarkProcessing moves PENDING -> PROCESSING; false if not in PENDING.
	MarkProcessing(ctx context.Context, id string) (bool, error)
	// ResolveSucceededTx atomically marks the payment SUCCEEDED with its fee
	// split and increments the invoice paid_amount, recomputing the invoice
	// status, in a single multi-document transaction. Returns ErrConflict if
	// the payment already left PENDING/PROCESSING or the increment would
	// push paid_amount past total_amount.
	ResolveSucceededTx(ctx context.Context, res SucceededResolution) error
	// ResolveFailed marks the payment FAILED with a reason; false if the
	// payment was already terminal.
	ResolveFailed(ctx context.Context, id, provider, providerRef, reason string) (bool, error)
	// MarkRefunded moves a SUCCEEDED payment to REFUNDED or
	// PARTIALLY_REFUNDED. Settlement engine only.
	MarkRefunded(ctx context.Context, id string, status models.PaymentStatus) error

	ListByInvoice(ctx context.Context, invoiceID string) ([]models.Payment, error)
	ListByVendor(ctx context.Context, vendorID string, from, to *time.Time) ([]models.Payment, error)
	SumSucceededByInvoice(ctx context.Context, invoiceID string) (int64, error)

	// Receipts (mobile-money evidence, 1:1 with payment).
	AttachReceipt(ctx context.Context, receipt *models.Receipt) error
	GetReceiptByPaymentID(ctx context.Context, paymentID string) (*models.Receipt, error)
	SetReceiptReview(ctx context.Context, paymentID, reviewerID string, at time.Time) error
	ListPendingVerification(ctx context.Context, vendorID string) ([]models.Payment, error)

	// AggregateVendorRevenue sums vendor_amount and platform_fee_amount over
	// SUCCEEDED payments for a vendor in the optional date window.
	AggregateVendorRevenue(ctx context.Context, vendorID string, from, to *time.Time) (vendorTotal, feeTotal int64, err error)
}
