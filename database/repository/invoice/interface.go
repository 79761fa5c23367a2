package invoiceRepo

import (
	"context"
	"time"

	"vendora/models"
)

// InvoiceRepository persists invoices and owns the invoice-number sequence.
// Only the invoice manager creates invoices; payment and settlement mutate
// them through their own repositories' transactions.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	// NextInvoiceNumber allocates a globally unique invoice number from an
	// atomic counter. Safe under concurrent creation.
	NextInvoiceNumber(ctx context.Context) (string, error)
	// TransitionToPending moves DRAFT -> PENDING; returns false if the
	// invoice was not in DRAFT.
	TransitionToPending(ctx context.Context, id string) (bool, error)
	// MarkWorkStarted sets the work_started flag on a paid or partially paid
	// invoice owned by vendorID.
	MarkWorkStarted(ctx context.Context, id, vendorID string) (bool, error)
	// SetRefundSettled flips the refund_settled flag after a refund attempt
	// against the provider completes.
	SetRefundSettled(ctx context.Context, id string, settled bool) error
	ListByVendor(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error)
	// SweepOverdue marks PENDING invoices past their due date as OVERDUE and
	// returns the number transitioned. Advisory only; never cancels or refunds.
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)
}
