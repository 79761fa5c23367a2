package payoutRepo

import (
	"context"
	"errors"
	"time"

	"vendora/models"
)

// ErrConflict signals that the cancellation guard matched nothing: the
// invoice is already cancelled under a different token, or not cancellable.
var ErrConflict = errors.New("cancellation state conflict")

// RefundMark tells the cancellation transaction which refunded status each
// affected payment receives and how much of the customer refund it carries.
// The amount is persisted on the payment so a retried refund push always
// replays the same share.
type RefundMark struct {
	PaymentID string
	Status    models.PaymentStatus
	Amount    int64
}

// CancellationExecution is everything the cancellation transaction applies
// atomically: invoice terminal state, payment refund marks, clawback payouts.
type CancellationExecution struct {
	InvoiceID   string
	Token       string
	CancelledBy string
	Split       models.CancellationSplit
	Marks       []RefundMark
	Clawbacks   []models.Payout
	At          time.Time
}

// PayoutRepository persists vendor payouts. The settlement engine is the only
// caller; every other component reads.
type PayoutRepository interface {
	Create(ctx context.Context, payout *models.Payout) error
	ListByVendor(ctx context.Context, vendorID string) ([]models.Payout, error)
	// SumSucceededByVendor nets all SUCCEEDED payouts (clawbacks subtract)
	// for a vendor in the optional date window.
	SumSucceededByVendor(ctx context.Context, vendorID string, from, to *time.Time) (int64, error)
	// SumTransferredByInvoice nets SUCCEEDED payouts attributed to one
	// invoice, used to size clawbacks.
	SumTransferredByInvoice(ctx context.Context, invoiceID string) (int64, error)
	// ExecuteCancellationTx applies a cancellation in one transaction.
	// Returns already=true without writing if the same token was applied
	// before; ErrConflict if the invoice is cancelled under another token.
	ExecuteCancellationTx(ctx context.Context, exec CancellationExecution) (already bool, err error)
}
