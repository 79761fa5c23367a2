package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	inquiryRepo "vendora/database/repository/inquiry"
	invoiceRepo "vendora/database/repository/invoice"
	paymentRepo "vendora/database/repository/payment"
	payoutRepo "vendora/database/repository/payout"
	"vendora/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Refunder pushes a refund back out on the rail the money arrived on.
// Implementations must be idempotent per (payment, amount) because the engine
// retries after partial failures.
type Refunder interface {
	Refund(ctx context.Context, payment *models.Payment, amount int64) error
}

// CancellationResult is what a cancellation (preview or execution) reports.
type CancellationResult struct {
	Invoice       *models.Invoice          `json:"invoice"`
	Stage         Stage                    `json:"stage"`
	Split         models.CancellationSplit `json:"split"`
	RefundSettled bool                     `json:"refund_settled"`
	Already       bool                     `json:"already"`
}

// Engine owns cancellation and refund settlement. It is the only writer of
// payouts and refunded payment states.
type Engine struct {
	Invoices  invoiceRepo.InvoiceRepository
	Inquiries inquiryRepo.InquiryRepository
	Payments  paymentRepo.PaymentRepository
	Payouts   payoutRepo.PayoutRepository
	// Refunders by rail. A rail without a refunder settles out of band and
	// leaves refund_settled false for the operations queue.
	Refunders map[models.PaymentRail]Refunder
	Logger    *zap.Logger
}

// ComputeCancellation previews the split a cancellation would produce,
// without writing anything.
func (e *Engine) ComputeCancellation(ctx context.Context, invoiceID, cancelledBy string) (*CancellationResult, error) {
	inv, inq, err := e.loadInvoiceAndInquiry(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	stage := stageFor(cancelledBy == inv.VendorID, inq.Status, inv.WorkStarted)
	paid, err := e.Payments.SumSucceededByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &CancellationResult{
		Invoice: inv,
		Stage:   stage,
		Split:   ComputeSplit(paid, inv.Policy, stage),
	}, nil
}

// ExecuteCancellation cancels an invoice and settles the money. Phase one
// commits the terminal invoice state, refund marks and clawbacks in a single
// transaction keyed by the client token, so retries are no-ops. Phase two
// pushes the customer refund out through the rails; if any push fails the
// invoice stays CANCELLED with refund_settled=false and the retry path
// re-runs phase two only.
func (e *Engine) ExecuteCancellation(ctx context.Context, invoiceID, cancelledBy, token string) (*CancellationResult, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	inv, inq, err := e.loadInvoiceAndInquiry(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceCancelled {
		if inv.CancellationToken == token {
			return e.resumeRefund(ctx, inv, inq)
		}
		return nil, ErrCancellationConflict
	}

	stage := stageFor(cancelledBy == inv.VendorID, inq.Status, inv.WorkStarted)
	paid, err := e.Payments.SumSucceededByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	split := ComputeSplit(paid, inv.Policy, stage)

	payments, err := e.Payments.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	marks := refundMarks(payments, split.CustomerRefund)

	exec := payoutRepo.CancellationExecution{
		InvoiceID:   invoiceID,
		Token:       token,
		CancelledBy: cancelledBy,
		Split:       split,
		Marks:       marks,
		At:          time.Now(),
	}

	// Funds already transferred to the vendor beyond its retained share come
	// back as a negative payout row.
	transferred, err := e.Payouts.SumTransferredByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if clawback := transferred - split.VendorRetained; clawback > 0 {
		now := time.Now()
		exec.Clawbacks = append(exec.Clawbacks, models.Payout{
			ID:          uuid.New().String(),
			VendorID:    inv.VendorID,
			InvoiceID:   inv.ID,
			Amount:      -clawback,
			Currency:    inv.Currency,
			Method:      "clawback",
			Status:      models.PaymentSucceeded,
			ProcessedAt: &now,
			Description: "cancellation clawback for invoice " + inv.InvoiceNumber,
			CreatedAt:   now,
		})
	}

	already, err := e.Payouts.ExecuteCancellationTx(ctx, exec)
	if err != nil {
		if errors.Is(err, payoutRepo.ErrConflict) {
			return nil, ErrCancellationConflict
		}
		return nil, err
	}
	if already {
		return e.resumeRefund(ctx, inv, inq)
	}

	e.Logger.Info("invoice cancelled",
		zap.String("invoice_id", invoiceID),
		zap.String("cancelled_by", cancelledBy),
		zap.String("stage", string(stage)),
		zap.Int64("customer_refund", split.CustomerRefund),
		zap.Int64("vendor_retained", split.VendorRetained),
		zap.Int64("platform_retained", split.PlatformRetained))

	settled := e.settleRefund(ctx, inv, payments, marks)

	inv, err = e.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &CancellationResult{
		Invoice:       inv,
		Stage:         stage,
		Split:         split,
		RefundSettled: settled,
	}, nil
}

// resumeRefund handles a repeated call for an already-cancelled invoice:
// nothing is recomputed, but an unsettled refund gets another push. The
// per-payment shares come from the marks the cancellation transaction
// committed, never from a fresh distribution, so a retry always pushes the
// same amount to the same payment.
func (e *Engine) resumeRefund(ctx context.Context, inv *models.Invoice, inq *models.Inquiry) (*CancellationResult, error) {
	stage := stageFor(inv.CancelledBy == inv.VendorID, inq.Status, inv.WorkStarted)
	paid, err := e.Payments.SumSucceededByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	split := ComputeSplit(paid, inv.Policy, stage)

	settled := inv.RefundSettled
	if !settled {
		payments, err := e.Payments.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		settled = e.settleRefund(ctx, inv, payments, storedMarks(payments))
		if inv, err = e.Invoices.GetByID(ctx, inv.ID); err != nil {
			return nil, err
		}
	}
	return &CancellationResult{
		Invoice:       inv,
		Stage:         stage,
		Split:         split,
		RefundSettled: settled,
		Already:       true,
	}, nil
}

// settleRefund pushes each committed refund mark out on its payment's rail.
// The amounts were fixed by the cancellation transaction; this never
// redistributes. Returns whether every share settled; the flag is only
// flipped true when they all did.
func (e *Engine) settleRefund(ctx context.Context, inv *models.Invoice, payments []models.Payment, marks []payoutRepo.RefundMark) bool {
	if len(marks) == 0 {
		if err := e.Invoices.SetRefundSettled(ctx, inv.ID, true); err != nil {
			e.Logger.Error("failed to mark refund settled", zap.String("invoice_id", inv.ID), zap.Error(err))
			return false
		}
		return true
	}

	byID := make(map[string]*models.Payment, len(payments))
	for i := range payments {
		byID[payments[i].ID] = &payments[i]
	}

	allSettled := true
	for _, mark := range marks {
		p, ok := byID[mark.PaymentID]
		if !ok {
			e.Logger.Error("refund mark references unknown payment",
				zap.String("invoice_id", inv.ID),
				zap.String("payment_id", mark.PaymentID))
			allSettled = false
			continue
		}

		refunder, ok := e.Refunders[p.Rail]
		if !ok {
			e.Logger.Warn("no refunder for rail, refund settles out of band",
				zap.String("payment_id", p.ID),
				zap.String("rail", string(p.Rail)),
				zap.Int64("amount", mark.Amount))
			allSettled = false
			continue
		}
		if err := refunder.Refund(ctx, p, mark.Amount); err != nil {
			e.Logger.Error("refund push failed",
				zap.String("payment_id", p.ID),
				zap.String("rail", string(p.Rail)),
				zap.Int64("amount", mark.Amount),
				zap.Error(err))
			allSettled = false
		}
	}

	if allSettled {
		if err := e.Invoices.SetRefundSettled(ctx, inv.ID, true); err != nil {
			e.Logger.Error("failed to mark refund settled", zap.String("invoice_id", inv.ID), zap.Error(err))
			return false
		}
	}
	return allSettled
}

// ConfirmManualRefund closes the loop for rails the engine cannot push on:
// once operations has returned the money out of band, an admin confirms and
// the invoice leaves the unsettled queue.
func (e *Engine) ConfirmManualRefund(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	inv, err := e.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	if inv.Status != models.InvoiceCancelled {
		return nil, ErrNotCancellable
	}
	if inv.RefundSettled {
		return inv, nil
	}
	if err := e.Invoices.SetRefundSettled(ctx, invoiceID, true); err != nil {
		return nil, err
	}
	e.Logger.Info("manual refund confirmed", zap.String("invoice_id", invoiceID))
	return e.Invoices.GetByID(ctx, invoiceID)
}

// loadInvoiceAndInquiry fetches the invoice and its inquiry, rejecting
// invoices that cannot be cancelled at all.
func (e *Engine) loadInvoiceAndInquiry(ctx context.Context, invoiceID string) (*models.Invoice, *models.Inquiry, error) {
	inv, err := e.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, ErrInvoiceNotFound
	}
	inq, err := e.Inquiries.GetByID(ctx, inv.InquiryID)
	if err != nil {
		return nil, nil, err
	}
	if inq == nil {
		return nil, nil, fmt.Errorf("inquiry %s missing for invoice %s", inv.InquiryID, inv.ID)
	}
	return inv, inq, nil
}

// refundMarks decides the refunded status and share of each succeeded
// payment. Payments are consumed oldest first; a payment fully covered by the
// refund becomes REFUNDED, a partially covered one PARTIALLY_REFUNDED, and
// payments past the refund total keep SUCCEEDED.
func refundMarks(payments []models.Payment, customerRefund int64) []payoutRepo.RefundMark {
	var marks []payoutRepo.RefundMark
	remaining := customerRefund
	for i := range payments {
		p := &payments[i]
		if !refundable(p.Status) || remaining <= 0 {
			continue
		}
		status := models.PaymentRefunded
		share := p.Amount
		if remaining < p.Amount {
			status = models.PaymentPartiallyRefunded
			share = remaining
		}
		marks = append(marks, payoutRepo.RefundMark{PaymentID: p.ID, Status: status, Amount: share})
		remaining -= share
	}
	return marks
}

func refundable(s models.PaymentStatus) bool {
	return s == models.PaymentSucceeded
}

// storedMarks reconstructs the committed refund marks from payment rows, for
// the resume path. The push itself is idempotent per payment, so re-pushing a
// marked payment is safe.
func storedMarks(payments []models.Payment) []payoutRepo.RefundMark {
	var marks []payoutRepo.RefundMark
	for i := range payments {
		p := &payments[i]
		switch p.Status {
		case models.PaymentRefunded, models.PaymentPartiallyRefunded:
			if p.RefundAmount > 0 {
				marks = append(marks, payoutRepo.RefundMark{PaymentID: p.ID, Status: p.Status, Amount: p.RefundAmount})
			}
		}
	}
	return marks
}
