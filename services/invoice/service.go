package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	invoiceRepo "vendora/database/repository/invoice"
	"vendora/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// numberRetries bounds the collision-retry loop on invoice numbers.
const numberRetries = 3

// CreateInvoice builds a DRAFT invoice from an eligible inquiry. The fee
// policy in force is snapshotted onto the invoice so later configuration
// changes never alter this invoice's settlement math.
func (s *DefaultInvoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*models.Invoice, error) {
	if in.Subtotal < 0 || in.TaxAmount < 0 || in.DiscountAmount < 0 {
		return nil, ErrInvalidAmount
	}
	total := in.Subtotal + in.TaxAmount - in.DiscountAmount
	if total < 0 {
		return nil, ErrInvalidAmount
	}
	if in.Currency == "" {
		return nil, ErrInvalidAmount
	}

	inq, err := s.Inquiries.GetByID(ctx, in.InquiryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inquiry: %w", err)
	}
	if inq == nil || inq.VendorID != in.VendorID || !inq.InvoiceEligible() {
		return nil, ErrInquiryNotEligible
	}

	now := time.Now()
	dueDate := now.AddDate(0, 0, s.DueDays)
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}

	inv := &models.Invoice{
		InquiryID:      in.InquiryID,
		VendorID:       in.VendorID,
		UserID:         inq.UserID,
		Type:           in.Type,
		Status:         models.InvoiceDraft,
		Subtotal:       in.Subtotal,
		TaxAmount:      in.TaxAmount,
		DiscountAmount: in.DiscountAmount,
		TotalAmount:    total,
		Currency:       in.Currency,
		IssueDate:      now,
		DueDate:        dueDate,
		Description:    in.Description,
		Notes:          in.Notes,
		Policy:         s.Policy,
	}

	// The unique index is the real collision guard; the loop just gives the
	// generator a fresh draw.
	for attempt := 0; attempt < numberRetries; attempt++ {
		number, err := s.Repo.NextInvoiceNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		inv.ID = uuid.New().String()
		inv.InvoiceNumber = number

		err = s.Repo.Create(ctx, inv)
		if err == nil {
			s.Logger.Info("invoice created",
				zap.String("invoice_id", inv.ID),
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.String("vendor_id", inv.VendorID),
				zap.Int64("total_amount", inv.TotalAmount))
			return inv, nil
		}
		if !errors.Is(err, invoiceRepo.ErrDuplicateInvoiceNumber) {
			return nil, err
		}
		s.Logger.Warn("invoice number collision, retrying", zap.String("invoice_number", number))
	}
	return nil, ErrInvoiceNumberGeneration
}

// TransitionToPending makes a DRAFT invoice payable.
func (s *DefaultInvoiceService) TransitionToPending(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	ok, err := s.Repo.TransitionToPending(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.Repo.GetByID(ctx, invoiceID)
}

// MarkWorkStarted records the vendor-portal signal that delivery has begun.
func (s *DefaultInvoiceService) MarkWorkStarted(ctx context.Context, invoiceID, vendorID string) (*models.Invoice, error) {
	ok, err := s.Repo.MarkWorkStarted(ctx, invoiceID, vendorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.Repo.GetByID(ctx, invoiceID)
}

// GetInvoice fetches one invoice.
func (s *DefaultInvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

// ListVendorInvoices lists a vendor's invoices, optionally by status.
func (s *DefaultInvoiceService) ListVendorInvoices(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error) {
	return s.Repo.ListByVendor(ctx, vendorID, status)
}
