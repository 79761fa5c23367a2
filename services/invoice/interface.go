package invoice

import (
	"context"
	"time"

	inquiryRepo "vendora/database/repository/inquiry"
	invoiceRepo "vendora/database/repository/invoice"
	"vendora/models"

	"go.uber.org/zap"
)

// CreateInvoiceInput carries everything needed to bill an inquiry.
// Amounts are minor units.
type CreateInvoiceInput struct {
	VendorID       string             `json:"vendor_id"`
	InquiryID      string             `json:"inquiry_id"`
	Type           models.InvoiceType `json:"type"`
	Subtotal       int64              `json:"subtotal"`
	TaxAmount      int64              `json:"tax_amount"`
	DiscountAmount int64              `json:"discount_amount"`
	Currency       string             `json:"currency"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	Description    string             `json:"description"`
	Notes          string             `json:"notes"`
}

// InvoiceService is the only component that creates invoices.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*models.Invoice, error)
	TransitionToPending(ctx context.Context, invoiceID string) (*models.Invoice, error)
	MarkWorkStarted(ctx context.Context, invoiceID, vendorID string) (*models.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListVendorInvoices(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error)
}

// DefaultInvoiceService implements InvoiceService.
type DefaultInvoiceService struct {
	Repo      invoiceRepo.InvoiceRepository
	Inquiries inquiryRepo.InquiryRepository
	Policy    models.FeePolicy
	DueDays   int
	Logger    *zap.Logger
}
