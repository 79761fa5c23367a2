package inquiryRepo

import (
	"context"
	"time"

	"vendora/models"
)

// InquiryRepository persists customer inquiries.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	GetByID(ctx context.Context, id string) (*models.Inquiry, error)
	// SetResponse moves an inquiry to the given status, recording the vendor's
	// response text and responded_at. It only matches inquiries owned by
	// vendorID that are still pending or responded.
	SetResponse(ctx context.Context, id, vendorID string, status models.InquiryStatus, response string, respondedAt time.Time) error
	ListByVendor(ctx context.Context, vendorID string) ([]models.Inquiry, error)
}
