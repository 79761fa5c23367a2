package inquiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendora/models"

	"github.com/google/uuid"
)

// ErrInvalidResponseStatus rejects vendor responses outside the allowed set.
var ErrInvalidResponseStatus = errors.New("response status must be responded, accepted or declined")

// CreateInquiry records a customer's expression of interest in a vendor.
func (s *DefaultInquiryService) CreateInquiry(ctx context.Context, in CreateInquiryInput) (*models.Inquiry, error) {
	if in.VendorID == "" {
		return nil, errors.New("missing vendor ID")
	}
	if in.ContactName == "" || in.ContactEmail == "" {
		return nil, errors.New("missing contact details")
	}
	if in.Budget < 0 {
		return nil, errors.New("budget cannot be negative")
	}

	inq := &models.Inquiry{
		ID:           uuid.New().String(),
		VendorID:     in.VendorID,
		UserID:       in.UserID,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		EventType:    in.EventType,
		EventDate:    in.EventDate,
		GuestCount:   in.GuestCount,
		Budget:       in.Budget,
		Message:      in.Message,
		Status:       models.InquiryPending,
	}

	if err := s.Repo.Create(ctx, inq); err != nil {
		return nil, fmt.Errorf("failed to create inquiry: %w", err)
	}
	return inq, nil
}

// RespondToInquiry records the vendor's decision. responded_at is set in the
// same write as the status so the two never disagree.
func (s *DefaultInquiryService) RespondToInquiry(ctx context.Context, inquiryID, vendorID string, status models.InquiryStatus, response string) (*models.Inquiry, error) {
	switch status {
	case models.InquiryResponded, models.InquiryAccepted, models.InquiryDeclined:
	default:
		return nil, ErrInvalidResponseStatus
	}

	respondedAt := time.Now()
	if err := s.Repo.SetResponse(ctx, inquiryID, vendorID, status, response, respondedAt); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, inquiryID)
}

// GetInquiry fetches one inquiry.
func (s *DefaultInquiryService) GetInquiry(ctx context.Context, id string) (*models.Inquiry, error) {
	return s.Repo.GetByID(ctx, id)
}

// ListVendorInquiries lists a vendor's inquiries.
func (s *DefaultInquiryService) ListVendorInquiries(ctx context.Context, vendorID string) ([]models.Inquiry, error) {
	return s.Repo.ListByVendor(ctx, vendorID)
}
