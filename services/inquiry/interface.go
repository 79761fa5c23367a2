package inquiry

import (
	"context"
	"time"

	inquiryRepo "vendora/database/repository/inquiry"
	"vendora/models"
)

// CreateInquiryInput is what the booking collaborator submits.
type CreateInquiryInput struct {
	VendorID     string    `json:"vendor_id"`
	UserID       string    `json:"user_id"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	EventType    string    `json:"event_type"`
	EventDate    time.Time `json:"event_date"`
	GuestCount   int       `json:"guest_count"`
	Budget       int64     `json:"budget"`
	Message      string    `json:"message"`
}

// InquiryService manages the inquiry lifecycle up to invoice eligibility.
type InquiryService interface {
	CreateInquiry(ctx context.Context, in CreateInquiryInput) (*models.Inquiry, error)
	RespondToInquiry(ctx context.Context, inquiryID, vendorID string, status models.InquiryStatus, response string) (*models.Inquiry, error)
	GetInquiry(ctx context.Context, id string) (*models.Inquiry, error)
	ListVendorInquiries(ctx context.Context, vendorID string) ([]models.Inquiry, error)
}

// DefaultInquiryService implements InquiryService.
type DefaultInquiryService struct {
	Repo inquiryRepo.InquiryRepository
}
