package models

import "time"

// InquiryStatus tracks where a customer inquiry is in its lifecycle.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryResponded InquiryStatus = "responded"
	InquiryAccepted  InquiryStatus = "accepted"
	InquiryDeclined  InquiryStatus = "declined"
	InquiryClosed    InquiryStatus = "closed"
)

// Inquiry represents a customer's request for a vendor's services, pre-contract.
// Inquiries are never hard-deleted; "closed" is the terminal soft state.
type Inquiry struct {
	ID             string        `bson:"id" json:"id"`
	VendorID       string        `bson:"vendor_id" json:"vendor_id"`
	UserID         string        `bson:"user_id,omitempty" json:"user_id,omitempty"` // empty for guest inquiries
	ContactName    string        `bson:"contact_name" json:"contact_name"`
	ContactEmail   string        `bson:"contact_email" json:"contact_email"`
	ContactPhone   string        `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	EventType      string        `bson:"event_type" json:"event_type"`
	EventDate      time.Time     `bson:"event_date" json:"event_date"`
	GuestCount     int           `bson:"guest_count" json:"guest_count"`
	Budget         int64         `bson:"budget" json:"budget"` // minor units
	Message        string        `bson:"message" json:"message"`
	Status         InquiryStatus `bson:"status" json:"status"`
	VendorResponse string        `bson:"vendor_response,omitempty" json:"vendor_response,omitempty"`
	RespondedAt    *time.Time    `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// InvoiceEligible reports whether an invoice may be created from this inquiry.
func (i *Inquiry) InvoiceEligible() bool {
	return i.Status == InquiryResponded || i.Status == InquiryAccepted
}
