package models

import "time"

// InvoiceType distinguishes what an invoice bills for.
type InvoiceType string

const (
	InvoiceDeposit           InvoiceType = "DEPOSIT"
	InvoiceFullPayment       InvoiceType = "FULL_PAYMENT"
	InvoiceBalance           InvoiceType = "BALANCE"
	InvoiceAdditionalService InvoiceType = "ADDITIONAL_SERVICE"
	InvoiceRefund            InvoiceType = "REFUND"
)

// InvoiceStatus tracks an invoice through its lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoicePending       InvoiceStatus = "PENDING"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceOverdue       InvoiceStatus = "OVERDUE"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// Invoice is a billable request for a specific monetary amount tied to one inquiry.
// All amounts are fixed-point integers in minor units of Currency.
type Invoice struct {
	ID             string        `bson:"id" json:"id"`
	InquiryID      string        `bson:"inquiry_id" json:"inquiry_id"`
	VendorID       string        `bson:"vendor_id" json:"vendor_id"`
	UserID         string        `bson:"user_id,omitempty" json:"user_id,omitempty"`
	InvoiceNumber  string        `bson:"invoice_number" json:"invoice_number"` // globally unique, unguessable
	Type           InvoiceType   `bson:"type" json:"type"`
	Status         InvoiceStatus `bson:"status" json:"status"`
	Subtotal       int64         `bson:"subtotal" json:"subtotal"`
	TaxAmount      int64         `bson:"tax_amount" json:"tax_amount"`
	DiscountAmount int64         `bson:"discount_amount" json:"discount_amount"`
	TotalAmount    int64         `bson:"total_amount" json:"total_amount"`
	PaidAmount     int64         `bson:"paid_amount" json:"paid_amount"`
	Currency       string        `bson:"currency" json:"currency"`
	IssueDate      time.Time     `bson:"issue_date" json:"issue_date"`
	DueDate        time.Time     `bson:"due_date" json:"due_date"`
	PaidAt         *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	Description    string        `bson:"description,omitempty" json:"description,omitempty"`
	Notes          string        `bson:"notes,omitempty" json:"notes,omitempty"`

	// Fee policy snapshot taken at creation; settlement always uses this,
	// never the live configuration.
	Policy FeePolicy `bson:"policy" json:"policy"`

	// WorkStarted is set by the vendor portal once service delivery begins,
	// and changes the cancellation tier.
	WorkStarted bool `bson:"work_started" json:"work_started"`

	// Cancellation bookkeeping. CancellationToken makes ExecuteCancellation
	// idempotent; RefundSettled is false while a computed refund is still
	// owed to the customer (CANCELLED_PENDING_REFUND).
	CancellationToken string     `bson:"cancellation_token,omitempty" json:"cancellation_token,omitempty"`
	CancelledBy       string     `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"`
	CancelledAt       *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	RefundSettled     bool       `bson:"refund_settled" json:"refund_settled"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RemainingAmount is derived, never stored, so it cannot drift.
func (inv *Invoice) RemainingAmount() int64 {
	return inv.TotalAmount - inv.PaidAmount
}

// Payable reports whether new payment attempts may be created against this invoice.
func (inv *Invoice) Payable() bool {
	return inv.Status == InvoicePending || inv.Status == InvoicePartiallyPaid
}
