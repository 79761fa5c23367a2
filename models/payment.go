package models

import "time"

// PaymentRail identifies the confirmation mechanics of a payment channel.
type PaymentRail string

const (
	RailCard        PaymentRail = "card"
	RailMobileMoney PaymentRail = "mobile_money"
)

// PaymentStatus tracks a payment attempt. Payments only move forward:
// PENDING -> PROCESSING -> SUCCEEDED | FAILED | CANCELLED. The refunded
// states are reachable only from SUCCEEDED, via the settlement engine.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentProcessing        PaymentStatus = "PROCESSING"
	PaymentSucceeded         PaymentStatus = "SUCCEEDED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Terminal reports whether a status can no longer advance through the
// ordinary resolution path.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentSucceeded, PaymentFailed, PaymentCancelled, PaymentRefunded, PaymentPartiallyRefunded:
		return true
	}
	return false
}

// Payment is one attempt (successful or not) to pay toward an invoice.
// Amounts are minor units. (Provider, ProviderRef) is unique when set and is
// the idempotency key against duplicate webhook delivery.
type Payment struct {
	ID        string      `bson:"id" json:"id"`
	InvoiceID string      `bson:"invoice_id" json:"invoice_id"`
	InquiryID string      `bson:"inquiry_id" json:"inquiry_id"`
	UserID    string      `bson:"user_id,omitempty" json:"user_id,omitempty"`
	VendorID  string      `bson:"vendor_id" json:"vendor_id"`
	Amount    int64       `bson:"amount" json:"amount"`
	Currency  string      `bson:"currency" json:"currency"`
	Method    string      `bson:"method" json:"method"` // card, mpesa, tigopesa, ...
	Rail      PaymentRail `bson:"rail" json:"rail"`

	Status      PaymentStatus `bson:"status" json:"status"`
	Provider    string        `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderRef string        `bson:"provider_ref,omitempty" json:"provider_ref,omitempty"`

	// Client-supplied idempotency token; unique per invoice so a retried
	// submit returns the existing attempt.
	IdempotencyKey string `bson:"idempotency_key" json:"idempotency_key"`

	ProcessedAt   *time.Time `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	FailureReason string     `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Fee split, set only at the SUCCEEDED transition.
	// PlatformFeeAmount + VendorAmount == Amount.
	PlatformFeeAmount int64 `bson:"platform_fee_amount" json:"platform_fee_amount"`
	VendorAmount      int64 `bson:"vendor_amount" json:"vendor_amount"`

	// RefundAmount is the share of the customer refund assigned to this
	// payment by the cancellation transaction. Stored so a retried refund
	// push replays the exact same amount.
	RefundAmount int64 `bson:"refund_amount,omitempty" json:"refund_amount,omitempty"`

	TransferStatus string     `bson:"transfer_status,omitempty" json:"transfer_status,omitempty"`
	TransferredAt  *time.Time `bson:"transferred_at,omitempty" json:"transferred_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PaymentOutcome is the resolution requested by a rail adapter.
type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "SUCCEEDED"
	OutcomeFailed    PaymentOutcome = "FAILED"
)
