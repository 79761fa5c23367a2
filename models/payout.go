package models

import "time"

// Payout records funds transferred from the platform to a vendor. A clawback
// after cancellation is a new payout row with a negative amount; history is
// never mutated. Only the settlement engine writes payouts.
type Payout struct {
	ID          string        `bson:"id" json:"id"`
	VendorID    string        `bson:"vendor_id" json:"vendor_id"`
	InvoiceID   string        `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Amount      int64         `bson:"amount" json:"amount"` // minor units; negative for clawbacks
	Currency    string        `bson:"currency" json:"currency"`
	Method      string        `bson:"method" json:"method"`
	Status      PaymentStatus `bson:"status" json:"status"`
	Provider    string        `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderRef string        `bson:"provider_ref,omitempty" json:"provider_ref,omitempty"`
	ProcessedAt *time.Time    `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}
