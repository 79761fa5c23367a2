package models

import "time"

// Receipt is the mobile-money evidence attached 1:1 to a payment created via
// the mobile-money rail. The payment stays PENDING until a vendor or admin
// verifies the receipt out of band.
type Receipt struct {
	ID                     string    `bson:"id" json:"id"`
	PaymentID              string    `bson:"payment_id" json:"payment_id"`
	ImageURL               string    `bson:"image_url" json:"image_url"`
	ClaimedReferenceNumber string    `bson:"claimed_reference_number" json:"claimed_reference_number"`
	ClaimedPhone           string    `bson:"claimed_phone" json:"claimed_phone"`
	ClaimedAmount          int64     `bson:"claimed_amount" json:"claimed_amount"`
	ClaimedDate            time.Time `bson:"claimed_date" json:"claimed_date"`

	ReviewedBy string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
