package models

// FeePolicy is the versioned fee configuration stamped on each invoice at
// creation time. Percentages are basis points (1500 = 15%); all arithmetic
// stays in int64 minor units so money never touches floating point.
type FeePolicy struct {
	Version int `bson:"version" json:"version"`
	// PlatformFeeBps is retained by the platform on every succeeded payment
	// and on post-confirmation cancellations.
	PlatformFeeBps int64 `bson:"platform_fee_bps" json:"platform_fee_bps"`
	// WorkStartedFeeBps is retained by the vendor when the customer cancels
	// after work has started.
	WorkStartedFeeBps int64 `bson:"work_started_fee_bps" json:"work_started_fee_bps"`
}

// BpsOf returns amount*bps/10000 rounded down. The caller decides which
// bucket absorbs the rounding remainder.
func BpsOf(amount, bps int64) int64 {
	return amount * bps / 10000
}

// PlatformFee returns the platform's cut of a succeeded payment. The vendor
// amount is the exact complement, so the two always sum to amount.
func (p FeePolicy) PlatformFee(amount int64) int64 {
	return BpsOf(amount, p.PlatformFeeBps)
}

// CancellationSplit is the result of the cancellation-tier computation.
// CustomerRefund + VendorRetained + PlatformRetained == paid total, exactly.
type CancellationSplit struct {
	CustomerRefund   int64 `json:"customer_refund"`
	VendorRetained   int64 `json:"vendor_retained"`
	PlatformRetained int64 `json:"platform_retained"`
}

// Total returns the sum of the three buckets.
func (s CancellationSplit) Total() int64 {
	return s.CustomerRefund + s.VendorRetained + s.PlatformRetained
}
