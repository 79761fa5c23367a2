package models

import "time"

// VendorRevenueSummary is the read-only rollup the revenue aggregator serves.
// TotalRevenue is the sum of vendor_amount over succeeded payments;
// PendingPayout = TotalRevenue - PaidOut.
type VendorRevenueSummary struct {
	VendorID          string     `json:"vendor_id"`
	Currency          string     `json:"currency"`
	TotalRevenue      int64      `json:"total_revenue"`
	TotalPlatformFees int64      `json:"total_platform_fees"`
	PaidOut           int64      `json:"paid_out"`
	PendingPayout     int64      `json:"pending_payout"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
}
