package revenue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paymentRepo "vendora/database/repository/payment"
	payoutRepo "vendora/database/repository/payout"
	"vendora/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// summaryCacheTTL keeps vendor dashboards off the aggregation pipeline
// without letting figures go noticeably stale.
const summaryCacheTTL = 30 * time.Second

// RevenueService serves vendor revenue rollups. Read-only: everything here
// is derived from payments and payouts, never stored.
type RevenueService interface {
	GetVendorRevenueSummary(ctx context.Context, vendorID, currency string, from, to *time.Time) (*models.VendorRevenueSummary, error)
	ListVendorPayouts(ctx context.Context, vendorID string) ([]models.Payout, error)
}

// DefaultRevenueService implements RevenueService.
type DefaultRevenueService struct {
	Payments paymentRepo.PaymentRepository
	Payouts  payoutRepo.PayoutRepository
	Cache    *redis.Client
	Logger   *zap.Logger
}

// GetVendorRevenueSummary aggregates earned revenue, platform fees and payout
// history for one vendor over an optional date window.
func (s *DefaultRevenueService) GetVendorRevenueSummary(ctx context.Context, vendorID, currency string, from, to *time.Time) (*models.VendorRevenueSummary, error) {
	key := summaryCacheKey(vendorID, currency, from, to)
	if s.Cache != nil {
		if data, err := s.Cache.Get(ctx, key).Result(); err == nil {
			var cached models.VendorRevenueSummary
			if jerr := json.Unmarshal([]byte(data), &cached); jerr == nil {
				return &cached, nil
			}
		}
	}

	vendorTotal, feeTotal, err := s.Payments.AggregateVendorRevenue(ctx, vendorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate vendor revenue: %w", err)
	}
	paidOut, err := s.Payouts.SumSucceededByVendor(ctx, vendorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payouts: %w", err)
	}

	summary := &models.VendorRevenueSummary{
		VendorID:          vendorID,
		Currency:          currency,
		TotalRevenue:      vendorTotal,
		TotalPlatformFees: feeTotal,
		PaidOut:           paidOut,
		PendingPayout:     vendorTotal - paidOut,
		StartDate:         from,
		EndDate:           to,
	}

	if s.Cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = s.Cache.Set(ctx, key, data, summaryCacheTTL).Err()
		}
	}
	return summary, nil
}

// ListVendorPayouts returns the vendor's payout history, clawbacks included.
func (s *DefaultRevenueService) ListVendorPayouts(ctx context.Context, vendorID string) ([]models.Payout, error) {
	return s.Payouts.ListByVendor(ctx, vendorID)
}

func summaryCacheKey(vendorID, currency string, from, to *time.Time) string {
	f, t := "", ""
	if from != nil {
		f = from.Format(time.RFC3339)
	}
	if to != nil {
		t = to.Format(time.RFC3339)
	}
	return fmt.Sprintf("revenue:summary:%s:%s:%s:%s", vendorID, currency, f, t)
}
