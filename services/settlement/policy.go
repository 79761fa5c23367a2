package settlement

import "vendora/models"

// Stage is the cancellation tier an invoice falls into. The tier depends on
// who cancels, whether the inquiry was ever confirmed, and whether the vendor
// has started work.
type Stage string

const (
	// StageFullRefund returns every paid cent to the customer. Applies when
	// the vendor cancels, or when the customer backs out before the inquiry
	// was ever confirmed.
	StageFullRefund Stage = "FULL_REFUND"
	// StagePostConfirmation applies when the customer cancels a confirmed
	// engagement before work begins. The platform keeps its fee.
	StagePostConfirmation Stage = "POST_CONFIRMATION"
	// StageWorkStarted applies when the customer cancels after delivery
	// began. The vendor keeps its work-started share on top of the platform fee.
	StageWorkStarted Stage = "WORK_STARTED"
)

// stageFor maps the cancellation circumstances to a tier.
func stageFor(cancelledByVendor bool, inquiryStatus models.InquiryStatus, workStarted bool) Stage {
	if cancelledByVendor {
		return StageFullRefund
	}
	if workStarted {
		return StageWorkStarted
	}
	if inquiryStatus == models.InquiryAccepted {
		return StagePostConfirmation
	}
	return StageFullRefund
}

// ComputeSplit divides the paid total across the three buckets for a tier.
// Retained buckets round down; the platform absorbs the remainder so the
// three always sum to paidTotal exactly.
func ComputeSplit(paidTotal int64, policy models.FeePolicy, stage Stage) models.CancellationSplit {
	if paidTotal <= 0 {
		return models.CancellationSplit{}
	}

	switch stage {
	case StageWorkStarted:
		vendor := models.BpsOf(paidTotal, policy.WorkStartedFeeBps)
		customer := models.BpsOf(paidTotal, 10000-policy.WorkStartedFeeBps-policy.PlatformFeeBps)
		return models.CancellationSplit{
			CustomerRefund:   customer,
			VendorRetained:   vendor,
			PlatformRetained: paidTotal - vendor - customer,
		}
	case StagePostConfirmation:
		customer := models.BpsOf(paidTotal, 10000-policy.PlatformFeeBps)
		return models.CancellationSplit{
			CustomerRefund:   customer,
			PlatformRetained: paidTotal - customer,
		}
	default:
		return models.CancellationSplit{CustomerRefund: paidTotal}
	}
}
