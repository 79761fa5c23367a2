package settlement

import (
	"testing"

	"vendora/models"
)

var testPolicy = models.FeePolicy{
	Version:           1,
	PlatformFeeBps:    1500,
	WorkStartedFeeBps: 4250,
}

func TestStageFor(t *testing.T) {
	cases := []struct {
		name          string
		byVendor      bool
		inquiryStatus models.InquiryStatus
		workStarted   bool
		want          Stage
	}{
		{"vendor cancels always full refund", true, models.InquiryAccepted, true, StageFullRefund},
		{"customer cancels before confirmation", false, models.InquiryResponded, false, StageFullRefund},
		{"customer cancels pending inquiry", false, models.InquiryPending, false, StageFullRefund},
		{"customer cancels confirmed engagement", false, models.InquiryAccepted, false, StagePostConfirmation},
		{"customer cancels after work started", false, models.InquiryAccepted, true, StageWorkStarted},
		{"work started wins even if inquiry not accepted", false, models.InquiryResponded, true, StageWorkStarted},
	}
	for _, tc := range cases {
		if got := stageFor(tc.byVendor, tc.inquiryStatus, tc.workStarted); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestComputeSplitFullRefund(t *testing.T) {
	split := ComputeSplit(100000, testPolicy, StageFullRefund)
	if split.CustomerRefund != 100000 || split.VendorRetained != 0 || split.PlatformRetained != 0 {
		t.Fatalf("unexpected split: %+v", split)
	}
}

func TestComputeSplitPostConfirmation(t *testing.T) {
	split := ComputeSplit(100000, testPolicy, StagePostConfirmation)
	if split.CustomerRefund != 85000 {
		t.Errorf("customer refund = %d, want 85000", split.CustomerRefund)
	}
	if split.PlatformRetained != 15000 {
		t.Errorf("platform retained = %d, want 15000", split.PlatformRetained)
	}
	if split.VendorRetained != 0 {
		t.Errorf("vendor retained = %d, want 0", split.VendorRetained)
	}
}

func TestComputeSplitWorkStarted(t *testing.T) {
	split := ComputeSplit(100000, testPolicy, StageWorkStarted)
	if split.VendorRetained != 42500 {
		t.Errorf("vendor retained = %d, want 42500", split.VendorRetained)
	}
	if split.PlatformRetained != 15000 {
		t.Errorf("platform retained = %d, want 15000", split.PlatformRetained)
	}
	if split.CustomerRefund != 42500 {
		t.Errorf("customer refund = %d, want 42500", split.CustomerRefund)
	}
}

// Odd amounts must still conserve money exactly; the platform absorbs the
// rounding remainder and the customer is never over-refunded.
func TestComputeSplitConservation(t *testing.T) {
	amounts := []int64{1, 3, 7, 99, 101, 9999, 12345, 99999, 100001, 7777777}
	stages := []Stage{StageFullRefund, StagePostConfirmation, StageWorkStarted}

	for _, amount := range amounts {
		for _, stage := range stages {
			split := ComputeSplit(amount, testPolicy, stage)
			if split.Total() != amount {
				t.Errorf("amount %d stage %s: buckets sum to %d", amount, stage, split.Total())
			}
			if split.CustomerRefund < 0 || split.VendorRetained < 0 || split.PlatformRetained < 0 {
				t.Errorf("amount %d stage %s: negative bucket %+v", amount, stage, split)
			}
			if split.CustomerRefund > amount {
				t.Errorf("amount %d stage %s: customer over-refunded", amount, stage)
			}
		}
	}
}

func TestComputeSplitZeroAndNegative(t *testing.T) {
	for _, amount := range []int64{0, -500} {
		split := ComputeSplit(amount, testPolicy, StageWorkStarted)
		if split.Total() != 0 {
			t.Errorf("amount %d: expected empty split, got %+v", amount, split)
		}
	}
}

func TestRefundMarksAcrossPayments(t *testing.T) {
	payments := []models.Payment{
		{ID: "p1", Amount: 60000, Status: models.PaymentSucceeded},
		{ID: "p2", Amount: 40000, Status: models.PaymentSucceeded},
		{ID: "p3", Amount: 5000, Status: models.PaymentFailed},
	}

	// 85% refund of 100000: p1 fully consumed, p2 partially.
	marks := refundMarks(payments, 85000)
	if len(marks) != 2 {
		t.Fatalf("got %d marks, want 2", len(marks))
	}
	if marks[0].PaymentID != "p1" || marks[0].Status != models.PaymentRefunded || marks[0].Amount != 60000 {
		t.Errorf("mark 0 = %+v, want p1 REFUNDED 60000", marks[0])
	}
	if marks[1].PaymentID != "p2" || marks[1].Status != models.PaymentPartiallyRefunded || marks[1].Amount != 25000 {
		t.Errorf("mark 1 = %+v, want p2 PARTIALLY_REFUNDED 25000", marks[1])
	}
	if marks[0].Amount+marks[1].Amount != 85000 {
		t.Errorf("shares sum to %d, want 85000", marks[0].Amount+marks[1].Amount)
	}

	// Zero refund marks nothing.
	if marks := refundMarks(payments, 0); len(marks) != 0 {
		t.Errorf("zero refund produced marks: %+v", marks)
	}

	// Full refund marks every succeeded payment REFUNDED at its full amount.
	marks = refundMarks(payments, 100000)
	if len(marks) != 2 {
		t.Fatalf("got %d marks, want 2", len(marks))
	}
	for i, m := range marks {
		if m.Status != models.PaymentRefunded {
			t.Errorf("mark %+v, want REFUNDED", m)
		}
		if m.Amount != payments[i].Amount {
			t.Errorf("mark %+v, want full amount %d", m, payments[i].Amount)
		}
	}
}
