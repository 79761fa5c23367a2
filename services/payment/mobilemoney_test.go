package payment

import (
	"context"
	"testing"
	"time"

	"vendora/models"

	"go.uber.org/zap"
)

func newTestMobileMoneyRail(t *testing.T) (*MobileMoneyRail, *fakePaymentRepo, *fakeInvoiceRepo) {
	t.Helper()
	svc, payments, invoices := newTestIntake(t)
	rail := &MobileMoneyRail{
		Intake: svc,
		Repo:   payments,
		Logger: zap.NewNop(),
	}
	return rail, payments, invoices
}

func TestSubmitReceiptOncePerPayment(t *testing.T) {
	rail, _, invoices := newTestMobileMoneyRail(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p, err := rail.StartMobileMoneyPayment(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "mpesa", IdempotencyKey: "tok-1",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Rail != models.RailMobileMoney {
		t.Fatalf("rail = %s", p.Rail)
	}

	in := SubmitReceiptInput{
		PaymentID:              p.ID,
		ImageURL:               "https://img/receipt.png",
		ClaimedReferenceNumber: "QA12BC34",
		ClaimedPhone:           "+255700000001",
		ClaimedAmount:          100000,
		ClaimedDate:            time.Now(),
	}
	if _, err := rail.SubmitReceipt(ctx, in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := rail.SubmitReceipt(ctx, in); err != ErrReceiptAlreadyAttached {
		t.Errorf("second submit: got %v", err)
	}
}

func TestSubmitReceiptWrongRail(t *testing.T) {
	rail, payments, invoices := newTestMobileMoneyRail(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	cardPayment := &models.Payment{
		ID: "pay-card", InvoiceID: "inv-1", VendorID: "vendor-1",
		Amount: 100000, Currency: "TZS", Method: "card",
		Rail: models.RailCard, Status: models.PaymentPending, IdempotencyKey: "tok-c",
	}
	if err := payments.Create(ctx, cardPayment); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := rail.SubmitReceipt(ctx, SubmitReceiptInput{PaymentID: "pay-card", ImageURL: "u"})
	if err != ErrWrongRail {
		t.Errorf("got %v, want ErrWrongRail", err)
	}
}

func TestVerifyReceiptApprove(t *testing.T) {
	rail, payments, invoices := newTestMobileMoneyRail(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p, _ := rail.StartMobileMoneyPayment(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "mpesa", IdempotencyKey: "tok-1",
	})

	// Verification without evidence is rejected.
	if _, err := rail.VerifyReceipt(ctx, p.ID, DecisionApprove, "admin-1"); err != ErrReceiptRequired {
		t.Fatalf("no receipt: got %v", err)
	}

	if _, err := rail.SubmitReceipt(ctx, SubmitReceiptInput{
		PaymentID: p.ID, ImageURL: "https://img/r.png",
		ClaimedReferenceNumber: "QA12BC34", ClaimedAmount: 100000, ClaimedDate: time.Now(),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	resolved, err := rail.VerifyReceipt(ctx, p.ID, DecisionApprove, "admin-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if resolved.Status != models.PaymentSucceeded {
		t.Errorf("status = %s", resolved.Status)
	}
	if resolved.Provider != "mpesa" || resolved.ProviderRef != "QA12BC34" {
		t.Errorf("provider correlation = %s/%s", resolved.Provider, resolved.ProviderRef)
	}

	receipt := payments.receipts[p.ID]
	if receipt.ReviewedBy != "admin-1" || receipt.ReviewedAt == nil {
		t.Errorf("review stamp missing: %+v", receipt)
	}

	inv := invoices.invoices["inv-1"]
	if inv.Status != models.InvoicePaid {
		t.Errorf("invoice = %s", inv.Status)
	}

	// Re-verifying a terminal payment is a no-op.
	again, err := rail.VerifyReceipt(ctx, p.ID, DecisionReject, "admin-2")
	if err != nil {
		t.Fatalf("re-verify: %v", err)
	}
	if again.Status != models.PaymentSucceeded {
		t.Errorf("re-verify changed status to %s", again.Status)
	}
}

func TestVerifyReceiptReject(t *testing.T) {
	rail, _, invoices := newTestMobileMoneyRail(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p, _ := rail.StartMobileMoneyPayment(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "tigopesa", IdempotencyKey: "tok-1",
	})
	if _, err := rail.SubmitReceipt(ctx, SubmitReceiptInput{
		PaymentID: p.ID, ImageURL: "https://img/r.png",
		ClaimedReferenceNumber: "ZZ99", ClaimedAmount: 100000, ClaimedDate: time.Now(),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	resolved, err := rail.VerifyReceipt(ctx, p.ID, DecisionReject, "vendor-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if resolved.Status != models.PaymentFailed {
		t.Errorf("status = %s", resolved.Status)
	}

	inv := invoices.invoices["inv-1"]
	if inv.PaidAmount != 0 || inv.Status != models.InvoicePending {
		t.Errorf("rejected receipt mutated invoice: %s paid %d", inv.Status, inv.PaidAmount)
	}
}
