package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	invoiceRepo "vendora/database/repository/invoice"
	paymentRepo "vendora/database/repository/payment"
	"vendora/models"

	"go.uber.org/zap"
)

// fakePaymentRepo is an in-memory PaymentRepository enforcing the same
// uniqueness and guard rules as the mongo implementation. It shares one lock
// with the invoice fake so a resolution transaction is atomic across both,
// like the real session transaction.
type fakePaymentRepo struct {
	mu       *sync.Mutex
	payments map[string]*models.Payment
	receipts map[string]*models.Receipt
	invoices *fakeInvoiceRepo
}

func newFakePaymentRepo(inv *fakeInvoiceRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		mu:       inv.mu,
		payments: make(map[string]*models.Payment),
		receipts: make(map[string]*models.Receipt),
		invoices: inv,
	}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.InvoiceID == p.InvoiceID && existing.IdempotencyKey == p.IdempotencyKey {
			return paymentRepo.ErrDuplicateKey
		}
	}
	cp := *p
	cp.CreatedAt = time.Now()
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) GetByProviderRef(ctx context.Context, provider, ref string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.Provider == provider && p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetByIdempotencyKey(ctx context.Context, invoiceID, key string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID && p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) SetProviderRef(ctx context.Context, id, provider, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return paymentRepo.ErrConflict
	}
	p.Provider = provider
	p.ProviderRef = ref
	return nil
}

func (f *fakePaymentRepo) MarkProcessing(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != models.PaymentPending {
		return false, nil
	}
	p.Status = models.PaymentProcessing
	return true, nil
}

func (f *fakePaymentRepo) ResolveSucceededTx(ctx context.Context, res paymentRepo.SucceededResolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[res.PaymentID]
	if !ok || (p.Status != models.PaymentPending && p.Status != models.PaymentProcessing) {
		return paymentRepo.ErrConflict
	}
	inv := f.invoices.invoices[res.InvoiceID]
	if inv == nil || inv.PaidAmount+res.Amount > inv.TotalAmount {
		return paymentRepo.ErrConflict
	}

	p.Status = models.PaymentSucceeded
	p.Provider = res.Provider
	p.ProviderRef = res.ProviderRef
	p.PlatformFeeAmount = res.PlatformFee
	p.VendorAmount = res.VendorAmt
	p.ProcessedAt = &res.ProcessedAt

	inv.PaidAmount += res.Amount
	if inv.PaidAmount == inv.TotalAmount {
		inv.Status = models.InvoicePaid
		inv.PaidAt = &res.ProcessedAt
	} else {
		inv.Status = models.InvoicePartiallyPaid
	}
	return nil
}

func (f *fakePaymentRepo) ResolveFailed(ctx context.Context, id, provider, ref, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status.Terminal() {
		return false, nil
	}
	p.Status = models.PaymentFailed
	p.Provider = provider
	p.ProviderRef = ref
	p.FailureReason = reason
	return true, nil
}

func (f *fakePaymentRepo) MarkRefunded(ctx context.Context, id string, status models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[id].Status = status
	return nil
}

func (f *fakePaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) ListByVendor(ctx context.Context, vendorID string, from, to *time.Time) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.VendorID == vendorID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) SumSucceededByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID {
			switch p.Status {
			case models.PaymentSucceeded, models.PaymentRefunded, models.PaymentPartiallyRefunded:
				sum += p.Amount
			}
		}
	}
	return sum, nil
}

func (f *fakePaymentRepo) AttachReceipt(ctx context.Context, r *models.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.receipts[r.PaymentID]; exists {
		return paymentRepo.ErrDuplicateKey
	}
	cp := *r
	f.receipts[r.PaymentID] = &cp
	return nil
}

func (f *fakePaymentRepo) GetReceiptByPaymentID(ctx context.Context, paymentID string) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[paymentID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakePaymentRepo) SetReceiptReview(ctx context.Context, paymentID, reviewerID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[paymentID]
	if !ok {
		return paymentRepo.ErrConflict
	}
	r.ReviewedBy = reviewerID
	r.ReviewedAt = &at
	return nil
}

func (f *fakePaymentRepo) ListPendingVerification(ctx context.Context, vendorID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for paymentID := range f.receipts {
		p := f.payments[paymentID]
		if p != nil && p.Status == models.PaymentPending && (vendorID == "" || p.VendorID == vendorID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) AggregateVendorRevenue(ctx context.Context, vendorID string, from, to *time.Time) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var vendorTotal, feeTotal int64
	for _, p := range f.payments {
		if p.VendorID != vendorID {
			continue
		}
		switch p.Status {
		case models.PaymentSucceeded, models.PaymentRefunded, models.PaymentPartiallyRefunded:
			vendorTotal += p.VendorAmount
			feeTotal += p.PlatformFeeAmount
		}
	}
	return vendorTotal, feeTotal, nil
}

// fakeInvoiceRepo holds invoices in memory for intake validation.
type fakeInvoiceRepo struct {
	mu       *sync.Mutex
	invoices map[string]*models.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{mu: &sync.Mutex{}, invoices: make(map[string]*models.Invoice)}
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	return "INV-2026-000001-ab12", nil
}

func (f *fakeInvoiceRepo) TransitionToPending(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || inv.Status != models.InvoiceDraft {
		return false, nil
	}
	inv.Status = models.InvoicePending
	return true, nil
}

func (f *fakeInvoiceRepo) MarkWorkStarted(ctx context.Context, id, vendorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || inv.VendorID != vendorID {
		return false, nil
	}
	if inv.Status != models.InvoicePaid && inv.Status != models.InvoicePartiallyPaid {
		return false, nil
	}
	inv.WorkStarted = true
	return true, nil
}

func (f *fakeInvoiceRepo) SetRefundSettled(ctx context.Context, id string, settled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[id].RefundSettled = settled
	return nil
}

func (f *fakeInvoiceRepo) ListByVendor(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error) {
	return nil, nil
}

func (f *fakeInvoiceRepo) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

var _ paymentRepo.PaymentRepository = (*fakePaymentRepo)(nil)
var _ invoiceRepo.InvoiceRepository = (*fakeInvoiceRepo)(nil)

func newTestIntake(t *testing.T) (*DefaultIntakeService, *fakePaymentRepo, *fakeInvoiceRepo) {
	t.Helper()
	invoices := newFakeInvoiceRepo()
	payments := newFakePaymentRepo(invoices)
	svc := &DefaultIntakeService{
		Payments: payments,
		Invoices: invoices,
		Logger:   zap.NewNop(),
	}
	return svc, payments, invoices
}

func pendingInvoice(invoices *fakeInvoiceRepo, total int64) *models.Invoice {
	inv := &models.Invoice{
		ID:          "inv-1",
		InquiryID:   "inq-1",
		VendorID:    "vendor-1",
		UserID:      "user-1",
		Status:      models.InvoicePending,
		TotalAmount: total,
		Currency:    "TZS",
		Policy:      models.FeePolicy{Version: 1, PlatformFeeBps: 1500, WorkStartedFeeBps: 4250},
	}
	invoices.invoices[inv.ID] = inv
	return inv
}

func TestCreatePaymentAttemptIdempotent(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	in := CreateAttemptInput{
		InvoiceID:      "inv-1",
		Amount:         100000,
		Currency:       "TZS",
		Method:         "card",
		Rail:           models.RailCard,
		UserID:         "user-1",
		IdempotencyKey: "tok-1",
	}

	first, err := svc.CreatePaymentAttempt(ctx, in)
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	second, err := svc.CreatePaymentAttempt(ctx, in)
	if err != nil {
		t.Fatalf("retried attempt: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("retry created a new payment: %s vs %s", first.ID, second.ID)
	}
}

func TestCreatePaymentAttemptValidation(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	inv := pendingInvoice(invoices, 100000)
	ctx := context.Background()

	base := CreateAttemptInput{
		InvoiceID:      inv.ID,
		Currency:       "TZS",
		Method:         "card",
		Rail:           models.RailCard,
		IdempotencyKey: "tok",
	}

	missing := base
	missing.Amount = 5000
	missing.IdempotencyKey = ""
	if _, err := svc.CreatePaymentAttempt(ctx, missing); err != ErrMissingIdempotencyKey {
		t.Errorf("missing token: got %v", err)
	}

	over := base
	over.Amount = 100001
	if _, err := svc.CreatePaymentAttempt(ctx, over); err != ErrInvoiceNotPayable {
		t.Errorf("over remaining: got %v", err)
	}

	zero := base
	zero.Amount = 0
	if _, err := svc.CreatePaymentAttempt(ctx, zero); err != ErrInvoiceNotPayable {
		t.Errorf("zero amount: got %v", err)
	}

	wrongCurrency := base
	wrongCurrency.Amount = 5000
	wrongCurrency.Currency = "USD"
	if _, err := svc.CreatePaymentAttempt(ctx, wrongCurrency); err != ErrInvoiceNotPayable {
		t.Errorf("currency mismatch: got %v", err)
	}

	invoices.invoices[inv.ID].Status = models.InvoiceDraft
	draft := base
	draft.Amount = 5000
	if _, err := svc.CreatePaymentAttempt(ctx, draft); err != ErrInvoiceNotPayable {
		t.Errorf("draft invoice: got %v", err)
	}
}

func TestResolveOutcomeFeeSplit(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p, err := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "card", Rail: models.RailCard, IdempotencyKey: "tok-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resolved, err := svc.ResolveOutcome(ctx, ResolveInput{
		PaymentID: p.ID, Outcome: models.OutcomeSucceeded,
		Provider: "stripe", ProviderRef: "pi_123",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if resolved.Status != models.PaymentSucceeded {
		t.Errorf("status = %s", resolved.Status)
	}
	if resolved.PlatformFeeAmount != 15000 {
		t.Errorf("platform fee = %d, want 15000", resolved.PlatformFeeAmount)
	}
	if resolved.VendorAmount != 85000 {
		t.Errorf("vendor amount = %d, want 85000", resolved.VendorAmount)
	}
	if resolved.PlatformFeeAmount+resolved.VendorAmount != resolved.Amount {
		t.Errorf("fee split does not sum to amount")
	}

	inv := invoices.invoices["inv-1"]
	if inv.Status != models.InvoicePaid || inv.PaidAmount != 100000 {
		t.Errorf("invoice = %s paid %d", inv.Status, inv.PaidAmount)
	}
}

func TestResolveOutcomeDuplicateDelivery(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p, _ := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "card", Rail: models.RailCard, IdempotencyKey: "tok-1",
	})

	in := ResolveInput{PaymentID: p.ID, Outcome: models.OutcomeSucceeded, Provider: "stripe", ProviderRef: "pi_dup"}
	if _, err := svc.ResolveOutcome(ctx, in); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if _, err := svc.ResolveOutcome(ctx, in); err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}

	inv := invoices.invoices["inv-1"]
	if inv.PaidAmount != 100000 {
		t.Errorf("duplicate delivery double-counted: paid %d", inv.PaidAmount)
	}
}

func TestPartialPaymentsReachPaid(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p1, err := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 60000, Currency: "TZS",
		Method: "mpesa", Rail: models.RailMobileMoney, IdempotencyKey: "tok-a",
	})
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if _, err := svc.ResolveOutcome(ctx, ResolveInput{
		PaymentID: p1.ID, Outcome: models.OutcomeSucceeded, Provider: "mpesa", ProviderRef: "MP1",
	}); err != nil {
		t.Fatalf("resolve first: %v", err)
	}

	inv := invoices.invoices["inv-1"]
	if inv.Status != models.InvoicePartiallyPaid || inv.PaidAmount != 60000 {
		t.Fatalf("after first: %s paid %d", inv.Status, inv.PaidAmount)
	}

	p2, err := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 40000, Currency: "TZS",
		Method: "mpesa", Rail: models.RailMobileMoney, IdempotencyKey: "tok-b",
	})
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if _, err := svc.ResolveOutcome(ctx, ResolveInput{
		PaymentID: p2.ID, Outcome: models.OutcomeSucceeded, Provider: "mpesa", ProviderRef: "MP2",
	}); err != nil {
		t.Fatalf("resolve second: %v", err)
	}

	inv = invoices.invoices["inv-1"]
	if inv.Status != models.InvoicePaid || inv.PaidAmount != 100000 {
		t.Errorf("after second: %s paid %d", inv.Status, inv.PaidAmount)
	}
	if inv.PaidAt == nil {
		t.Errorf("paid_at not stamped")
	}
}

func TestConcurrentResolutionsRespectInvoiceCeiling(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	// Two 60000 attempts are each individually payable, but together they
	// exceed the invoice total. Only one resolution may land.
	p1, err := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 60000, Currency: "TZS",
		Method: "mpesa", Rail: models.RailMobileMoney, IdempotencyKey: "tok-a",
	})
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	p2, err := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 60000, Currency: "TZS",
		Method: "mpesa", Rail: models.RailMobileMoney, IdempotencyKey: "tok-b",
	})
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.ResolveOutcome(ctx, ResolveInput{
			PaymentID: p1.ID, Outcome: models.OutcomeSucceeded, Provider: "mpesa", ProviderRef: "MP-A",
		})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.ResolveOutcome(ctx, ResolveInput{
			PaymentID: p2.ID, Outcome: models.OutcomeSucceeded, Provider: "mpesa", ProviderRef: "MP-B",
		})
	}()
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, paymentRepo.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected resolution error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("got %d successes and %d conflicts, want exactly one of each", succeeded, conflicted)
	}

	inv := invoices.invoices["inv-1"]
	if inv.PaidAmount > inv.TotalAmount {
		t.Errorf("paid %d exceeds total %d", inv.PaidAmount, inv.TotalAmount)
	}
	if inv.PaidAmount != 60000 || inv.Status != models.InvoicePartiallyPaid {
		t.Errorf("invoice = %s paid %d, want PARTIALLY_PAID 60000", inv.Status, inv.PaidAmount)
	}

	// The losing attempt is still PENDING; it can fail or be retried later.
	var succeededPayments int
	for _, id := range []string{p1.ID, p2.ID} {
		if p, _ := svc.Payments.GetByID(ctx, id); p.Status == models.PaymentSucceeded {
			succeededPayments++
		}
	}
	if succeededPayments != 1 {
		t.Errorf("%d payments SUCCEEDED, want exactly 1", succeededPayments)
	}
}

func TestResolveOutcomeFailed(t *testing.T) {
	svc, _, invoices := newTestIntake(t)
	pendingInvoice(invoices, 100000)
	ctx := context.Background()

	p, _ := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "card", Rail: models.RailCard, IdempotencyKey: "tok-1",
	})

	resolved, err := svc.ResolveOutcome(ctx, ResolveInput{
		PaymentID: p.ID, Outcome: models.OutcomeFailed,
		Provider: "stripe", ProviderRef: "pi_fail", FailureReason: "card_declined",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Status != models.PaymentFailed || resolved.FailureReason != "card_declined" {
		t.Errorf("got %s / %q", resolved.Status, resolved.FailureReason)
	}

	// A failed attempt must not touch the invoice.
	inv := invoices.invoices["inv-1"]
	if inv.PaidAmount != 0 || inv.Status != models.InvoicePending {
		t.Errorf("invoice mutated by failed payment: %s paid %d", inv.Status, inv.PaidAmount)
	}

	// The invoice stays payable for another attempt.
	if _, err := svc.CreatePaymentAttempt(ctx, CreateAttemptInput{
		InvoiceID: "inv-1", Amount: 100000, Currency: "TZS",
		Method: "card", Rail: models.RailCard, IdempotencyKey: "tok-2",
	}); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}
