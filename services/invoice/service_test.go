package invoice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	inquiryRepoPkg "vendora/database/repository/inquiry"
	invoiceRepo "vendora/database/repository/invoice"
	"vendora/models"

	"go.uber.org/zap"
)

type fakeInquiryRepo struct {
	inquiries map[string]*models.Inquiry
}

func (f *fakeInquiryRepo) Create(ctx context.Context, inq *models.Inquiry) error {
	cp := *inq
	f.inquiries[inq.ID] = &cp
	return nil
}

func (f *fakeInquiryRepo) GetByID(ctx context.Context, id string) (*models.Inquiry, error) {
	inq, ok := f.inquiries[id]
	if !ok {
		return nil, nil
	}
	cp := *inq
	return &cp, nil
}

func (f *fakeInquiryRepo) SetResponse(ctx context.Context, id, vendorID string, status models.InquiryStatus, response string, respondedAt time.Time) error {
	inq, ok := f.inquiries[id]
	if !ok || inq.VendorID != vendorID {
		return errors.New("inquiry not found")
	}
	inq.Status = status
	inq.VendorResponse = response
	inq.RespondedAt = &respondedAt
	return nil
}

func (f *fakeInquiryRepo) ListByVendor(ctx context.Context, vendorID string) ([]models.Inquiry, error) {
	return nil, nil
}

type fakeInvoiceStore struct {
	invoices  map[string]*models.Invoice
	numbers   map[string]bool
	seq       int
	collideN  int // first N creates report a number collision
	createdAt []string
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{
		invoices: make(map[string]*models.Invoice),
		numbers:  make(map[string]bool),
	}
}

func (f *fakeInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	if f.collideN > 0 {
		f.collideN--
		return invoiceRepo.ErrDuplicateInvoiceNumber
	}
	if f.numbers[inv.InvoiceNumber] {
		return invoiceRepo.ErrDuplicateInvoiceNumber
	}
	f.numbers[inv.InvoiceNumber] = true
	cp := *inv
	f.invoices[inv.ID] = &cp
	f.createdAt = append(f.createdAt, inv.ID)
	return nil
}

func (f *fakeInvoiceStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceStore) NextInvoiceNumber(ctx context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("INV-2026-%06d-ab12", f.seq), nil
}

func (f *fakeInvoiceStore) TransitionToPending(ctx context.Context, id string) (bool, error) {
	inv, ok := f.invoices[id]
	if !ok || inv.Status != models.InvoiceDraft {
		return false, nil
	}
	inv.Status = models.InvoicePending
	return true, nil
}

func (f *fakeInvoiceStore) MarkWorkStarted(ctx context.Context, id, vendorID string) (bool, error) {
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

func (f *fakeInvoiceStore) SetRefundSettled(ctx context.Context, id string, settled bool) error {
	f.invoices[id].RefundSettled = settled
	return nil
}

func (f *fakeInvoiceStore) ListByVendor(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error) {
	return nil, nil
}

func (f *fakeInvoiceStore) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invoices {
		if inv.Status == models.InvoicePending && inv.PaidAmount == 0 && inv.DueDate.Before(now) {
			inv.Status = models.InvoiceOverdue
			n++
		}
	}
	return n, nil
}

var _ invoiceRepo.InvoiceRepository = (*fakeInvoiceStore)(nil)
var _ inquiryRepoPkg.InquiryRepository = (*fakeInquiryRepo)(nil)

func newTestService(t *testing.T) (*DefaultInvoiceService, *fakeInvoiceStore, *fakeInquiryRepo) {
	t.Helper()
	store := newFakeInvoiceStore()
	inquiries := &fakeInquiryRepo{inquiries: map[string]*models.Inquiry{
		"inq-1": {ID: "inq-1", VendorID: "vendor-1", UserID: "user-1", Status: models.InquiryResponded},
		"inq-2": {ID: "inq-2", VendorID: "vendor-1", Status: models.InquiryPending},
		"inq-3": {ID: "inq-3", VendorID: "vendor-2", Status: models.InquiryAccepted},
	}}
	svc := &DefaultInvoiceService{
		Repo:      store,
		Inquiries: inquiries,
		Policy:    models.FeePolicy{Version: 1, PlatformFeeBps: 1500, WorkStartedFeeBps: 4250},
		DueDays:   14,
		Logger:    zap.NewNop(),
	}
	return svc, store, inquiries
}

func validInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		VendorID:  "vendor-1",
		InquiryID: "inq-1",
		Type:      models.InvoiceFullPayment,
		Subtotal:  90000,
		TaxAmount: 16200,
		Currency:  "TZS",
	}
}

func TestCreateInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Status != models.InvoiceDraft {
		t.Errorf("status = %s, want DRAFT", inv.Status)
	}
	if inv.TotalAmount != 106200 {
		t.Errorf("total = %d, want 106200", inv.TotalAmount)
	}
	if inv.UserID != "user-1" {
		t.Errorf("user = %s, want inherited from inquiry", inv.UserID)
	}
	if inv.InvoiceNumber == "" {
		t.Errorf("invoice number not assigned")
	}
	if inv.Policy.PlatformFeeBps != 1500 || inv.Policy.Version != 1 {
		t.Errorf("policy snapshot missing: %+v", inv.Policy)
	}
	wantDue := inv.IssueDate.AddDate(0, 0, 14)
	if !inv.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", inv.DueDate, wantDue)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	negative := validInput()
	negative.Subtotal = -1
	if _, err := svc.CreateInvoice(ctx, negative); err != ErrInvalidAmount {
		t.Errorf("negative subtotal: got %v", err)
	}

	discounted := validInput()
	discounted.DiscountAmount = 200000
	if _, err := svc.CreateInvoice(ctx, discounted); err != ErrInvalidAmount {
		t.Errorf("discount exceeding total: got %v", err)
	}

	noCurrency := validInput()
	noCurrency.Currency = ""
	if _, err := svc.CreateInvoice(ctx, noCurrency); err != ErrInvalidAmount {
		t.Errorf("missing currency: got %v", err)
	}

	pendingInquiry := validInput()
	pendingInquiry.InquiryID = "inq-2"
	if _, err := svc.CreateInvoice(ctx, pendingInquiry); err != ErrInquiryNotEligible {
		t.Errorf("pending inquiry: got %v", err)
	}

	foreignInquiry := validInput()
	foreignInquiry.InquiryID = "inq-3"
	if _, err := svc.CreateInvoice(ctx, foreignInquiry); err != ErrInquiryNotEligible {
		t.Errorf("other vendor's inquiry: got %v", err)
	}
}

func TestCreateInvoiceNumberCollisionRetries(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	store.collideN = 2
	inv, err := svc.CreateInvoice(ctx, validInput())
	if err != nil {
		t.Fatalf("create with collisions: %v", err)
	}
	if inv.InvoiceNumber == "" {
		t.Errorf("no number after retries")
	}

	store.collideN = numberRetries
	if _, err := svc.CreateInvoice(ctx, validInput()); err != ErrInvoiceNumberGeneration {
		t.Errorf("exhausted retries: got %v", err)
	}
}

func TestTransitionToPending(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, _ := svc.CreateInvoice(ctx, validInput())

	got, err := svc.TransitionToPending(ctx, inv.ID)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != models.InvoicePending {
		t.Errorf("status = %s", got.Status)
	}

	// A second send is rejected.
	if _, err := svc.TransitionToPending(ctx, inv.ID); err != ErrInvalidTransition {
		t.Errorf("double send: got %v", err)
	}
}

func TestMarkWorkStarted(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	inv, _ := svc.CreateInvoice(ctx, validInput())

	// Not paid yet.
	if _, err := svc.MarkWorkStarted(ctx, inv.ID, "vendor-1"); err != ErrInvalidTransition {
		t.Errorf("unpaid invoice: got %v", err)
	}

	store.invoices[inv.ID].Status = models.InvoicePartiallyPaid

	// Wrong vendor.
	if _, err := svc.MarkWorkStarted(ctx, inv.ID, "vendor-2"); err != ErrInvalidTransition {
		t.Errorf("foreign vendor: got %v", err)
	}

	got, err := svc.MarkWorkStarted(ctx, inv.ID, "vendor-1")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !got.WorkStarted {
		t.Errorf("work_started not set")
	}
}

func TestSweepOverdueOnlyUntouchedPending(t *testing.T) {
	_, store, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 7)
	store.invoices["a"] = &models.Invoice{ID: "a", Status: models.InvoicePending, DueDate: past}
	store.invoices["b"] = &models.Invoice{ID: "b", Status: models.InvoicePending, DueDate: future}
	store.invoices["c"] = &models.Invoice{ID: "c", Status: models.InvoicePartiallyPaid, PaidAmount: 500, DueDate: past}

	n, err := store.SweepOverdue(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if store.invoices["a"].Status != models.InvoiceOverdue {
		t.Errorf("past-due pending not marked")
	}
	if store.invoices["c"].Status != models.InvoicePartiallyPaid {
		t.Errorf("partially paid invoice must not be swept")
	}
}
