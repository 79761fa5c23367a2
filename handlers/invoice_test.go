package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vendora/middleware"
	"vendora/models"
	invoiceSvc "vendora/services/invoice"
	paymentSvc "vendora/services/payment"

	"github.com/gin-gonic/gin"
)

type fakeInvoiceService struct {
	invoice *models.Invoice
}

func (f *fakeInvoiceService) CreateInvoice(ctx context.Context, in invoiceSvc.CreateInvoiceInput) (*models.Invoice, error) {
	return f.invoice, nil
}

func (f *fakeInvoiceService) TransitionToPending(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	return f.invoice, nil
}

func (f *fakeInvoiceService) MarkWorkStarted(ctx context.Context, invoiceID, vendorID string) (*models.Invoice, error) {
	return f.invoice, nil
}

func (f *fakeInvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	if f.invoice == nil || f.invoice.ID != id {
		return nil, invoiceSvc.ErrInvoiceNotFound
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) ListVendorInvoices(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error) {
	return nil, nil
}

type fakeIntakeService struct {
	payments []models.Payment
}

func (f *fakeIntakeService) CreatePaymentAttempt(ctx context.Context, in paymentSvc.CreateAttemptInput) (*models.Payment, error) {
	return nil, nil
}

func (f *fakeIntakeService) AdvanceToProcessing(ctx context.Context, paymentID string) (*models.Payment, error) {
	return nil, nil
}

func (f *fakeIntakeService) ResolveOutcome(ctx context.Context, in paymentSvc.ResolveInput) (*models.Payment, error) {
	return nil, nil
}

func (f *fakeIntakeService) GetPaymentStatus(ctx context.Context, paymentID string) (*models.Payment, error) {
	return nil, nil
}

func (f *fakeIntakeService) ListInvoicePayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	return f.payments, nil
}

func (f *fakeIntakeService) ListVendorPayments(ctx context.Context, vendorID string, from, to *time.Time) ([]models.Payment, error) {
	return nil, nil
}

// asSubject stands in for the auth middleware, stamping an already-verified
// identity onto the request.
func asSubject(subject, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxSubjectID, subject)
		c.Set(middleware.CtxRole, role)
	}
}

func newInvoiceTestRouter(subject, role string) (*gin.Engine, *fakeInvoiceService) {
	gin.SetMode(gin.TestMode)
	invoices := &fakeInvoiceService{invoice: &models.Invoice{
		ID: "inv-1", InquiryID: "inq-1", UserID: "user-1", VendorID: "vendor-1",
		Status: models.InvoicePending, TotalAmount: 100000, Currency: "TZS",
	}}
	intake := &fakeIntakeService{payments: []models.Payment{{ID: "pay-1", InvoiceID: "inv-1"}}}
	hb := &HandlerBundle{Invoices: invoices, Intake: intake}

	r := gin.New()
	r.GET("/api/invoices/:id", asSubject(subject, role), hb.GetInvoice)
	r.GET("/api/invoices/:id/payments", asSubject(subject, role), hb.ListInvoicePayments)
	return r, invoices
}

func getStatus(t *testing.T, router *gin.Engine, path string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestGetInvoiceOwnership(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		role    string
		want    int
	}{
		{"customer on own invoice", "user-1", "customer", http.StatusOK},
		{"vendor on own invoice", "vendor-1", "vendor", http.StatusOK},
		{"admin on any invoice", "ops-9", "admin", http.StatusOK},
		{"authenticated stranger", "user-2", "customer", http.StatusNotFound},
		{"other vendor", "vendor-2", "vendor", http.StatusNotFound},
	}
	for _, tc := range cases {
		router, _ := newInvoiceTestRouter(tc.subject, tc.role)
		if got := getStatus(t, router, "/api/invoices/inv-1"); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestGetInvoiceMissing(t *testing.T) {
	router, _ := newInvoiceTestRouter("user-1", "customer")
	if got := getStatus(t, router, "/api/invoices/no-such"); got != http.StatusNotFound {
		t.Errorf("status = %d, want 404", got)
	}
}

func TestListInvoicePaymentsOwnership(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		role    string
		want    int
	}{
		{"customer on own invoice", "user-1", "customer", http.StatusOK},
		{"vendor on own invoice", "vendor-1", "vendor", http.StatusOK},
		{"admin on any invoice", "ops-9", "admin", http.StatusOK},
		{"authenticated stranger", "user-2", "customer", http.StatusNotFound},
	}
	for _, tc := range cases {
		router, _ := newInvoiceTestRouter(tc.subject, tc.role)
		if got := getStatus(t, router, "/api/invoices/inv-1/payments"); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}
}
