package handlers

import (
	"errors"
	"net/http"
	"time"

	"vendora/middleware"
	invoiceSvc "vendora/services/invoice"
	paymentSvc "vendora/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartCardPayment creates a card attempt and returns the client secret for
// the browser confirm step.
func (h *HandlerBundle) StartCardPayment(c *gin.Context) {
	var input paymentSvc.CreateAttemptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	input.UserID = c.GetString(middleware.CtxSubjectID)
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	checkout, err := h.Card.StartCardPayment(c.Request.Context(), input)
	if err != nil {
		h.writePaymentError(c, err, "failed to start card payment")
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

// StartMobileMoneyPayment creates a pending mobile-money attempt the customer
// will attach evidence to.
func (h *HandlerBundle) StartMobileMoneyPayment(c *gin.Context) {
	var input paymentSvc.CreateAttemptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	input.UserID = c.GetString(middleware.CtxSubjectID)
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	p, err := h.MobileMoney.StartMobileMoneyPayment(c.Request.Context(), input)
	if err != nil {
		h.writePaymentError(c, err, "failed to start mobile money payment")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetPaymentStatus is the checkout poll endpoint.
func (h *HandlerBundle) GetPaymentStatus(c *gin.Context) {
	p, err := h.Intake.GetPaymentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, paymentSvc.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch payment"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListInvoicePayments lists all attempts toward one invoice, for the
// invoice's parties only.
func (h *HandlerBundle) ListInvoicePayments(c *gin.Context) {
	inv, err := h.Invoices.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, invoiceSvc.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	if !invoiceParty(c, inv) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	payments, err := h.Intake.ListInvoicePayments(c.Request.Context(), inv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// ListVendorPayments lists the vendor's payments in an optional date window
// (from/to as RFC 3339 query params).
func (h *HandlerBundle) ListVendorPayments(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	from, to, err := parseDateWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payments, err := h.Intake.ListVendorPayments(c.Request.Context(), vendorID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *HandlerBundle) writePaymentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, paymentSvc.ErrInvoiceNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, paymentSvc.ErrMissingIdempotencyKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, paymentSvc.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		getLogger(c).Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseDateWindow(c *gin.Context) (from, to *time.Time, err error) {
	if v := c.Query("from"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, errors.New("invalid 'from' date, expected RFC 3339")
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, errors.New("invalid 'to' date, expected RFC 3339")
		}
		to = &t
	}
	return from, to, nil
}
