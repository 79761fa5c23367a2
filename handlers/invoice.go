package handlers

import (
	"errors"
	"net/http"

	"vendora/middleware"
	"vendora/models"
	invoiceSvc "vendora/services/invoice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateInvoice bills an eligible inquiry. Vendor only; the invoice starts in DRAFT.
func (h *HandlerBundle) CreateInvoice(c *gin.Context) {
	var input invoiceSvc.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	input.VendorID = c.GetString(middleware.CtxSubjectID)

	inv, err := h.Invoices.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, invoiceSvc.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, invoiceSvc.ErrInquiryNotEligible):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			getLogger(c).Error("failed to create invoice", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invoice"})
		}
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// SendInvoice moves a DRAFT invoice to PENDING, making it payable.
func (h *HandlerBundle) SendInvoice(c *gin.Context) {
	inv, err := h.Invoices.TransitionToPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, invoiceSvc.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "invoice is not in draft"})
			return
		}
		getLogger(c).Error("failed to send invoice", zap.String("invoice_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send invoice"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// MarkWorkStarted records that the vendor began delivery on a paid invoice.
func (h *HandlerBundle) MarkWorkStarted(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	inv, err := h.Invoices.MarkWorkStarted(c.Request.Context(), c.Param("id"), vendorID)
	if err != nil {
		if errors.Is(err, invoiceSvc.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "invoice must be paid or partially paid, and yours"})
			return
		}
		getLogger(c).Error("failed to mark work started", zap.String("invoice_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark work started"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// GetInvoice fetches one invoice with its derived remaining amount. Only the
// invoice's customer, its vendor, or an admin may read it.
func (h *HandlerBundle) GetInvoice(c *gin.Context) {
	inv, err := h.Invoices.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, invoiceSvc.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch invoice"})
		return
	}
	if !invoiceParty(c, inv) {
		// Same response as a missing invoice so IDs cannot be probed for
		// existence.
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv, "remaining_amount": inv.RemainingAmount()})
}

// invoiceParty reports whether the authenticated subject is a party to the
// invoice: its customer, its vendor, or an admin.
func invoiceParty(c *gin.Context, inv *models.Invoice) bool {
	if c.GetString(middleware.CtxRole) == "admin" {
		return true
	}
	subject := c.GetString(middleware.CtxSubjectID)
	return subject != "" && (subject == inv.UserID || subject == inv.VendorID)
}

// ListVendorInvoices lists the vendor's invoices, optionally filtered by status.
func (h *HandlerBundle) ListVendorInvoices(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	status := models.InvoiceStatus(c.Query("status"))

	invoices, err := h.Invoices.ListVendorInvoices(c.Request.Context(), vendorID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}
