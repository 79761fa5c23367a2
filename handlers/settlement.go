package handlers

import (
	"errors"
	"net/http"

	"vendora/middleware"
	"vendora/services/settlement"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PreviewCancellation computes the split a cancellation would produce without
// applying it. Customers see what they would get back before committing.
func (h *HandlerBundle) PreviewCancellation(c *gin.Context) {
	invoiceID := c.Param("id")
	cancelledBy := c.GetString(middleware.CtxSubjectID)

	result, err := h.Settlement.ComputeCancellation(c.Request.Context(), invoiceID, cancelledBy)
	if err != nil {
		h.writeSettlementError(c, err, "failed to compute cancellation")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelInvoice executes a cancellation. The client token makes retries
// no-ops; repeating with a different token is rejected.
func (h *HandlerBundle) CancelInvoice(c *gin.Context) {
	invoiceID := c.Param("id")
	cancelledBy := c.GetString(middleware.CtxSubjectID)

	var input struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := h.Settlement.ExecuteCancellation(c.Request.Context(), invoiceID, cancelledBy, input.Token)
	if err != nil {
		h.writeSettlementError(c, err, "failed to cancel invoice")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmManualRefund is the admin confirmation that an out-of-band refund
// reached the customer.
func (h *HandlerBundle) ConfirmManualRefund(c *gin.Context) {
	inv, err := h.Settlement.ConfirmManualRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeSettlementError(c, err, "failed to confirm manual refund")
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *HandlerBundle) writeSettlementError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, settlement.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, settlement.ErrMissingToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, settlement.ErrCancellationConflict),
		errors.Is(err, settlement.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		getLogger(c).Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
