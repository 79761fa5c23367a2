package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"vendora/middleware"
	paymentSvc "vendora/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitReceipt attaches mobile-money evidence to a pending payment. The
// request is multipart: an image file plus the claimed transfer details.
func (h *HandlerBundle) SubmitReceipt(c *gin.Context) {
	paymentID := c.Param("id")

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt image is required"})
		return
	}
	defer file.Close()

	imageURL, err := h.Storage.UploadReceiptImage(c.Request.Context(), file, paymentID)
	if err != nil {
		getLogger(c).Error("failed to upload receipt image", zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store receipt image"})
		return
	}

	input := paymentSvc.SubmitReceiptInput{
		PaymentID:              paymentID,
		ImageURL:               imageURL,
		ClaimedReferenceNumber: c.PostForm("reference_number"),
		ClaimedPhone:           c.PostForm("phone"),
	}
	if v := c.PostForm("amount"); v != "" {
		amount, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || amount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		input.ClaimedAmount = amount
	}
	if v := c.PostForm("date"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected RFC 3339"})
			return
		}
		input.ClaimedDate = t
	}

	receipt, err := h.MobileMoney.SubmitReceipt(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, paymentSvc.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, paymentSvc.ErrWrongRail),
			errors.Is(err, paymentSvc.ErrInvalidTransition),
			errors.Is(err, paymentSvc.ErrReceiptAlreadyAttached):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			getLogger(c).Error("failed to submit receipt", zap.String("payment_id", paymentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit receipt"})
		}
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// VerifyReceipt applies the reviewer's approve/reject decision to a
// mobile-money payment.
func (h *HandlerBundle) VerifyReceipt(c *gin.Context) {
	paymentID := c.Param("id")
	reviewerID := c.GetString(middleware.CtxSubjectID)

	var input struct {
		Decision paymentSvc.VerifyDecision `json:"decision"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	p, err := h.MobileMoney.VerifyReceipt(c.Request.Context(), paymentID, input.Decision, reviewerID)
	if err != nil {
		switch {
		case errors.Is(err, paymentSvc.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, paymentSvc.ErrReceiptRequired),
			errors.Is(err, paymentSvc.ErrWrongRail):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			getLogger(c).Error("failed to verify receipt", zap.String("payment_id", paymentID), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListPendingVerification returns the mobile-money review queue, scoped to the
// vendor unless an admin asks for everything.
func (h *HandlerBundle) ListPendingVerification(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	if c.GetString(middleware.CtxRole) == "admin" {
		vendorID = c.Query("vendor_id")
	}

	payments, err := h.MobileMoney.ListPendingVerification(c.Request.Context(), vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending verifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// GetReceipt returns the evidence attached to a payment.
func (h *HandlerBundle) GetReceipt(c *gin.Context) {
	receipt, err := h.MobileMoney.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch receipt"})
		return
	}
	if receipt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no receipt attached"})
		return
	}
	c.JSON(http.StatusOK, receipt)
}
