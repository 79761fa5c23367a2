package handlers

import (
	"errors"
	"net/http"

	"vendora/middleware"
	"vendora/models"
	inquirySvc "vendora/services/inquiry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateInquiry accepts a customer's (or guest's) inquiry for a vendor.
func (h *HandlerBundle) CreateInquiry(c *gin.Context) {
	var input inquirySvc.CreateInquiryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	// Authenticated callers are stamped as the inquiring user; guests stay empty.
	if sub := c.GetString(middleware.CtxSubjectID); sub != "" {
		input.UserID = sub
	}

	inq, err := h.Inquiries.CreateInquiry(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, inq)
}

// RespondToInquiry records the vendor's decision on an inquiry.
func (h *HandlerBundle) RespondToInquiry(c *gin.Context) {
	inquiryID := c.Param("id")
	vendorID := c.GetString(middleware.CtxSubjectID)

	var input struct {
		Status   models.InquiryStatus `json:"status"`
		Response string               `json:"response"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	inq, err := h.Inquiries.RespondToInquiry(c.Request.Context(), inquiryID, vendorID, input.Status, input.Response)
	if err != nil {
		if errors.Is(err, inquirySvc.ErrInvalidResponseStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		getLogger(c).Error("failed to respond to inquiry", zap.String("inquiry_id", inquiryID), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "inquiry not found or not open for response"})
		return
	}
	c.JSON(http.StatusOK, inq)
}

// GetInquiry fetches a single inquiry.
func (h *HandlerBundle) GetInquiry(c *gin.Context) {
	inq, err := h.Inquiries.GetInquiry(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inquiry"})
		return
	}
	if inq == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "inquiry not found"})
		return
	}
	c.JSON(http.StatusOK, inq)
}

// ListVendorInquiries lists the authenticated vendor's inquiries.
func (h *HandlerBundle) ListVendorInquiries(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	inquiries, err := h.Inquiries.ListVendorInquiries(c.Request.Context(), vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list inquiries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}
