package handlers

import (
	"net/http"

	"vendora/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetVendorRevenueSummary serves the vendor dashboard rollup for an optional
// RFC 3339 from/to window.
func (h *HandlerBundle) GetVendorRevenueSummary(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	if c.GetString(middleware.CtxRole) == "admin" && c.Query("vendor_id") != "" {
		vendorID = c.Query("vendor_id")
	}

	from, to, err := parseDateWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.Revenue.GetVendorRevenueSummary(c.Request.Context(), vendorID, c.DefaultQuery("currency", "TZS"), from, to)
	if err != nil {
		getLogger(c).Error("failed to build revenue summary", zap.String("vendor_id", vendorID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build revenue summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListVendorPayouts returns the vendor's payout history, clawbacks included.
func (h *HandlerBundle) ListVendorPayouts(c *gin.Context) {
	vendorID := c.GetString(middleware.CtxSubjectID)
	payouts, err := h.Revenue.ListVendorPayouts(c.Request.Context(), vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}
