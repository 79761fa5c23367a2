package routes

import (
	"net/http"
	"time"

	"vendora/handlers"
	"vendora/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterInquiryRoutes registers the inquiry lifecycle endpoints.
func RegisterInquiryRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/inquiries")
	{
		// Guests may inquire without a token.
		api.POST("", hb.CreateInquiry)
		api.GET("/:id", middleware.JWTAuthMiddleware(), hb.GetInquiry)

		vendor := api.Group("")
		vendor.Use(middleware.JWTAuthMiddleware("vendor"))
		vendor.GET("", hb.ListVendorInquiries)
		vendor.POST("/:id/respond", hb.RespondToInquiry)
	}
}

// RegisterInvoiceRoutes registers invoice management and cancellation.
func RegisterInvoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/invoices")
	{
		api.GET("/:id", middleware.JWTAuthMiddleware(), hb.GetInvoice)
		api.GET("/:id/payments", middleware.JWTAuthMiddleware(), hb.ListInvoicePayments)

		vendor := api.Group("")
		vendor.Use(middleware.JWTAuthMiddleware("vendor"))
		vendor.POST("", hb.CreateInvoice)
		vendor.GET("", hb.ListVendorInvoices)
		vendor.POST("/:id/send", hb.SendInvoice)
		vendor.POST("/:id/work-started", hb.MarkWorkStarted)

		// Either side may cancel; the engine decides the tier from who calls.
		party := api.Group("")
		party.Use(middleware.JWTAuthMiddleware("customer", "vendor", "admin"))
		party.GET("/:id/cancellation", hb.PreviewCancellation)
		party.POST("/:id/cancel", hb.CancelInvoice)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware("admin"))
		admin.POST("/:id/refund-settled", hb.ConfirmManualRefund)
	}
}

// RegisterPaymentRoutes registers both rails and the status poll.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		customer := api.Group("")
		customer.Use(middleware.JWTAuthMiddleware("customer", "admin"))
		customer.POST("/card", hb.StartCardPayment)
		customer.POST("/mobile-money", hb.StartMobileMoneyPayment)
		customer.POST("/:id/receipt", hb.SubmitReceipt)

		api.GET("/:id", middleware.JWTAuthMiddleware(), hb.GetPaymentStatus)
		api.GET("/:id/receipt", middleware.JWTAuthMiddleware(), hb.GetReceipt)

		reviewer := api.Group("")
		reviewer.Use(middleware.JWTAuthMiddleware("vendor", "admin"))
		reviewer.GET("/pending-verification", hb.ListPendingVerification)
		reviewer.POST("/:id/verify", hb.VerifyReceipt)
	}
}

// RegisterVendorRoutes registers vendor-facing rollups.
func RegisterVendorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/vendor")
	api.Use(middleware.JWTAuthMiddleware("vendor", "admin"))
	{
		api.GET("/payments", hb.ListVendorPayments)
		api.GET("/revenue", hb.GetVendorRevenueSummary)
		api.GET("/payouts", hb.ListVendorPayouts)
	}
}

// RegisterWebhookRoutes registers provider callbacks. No auth middleware; the
// signature check inside the handler is the authentication.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/webhooks/stripe", hb.StripeWebhook)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Vendora"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterInquiryRoutes(r, hb)
	RegisterInvoiceRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterVendorRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
}
