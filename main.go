package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendora/config"
	"vendora/cron"
	"vendora/database"
	eventsRepo "vendora/database/repository/events"
	inquiryRepoPkg "vendora/database/repository/inquiry"
	invoiceRepoPkg "vendora/database/repository/invoice"
	paymentRepoPkg "vendora/database/repository/payment"
	payoutRepoPkg "vendora/database/repository/payout"
	"vendora/handlers"
	"vendora/models"
	"vendora/routes"
	inquirySvc "vendora/services/inquiry"
	invoiceSvc "vendora/services/invoice"
	paymentSvc "vendora/services/payment"
	"vendora/services/revenue"
	"vendora/services/settlement"
	"vendora/services/storage"
	"vendora/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	storageSvc, err := storage.NewCloudinaryStorage()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	inquiryRepo := inquiryRepoPkg.NewMongoInquiryRepo()
	invoiceRepo := invoiceRepoPkg.NewMongoInvoiceRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentRepo()
	payoutRepo := payoutRepoPkg.NewMongoPayoutRepo()
	eventRepo := eventsRepo.NewMongoEventRepo()

	// The fee policy in force; invoices snapshot it at creation.
	version, platformBps, workStartedBps := config.FeePolicy()
	feePolicy := models.FeePolicy{
		Version:           version,
		PlatformFeeBps:    platformBps,
		WorkStartedFeeBps: workStartedBps,
	}

	// services.
	inquiryService := &inquirySvc.DefaultInquiryService{
		Repo: inquiryRepo,
	}
	invoiceService := &invoiceSvc.DefaultInvoiceService{
		Repo:      invoiceRepo,
		Inquiries: inquiryRepo,
		Policy:    feePolicy,
		DueDays:   config.AppConfig.InvoiceDueDays,
		Logger:    logger,
	}
	intakeService := &paymentSvc.DefaultIntakeService{
		Payments: paymentRepo,
		Invoices: invoiceRepo,
		Cache:    utils.GetCacheClient(),
		Logger:   logger,
	}
	cardRail := &paymentSvc.CardRail{
		Intake: intakeService,
		Repo:   paymentRepo,
		Logger: logger,
	}
	mobileMoneyRail := &paymentSvc.MobileMoneyRail{
		Intake: intakeService,
		Repo:   paymentRepo,
		Logger: logger,
	}
	webhookService := &paymentSvc.WebhookService{
		Intake:        intakeService,
		Events:        eventRepo,
		WebhookSecret: config.AppConfig.StripeWebhookSecret,
		Logger:        logger,
	}
	settlementEngine := &settlement.Engine{
		Invoices:  invoiceRepo,
		Inquiries: inquiryRepo,
		Payments:  paymentRepo,
		Payouts:   payoutRepo,
		Refunders: map[models.PaymentRail]settlement.Refunder{
			models.RailCard:        &settlement.StripeRefunder{Logger: logger},
			models.RailMobileMoney: &settlement.ManualRefunder{Logger: logger},
		},
		Logger: logger,
	}
	revenueService := &revenue.DefaultRevenueService{
		Payments: paymentRepo,
		Payouts:  payoutRepo,
		Cache:    utils.GetCacheClient(),
		Logger:   logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Inquiries:   inquiryService,
		Invoices:    invoiceService,
		Intake:      intakeService,
		Card:        cardRail,
		MobileMoney: mobileMoneyRail,
		Webhooks:    webhookService,
		Settlement:  settlementEngine,
		Revenue:     revenueService,
		Storage:     storageSvc,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Background overdue sweep.
	cron.InitOverdueSweeper(invoiceRepo, logger)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
