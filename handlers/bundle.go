package handlers

import (
	inquirySvc "vendora/services/inquiry"
	invoiceSvc "vendora/services/invoice"
	paymentSvc "vendora/services/payment"
	"vendora/services/revenue"
	"vendora/services/settlement"
	"vendora/services/storage"
)

// HandlerBundle groups all endpoint handlers and the services they delegate to.
type HandlerBundle struct {
	Inquiries   inquirySvc.InquiryService
	Invoices    invoiceSvc.InvoiceService
	Intake      paymentSvc.IntakeService
	Card        *paymentSvc.CardRail
	MobileMoney *paymentSvc.MobileMoneyRail
	Webhooks    *paymentSvc.WebhookService
	Settlement  *settlement.Engine
	Revenue     revenue.RevenueService
	Storage     storage.StorageService
}
