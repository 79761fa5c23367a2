package payment

import "errors"

var (
	// ErrInvoiceNotPayable is returned when the invoice is not in a payable
	// state or the amount exceeds what remains.
	ErrInvoiceNotPayable = errors.New("invoice is not payable for this amount")
	// ErrPaymentNotFound is returned for unknown payment IDs.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvalidTransition rejects status moves outside the forward-only
	// machine.
	ErrInvalidTransition = errors.New("invalid payment status transition")
	// ErrMissingIdempotencyKey rejects intake calls without a client token;
	// without one, a double-click creates two attempts.
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	// ErrReceiptRequired is returned when a mobile-money payment is verified
	// without evidence attached.
	ErrReceiptRequired = errors.New("payment has no receipt attached")
	// ErrReceiptAlreadyAttached is returned on a second receipt submission.
	ErrReceiptAlreadyAttached = errors.New("payment already has a receipt")
	// ErrWrongRail is returned when a rail-specific operation is applied to
	// a payment created on the other rail.
	ErrWrongRail = errors.New("operation does not match the payment rail")
)
