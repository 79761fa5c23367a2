package invoice

import "errors"

var (
	// ErrInquiryNotEligible is returned when the inquiry doesn't belong to
	// the vendor or is not in a responded/accepted state.
	ErrInquiryNotEligible = errors.New("inquiry not eligible for invoicing")
	// ErrInvalidAmount rejects invoices whose computed total is negative.
	ErrInvalidAmount = errors.New("invoice amounts are invalid")
	// ErrInvoiceNumberGeneration is returned when number allocation keeps
	// colliding after retries.
	ErrInvoiceNumberGeneration = errors.New("could not allocate a unique invoice number")
	// ErrInvalidTransition rejects status transitions outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid invoice status transition")
	// ErrInvoiceNotFound is returned for unknown invoice IDs.
	ErrInvoiceNotFound = errors.New("invoice not found")
)
