package settlement

import "errors"

var (
	// ErrInvoiceNotFound is returned for unknown invoice IDs.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrNotCancellable is returned when the invoice is already in a terminal
	// state that cancellation cannot apply to.
	ErrNotCancellable = errors.New("invoice cannot be cancelled")
	// ErrCancellationConflict is returned when the invoice was already
	// cancelled under a different cancellation token.
	ErrCancellationConflict = errors.New("invoice already cancelled under another token")
	// ErrMissingToken rejects cancellation requests without a client token.
	ErrMissingToken = errors.New("cancellation token is required")
)
