package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain error taxonomy. Handlers map these onto HTTP statuses; callers can
// test with errors.Is / errors.As.
var (
	// ErrInvalidQuantity rejects non-positive requested quantities before the
	// ledger is touched.
	ErrInvalidQuantity = errors.New("requested quantity must be positive")

	// ErrOutOfStock means no eligible batch combination covers the requested
	// quantity. Recoverable: reduce the quantity or restock.
	ErrOutOfStock = errors.New("insufficient eligible stock")

	// ErrBatchNotFound means the referenced batch does not exist.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrBatchExpired means the referenced batch can no longer be sold from.
	ErrBatchExpired = errors.New("batch is expired")

	// ErrInsufficientStock means the atomic check-and-decrement lost a race:
	// the batch no longer holds the quantity that planning saw. Callers should
	// retry allocation once rather than loop.
	ErrInsufficientStock = errors.New("batch has insufficient remaining quantity")

	// ErrInsufficientPayment rejects a cash checkout whose paid amount does
	// not cover the grand total.
	ErrInsufficientPayment = errors.New("paid amount does not cover the total")

	// ErrInvalidDiscount rejects a cart-level discount that would drive the
	// net amount below zero.
	ErrInvalidDiscount = errors.New("discount exceeds the sale total")

	// ErrProductNotFound means the referenced product does not exist or is
	// inactive.
	ErrProductNotFound = errors.New("product not found")
)

// CommitError reports which cart line made a settlement fail. The whole
// commit was rolled back — nothing was charged and no stock was decremented.
type CommitError struct {
	Line      int // zero-based index into the submitted cart lines
	ProductID uuid.UUID
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("sale commit failed at line %d (product %s): %v", e.Line, e.ProductID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
