package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services; handlers map them to HTTP codes
// with errors.Is / errors.As.
var (
	ErrNotFound     = errors.New("record not found")
	ErrMissingPrice = errors.New("no unit price available: none supplied and the product has no default sale price")
)

// ValidationError covers malformed or semantically invalid input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports the shortfall of a rejected vente or debt.
type InsufficientStockError struct {
	ProduitNom string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProduitNom, e.Requested, e.Available)
}

// InvariantViolationError signals a mutation that would drive a stock
// counter negative; the transaction is rolled back.
type InvariantViolationError struct {
	ProduitNom string
	Restante   int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("operation would leave %q with negative stock (%d)", e.ProduitNom, e.Restante)
}
