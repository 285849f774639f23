package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAccessDenied    = errors.New("access denied")
	ErrPersistence     = errors.New("persistence failure")

	// ErrConflict means the order changed between read and conditional write.
	ErrConflict = errors.New("order was modified concurrently")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Details = append(e.Details, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Details) == 0 {
		return nil
	}
	return e
}

type InsufficientStockError struct {
	ProductID string
	Title     string
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Title
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("Insufficient stock for %s (size %s): requested %d, available %d",
		name, e.Size, e.Requested, e.Available)
}

type ProductUnavailableError struct {
	ProductID string
	Title     string
}

func (e *ProductUnavailableError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("product %s is no longer available", e.Title)
	}
	return fmt.Sprintf("product %s is no longer available", e.ProductID)
}

// PriceMismatchError is returned when the client's price differs from the
// catalog price. ProductID is empty when the order total is at fault.
type PriceMismatchError struct {
	ProductID string
	Expected  float64
	Got       float64
}

func (e *PriceMismatchError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("total amount mismatch: expected %.2f, got %.2f", e.Expected, e.Got)
	}
	return fmt.Sprintf("price mismatch for product %s: expected %.2f, got %.2f", e.ProductID, e.Expected, e.Got)
}

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// PaymentError reports a rejected or failed gateway interaction.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return "payment failed: " + e.Reason
}
