package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ValidationKind classifies a rejected engine operation.
type ValidationKind string

const (
	InvalidQuantity    ValidationKind = "invalid_quantity"
	InvalidPrice       ValidationKind = "invalid_price"
	ServiceRequired    ValidationKind = "service_required"
	EmptyOrder         ValidationKind = "empty_order"
	NonPositivePayment ValidationKind = "non_positive_payment"
)

// Sentinels matching each ValidationKind, for use with errors.Is.
var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidPrice       = errors.New("unit price must be greater than 0")
	ErrServiceRequired    = errors.New("service is required")
	ErrEmptyOrder         = errors.New("order has no line items")
	ErrNonPositivePayment = errors.New("amount paid must be greater than 0")

	// ErrNotFound is returned when a stored order does not exist.
	ErrNotFound = errors.New("order not found")
)

var kindSentinels = map[ValidationKind]error{
	InvalidQuantity:    ErrInvalidQuantity,
	InvalidPrice:       ErrInvalidPrice,
	ServiceRequired:    ErrServiceRequired,
	EmptyOrder:         ErrEmptyOrder,
	NonPositivePayment: ErrNonPositivePayment,
}

// ValidationError reports an operation the engine refused. The composition is
// left exactly as it was before the call.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func newValidationError(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	msg := kindSentinels[e.Kind].Error()
	if e.Detail == "" {
		return msg
	}
	return msg + ": " + e.Detail
}

// Unwrap returns the sentinel for the error kind.
func (e *ValidationError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// NotFoundError indicates a catalog lookup miss.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ItemError wraps the error raised while replaying request item Index.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// DetailsError reports invalid order details (store, customer, staff, dates).
type DetailsError struct {
	Fields map[string]string
}

func (e *DetailsError) Error() string {
	return fmt.Sprintf("invalid order details: %v", e.Fields)
}
