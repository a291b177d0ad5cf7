package promotion

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported promotion discount strategies.
type Kind string

const (
	// KindPercentage takes a percentage of the order total.
	KindPercentage Kind = "percentage"
	// KindCash takes a fixed amount off the order total.
	KindCash Kind = "cash"
)

var (
	// ErrInvalidKind is returned for a promotion with an unknown kind.
	ErrInvalidKind = errors.New("invalid promotion kind")
	// ErrInvalidValue is returned when the value is out of range for its kind.
	ErrInvalidValue = errors.New("invalid promotion value")
)

// Promotion is a discount rule applied to an order total.
type Promotion struct {
	ID          string
	Name        string
	Kind        Kind
	Value       decimal.Decimal
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// Validate checks the kind and value constraints: percentage values must be
// in (0, 100], cash values must be non-negative.
func (p Promotion) Validate() error {
	switch p.Kind {
	case KindPercentage:
		if !p.Value.IsPositive() || p.Value.GreaterThan(hundred) {
			return errors.Wrapf(ErrInvalidValue, "promotion %s: percentage %s not in (0, 100]", p.ID, p.Value)
		}
	case KindCash:
		if p.Value.IsNegative() {
			return errors.Wrapf(ErrInvalidValue, "promotion %s: cash value %s is negative", p.ID, p.Value)
		}
	default:
		return errors.Wrapf(ErrInvalidKind, "promotion %s: %q", p.ID, p.Kind)
	}
	return nil
}

// ActiveAt reports whether now falls inside the promotion's validity window.
// Open bounds are unlimited.
func (p Promotion) ActiveAt(now time.Time) bool {
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}
