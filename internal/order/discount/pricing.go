package discount

import (
	"errors"
	"math"
	"math/bits"

	"ms-storefront/internal/models"
)

// ErrAmountOverflow is returned when an order amount does not fit in int64.
var ErrAmountOverflow = errors.New("order amount out of range")

// Kind selects how a Policy reduces a subtotal.
type Kind string

const (
	KindNone    Kind = "none"
	KindPercent Kind = "percent"
	KindFlat    Kind = "flat"
)

// Policy is a resolved discount. Value is a percentage for KindPercent and
// minor currency units for KindFlat.
type Policy struct {
	Kind  Kind
	Value int64
}

// NoDiscount is the identity policy used when no promo code is supplied.
var NoDiscount = Policy{Kind: KindNone}

// PolicyFor converts a stored promo code into a Policy.
func PolicyFor(promo *models.PromoCode) (Policy, error) {
	if promo == nil {
		return NoDiscount, nil
	}

	var p Policy
	switch promo.DiscountType {
	case models.DiscountPercent:
		p = Policy{Kind: KindPercent, Value: promo.DiscountValue}
	case models.DiscountFlat:
		p = Policy{Kind: KindFlat, Value: promo.DiscountValue}
	default:
		return NoDiscount, ErrPromoInvalid
	}
	if !p.Valid() {
		return NoDiscount, ErrPromoInvalid
	}
	return p, nil
}

// Valid reports whether the policy value is in range for its kind.
func (p Policy) Valid() bool {
	switch p.Kind {
	case KindNone:
		return true
	case KindPercent:
		return p.Value >= 0 && p.Value <= 100
	case KindFlat:
		return p.Value >= 0
	default:
		return false
	}
}

// Subtotal sums price x quantity over the items.
func Subtotal(items []*models.OrderItem) (int64, error) {
	var subtotal int64
	for _, item := range items {
		if item.Price < 0 || item.Quantity < 0 {
			return 0, ErrAmountOverflow
		}
		hi, line := bits.Mul64(uint64(item.Price), uint64(item.Quantity))
		if hi != 0 || line > math.MaxInt64 || int64(line) > math.MaxInt64-subtotal {
			return 0, ErrAmountOverflow
		}
		subtotal += int64(line)
	}
	return subtotal, nil
}

// Apply reduces a non-negative subtotal by the policy. Percent discounts
// round to the nearest minor unit with ties going up.
func (p Policy) Apply(subtotal int64) int64 {
	switch p.Kind {
	case KindPercent:
		keep := 100 - p.Value
		// Split at 100 so the multiplication cannot overflow.
		return subtotal/100*keep + (subtotal%100*keep+50)/100
	case KindFlat:
		if p.Value >= subtotal {
			return 0
		}
		return subtotal - p.Value
	default:
		return subtotal
	}
}

// CalculateTotal is the order total for items under policy p.
func CalculateTotal(items []*models.OrderItem, p Policy) (int64, error) {
	subtotal, err := Subtotal(items)
	if err != nil {
		return 0, err
	}
	return p.Apply(subtotal), nil
}
