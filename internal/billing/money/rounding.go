// Package money holds integer currency arithmetic shared by billing components.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingPolicy selects how fractional tax amounts collapse to whole currency units.
type RoundingPolicy string

const (
	RoundingRound RoundingPolicy = "round"
	RoundingCeil  RoundingPolicy = "ceil"
	RoundingFloor RoundingPolicy = "floor"
)

// DefaultRoundingPolicy applies when a tenant has not configured one.
const DefaultRoundingPolicy = RoundingFloor

var hundred = decimal.NewFromInt(100)

// IsValid reports whether the policy is one of the known values.
func (p RoundingPolicy) IsValid() bool {
	switch p {
	case RoundingRound, RoundingCeil, RoundingFloor:
		return true
	default:
		return false
	}
}

// OrDefault returns the policy, or DefaultRoundingPolicy when it is unset.
func (p RoundingPolicy) OrDefault() RoundingPolicy {
	if p == "" {
		return DefaultRoundingPolicy
	}
	return p
}

// ParseRoundingPolicy accepts the stored representation of a policy.
func ParseRoundingPolicy(raw string) (RoundingPolicy, error) {
	p := RoundingPolicy(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return DefaultRoundingPolicy, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("money: unknown rounding policy %q", raw)
	}
	return p, nil
}

// Tax returns amount * ratePercent / 100 rounded to a whole unit under policy.
func Tax(amount int64, ratePercent decimal.Decimal, policy RoundingPolicy) int64 {
	raw := decimal.NewFromInt(amount).Mul(ratePercent).Div(hundred)
	return Apply(raw, policy)
}

// Apply collapses a decimal amount to a whole unit under policy.
func Apply(value decimal.Decimal, policy RoundingPolicy) int64 {
	switch policy.OrDefault() {
	case RoundingRound:
		// Round is half away from zero, which is half-up for the non-negative amounts billed here.
		return value.Round(0).IntPart()
	case RoundingCeil:
		return value.Ceil().IntPart()
	default:
		return value.Floor().IntPart()
	}
}

// Extend multiplies a fractional quantity by an integer unit price, truncating toward zero.
func Extend(quantity decimal.Decimal, unitPrice int64) int64 {
	return quantity.Mul(decimal.NewFromInt(unitPrice)).Truncate(0).IntPart()
}
