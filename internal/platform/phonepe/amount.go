package phonepe

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("phonepe: amount out of range")

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// ToMinorUnits converts a catalog price into the gateway's minor unit
// (paise for INR) using multiplier.
func ToMinorUnits(amount, multiplier int64) (int64, error) {
	if amount <= 0 || multiplier <= 0 {
		return 0, ErrInvalidAmount
	}
	v := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(multiplier))
	if v.GreaterThan(maxMinorUnits) {
		return 0, ErrInvalidAmount
	}
	return v.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits, rounded down.
func FromMinorUnits(minor, multiplier int64) decimal.Decimal {
	if multiplier <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(multiplier))
}
