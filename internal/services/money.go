package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyCents is the result of parsing one monetary field. Invalid values
// parse to zero so arithmetic can continue; the caller records the anomaly.
type MoneyCents struct {
	Cents int64
	Valid bool
}

// ParseMoneyToCents converts an untrusted decimal value from the store into
// integer cents. A nil value means the column was NULL, which is an absent
// amount, not an anomaly. Anything that is not a finite decimal ("NaN",
// "Infinity", free text) fails parsing and is reported invalid.
//
// The decimal package does the multiply-by-100 exactly, so values like
// "10.10" land on 1010 cents instead of a float64 neighbour. Rounding
// covers source decimals with more than two fractional digits.
func ParseMoneyToCents(raw *string) MoneyCents {
	if raw == nil {
		return MoneyCents{Cents: 0, Valid: true}
	}

	s := strings.TrimSpace(*raw)
	if s == "" {
		return MoneyCents{Cents: 0, Valid: true}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return MoneyCents{Cents: 0, Valid: false}
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return MoneyCents{Cents: cents, Valid: true}
}

// CentsToDollars is the display-boundary conversion. All accumulation
// happens in cents; only the exposed summary fields hold dollars.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
