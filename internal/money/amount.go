// Package money provides the fixed-point decimal helpers every ledger
// amount and balance flows through. Arithmetic is exact; nothing here
// ever touches float64, per spec.md §9.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision and Scale bound every amount and balance column, per
// spec.md §6: "precision 20, scale 8".
const (
	Precision = 20
	Scale     = 8
)

// Zero is the canonical zero amount, used whenever a balance-cache row is
// absent and must read as zero (spec.md §4.3 step 2).
var Zero = decimal.Zero

// ValidatePositive rejects zero, negative, and over-scale amounts.
// assetDecimals is the asset type's own declared fixed-point scale
// (spec.md §3); an amount may not carry more fractional digits than the
// asset allows.
func ValidatePositive(amount decimal.Decimal, assetDecimals int32) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be strictly positive, got %s", amount.String())
	}

	if amount.Exponent() < -assetDecimals {
		return fmt.Errorf("amount %s carries more decimal places than asset scale %d allows", amount.String(), assetDecimals)
	}

	if amount.NumDigits() > Precision {
		return fmt.Errorf("amount %s exceeds precision %d", amount.String(), Precision)
	}

	return nil
}

// Rescale truncates amount to at most `scale` decimal places: digits
// beyond the scale are dropped (not rounded), and an amount with fewer
// places is not padded — it is the DSL-era Scale/UndoScale
// idiom (common/gold/transaction/model.go) reworked against
// decimal.Decimal instead of a float64 value/scale pair, since the
// engine now requires exact fixed-point arithmetic.
func Rescale(amount decimal.Decimal, scale int32) decimal.Decimal {
	return amount.Truncate(scale)
}

// Debit subtracts amount from balance. It does not check sufficiency and
// returns a negative result when amount exceeds balance; the Ledger
// Writer checks Sufficient(balance, amount) first (spec.md §4.3 step 3).
func Debit(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Sub(amount)
}

// Credit adds amount to balance.
func Credit(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Add(amount)
}

// Sufficient reports whether balance can absorb a debit of amount.
func Sufficient(balance, amount decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(amount)
}
