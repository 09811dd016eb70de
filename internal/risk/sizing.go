// Package risk implements the position-sizing and buying-power rules the
// resolver consults when opening trades. Everything here is pure
// computation over decimals; the narrative layer turns violations into
// messages, not failures.
package risk

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInsufficientCash is returned when a purchase costs more than the
// available cash. The resolver maps it to an explanatory message and a
// no-op patch; partial purchases do not exist.
var ErrInsufficientCash = errors.New("risk: insufficient cash for purchase")

// DefaultSizePercent is used when the player reaches a trade without ever
// choosing a position size (the shortcut path through the first trading
// opportunity).
const DefaultSizePercent = 25

// sharesPerContract is the option contract multiplier.
const sharesPerContract = 100

// Contracts returns how many contracts a sized allocation supports:
// floor(accountValue × percent/100 ÷ strike×100), with a floor of one so
// a small account can still take the minimum position. A nil size falls
// back to DefaultSizePercent.
func Contracts(accountValue decimal.Decimal, sizePercent *int, strike int) int {
	pct := DefaultSizePercent
	if sizePercent != nil {
		pct = *sizePercent
	}

	collateral := decimal.NewFromInt(int64(strike * sharesPerContract))
	if collateral.IsZero() {
		return 1
	}

	allocation := accountValue.
		Mul(decimal.NewFromInt(int64(pct))).
		Div(decimal.NewFromInt(100))

	n := int(allocation.Div(collateral).IntPart())
	if n < 1 {
		return 1
	}
	return n
}

// CheckBuyingPower validates that cash covers cost in full.
func CheckBuyingPower(cash, cost decimal.Decimal) error {
	if cash.LessThan(cost) {
		return ErrInsufficientCash
	}
	return nil
}
