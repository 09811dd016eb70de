// Package market implements the day-over-day market evolution rule.
//
// The rule is the engine's only stochastic element: a uniform draw scaled
// by volatility moves the stock price, bounded at ±volatility/10 percent
// per day. The random source is injected so tests stay reproducible.
//
// Prices use shopspring/decimal — never float64 for money. The percentage
// draw itself is plain float math, converted to decimal before it touches
// the price.
package market

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/optwhisper/game-engine/internal/model"
)

// RandFunc yields a uniform draw in [0, 1). rand.Float64 in production;
// tests supply a fixed sequence.
type RandFunc func() float64

// DefaultRand is the production random source.
var DefaultRand RandFunc = rand.Float64

// Evolve computes the next-day market snapshot:
//
//	priceChange = (rnd() - 0.5) * volatility / 5   (percent)
//	newPrice    = stockPrice * (1 + priceChange/100), rounded to 2 places
//
// and increments the day counter. The maximum single-day move is therefore
// ±volatility/10 percent. The input snapshot is not mutated.
func Evolve(m model.MarketState, rnd RandFunc) model.MarketState {
	if rnd == nil {
		rnd = DefaultRand
	}

	priceChange := (rnd() - 0.5) * m.Volatility / 5
	factor := decimal.NewFromFloat(1 + priceChange/100)

	next := m
	next.StockPrice = m.StockPrice.Mul(factor).Round(2)
	next.CurrentDay = m.CurrentDay + 1
	return next
}
