// Package engine contains the game's decision logic: the action resolver,
// the flow advancer, and the choice-triggered scenario transitions. All
// three are pure functions over GameState: they compute patches and
// messages but never apply them; persistence goes through the reducer in
// internal/state.
package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/optwhisper/game-engine/internal/model"
	"github.com/optwhisper/game-engine/internal/risk"
	"github.com/optwhisper/game-engine/internal/state"
)

// Patch is the partial state update produced by resolving an action.
// A zero Patch is a legal no-op: the narrative moves, the state does not.
type Patch struct {
	Phase   *model.GamePhase   `json:"phase,omitempty"`
	Player  *state.PlayerPatch `json:"player,omitempty"`
	Market  *state.MarketPatch `json:"market,omitempty"`
	Choices []model.Choice     `json:"choices,omitempty"` // replaces scenario + current choices
	Close   *state.TradeClose  `json:"close,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Phase == nil && p.Player == nil && p.Market == nil &&
		p.Choices == nil && p.Close == nil
}

// Result pairs a patch with its narrative message.
type Result struct {
	Patch   Patch  `json:"patch"`
	Message string `json:"message"`
}

// Heuristic constants. These are deliberately not a pricing model: premium
// is a flat multiple of delta, and time value decays linearly with 20%
// gone over a full expiry period.
const (
	premiumPerDelta  = 5
	expiryDays       = 30
	timeDecayFactor  = 0.8
	defaultDelta     = 0.15
	deltaThreshold   = 0.3
	sharesPerContract = 100
)

// Resolve maps an action and the current state to a state patch and a
// narrative message. It never mutates state and never fails: unmatched
// actions produce an empty patch with a filler message.
func Resolve(a model.Action, s model.GameState) Result {
	switch a.Kind {
	case model.KindBeginGame:
		phase := model.PhaseSetup
		return Result{
			Patch:   Patch{Phase: &phase},
			Message: "Welcome to the world of options trading! Before we begin, what's your name?",
		}

	case model.KindReviewBasics:
		return Result{
			Message: "A refresher never hurts. Let's walk through how options contracts work.",
		}

	case model.KindLearnOptions:
		return Result{
			Message: "When selling options, you collect premium upfront but take on " +
				"obligation. Selling puts obligates you to buy shares at the strike " +
				"price. Selling calls obligates you to sell shares at the strike " +
				"price. The key advantage is time decay - options lose value as " +
				"they approach expiration.",
		}

	case model.KindSkipTutorial:
		phase := model.PhasePlaying
		return Result{
			Patch:   Patch{Phase: &phase},
			Message: "Great! Let's jump straight into trading. The market awaits your first move.",
		}

	case model.KindSellPut:
		return Result{
			Patch: Patch{Choices: strikeChoices(model.OptionPut, s.Market)},
			Message: "You've decided to sell a put option. Now you need to select a " +
				"strike price.",
		}

	case model.KindErrorNoShares:
		return Result{
			Message: "You can't sell a covered call without owning the underlying " +
				"shares first. You need 100 shares per contract.",
		}

	case model.KindBuyStock:
		return resolveBuyStock(s)

	case model.KindWait:
		return Result{
			Message: "You decide to wait and see how the market develops before making a move.",
		}

	case model.KindSetTimeBarrier:
		hours := a.Hours
		return Result{
			Patch: Patch{Player: &state.PlayerPatch{TradingTimeBarrier: &hours}},
			Message: fmt.Sprintf("You commit to waiting %d hours after the open before "+
				"placing any trade. Patience is a position too.", hours),
		}

	case model.KindProceedTrading:
		yes := true
		patch := Patch{Player: &state.PlayerPatch{CanTradeToday: &yes}}
		hour := s.Market.CurrentHour
		if s.Player.TradingTimeBarrier != nil && *s.Player.TradingTimeBarrier > hour {
			hour = *s.Player.TradingTimeBarrier
		}
		patch.Market = &state.MarketPatch{CurrentHour: &hour}
		return Result{
			Patch: patch,
			Message: fmt.Sprintf("The clock reads %d hours past the open. Your window "+
				"is here - time to look for a trade.", hour),
		}

	case model.KindSkipTrading:
		no := false
		nextDay := s.Market.CurrentDay + 1
		zeroHour := 0
		return Result{
			Patch: Patch{
				Player: &state.PlayerPatch{CanTradeToday: &no},
				Market: &state.MarketPatch{CurrentDay: &nextDay, CurrentHour: &zeroHour},
			},
			Message: "You step away from the screens. No trade is also a decision - " +
				"tomorrow is another day.",
		}

	case model.KindPositionSize:
		pct := a.Percent
		return Result{
			Patch: Patch{Player: &state.PlayerPatch{PositionSize: &pct}},
			Message: fmt.Sprintf("You'll allocate %d%% of your account to this "+
				"position. Sizing decided before entry - the way it should be.", pct),
		}

	case model.KindSelectPuts:
		return Result{
			Patch: Patch{Choices: strikeChoices(model.OptionPut, s.Market)},
			Message: "Selling puts it is. These strikes all carry a delta below 0.30 - " +
				"a higher probability of expiring worthless in your favor.",
		}

	case model.KindSelectCalls:
		return Result{
			Patch: Patch{Choices: strikeChoices(model.OptionCall, s.Market)},
			Message: "Selling calls it is. These strikes all carry a delta below 0.30 - " +
				"a higher probability of expiring worthless in your favor.",
		}

	case model.KindSellPutStrike:
		return resolveSellStrike(model.OptionPut, a.Strike, s)

	case model.KindSellCallStrike:
		return resolveSellStrike(model.OptionCall, a.Strike, s)

	case model.KindClosePosition:
		return resolveClosePosition(s)

	case model.KindHoldPosition:
		return Result{
			Message: "You decide to hold your position and see how it develops.",
		}

	case model.KindRollPosition:
		return Result{
			Message: "Rolling a position involves closing your current trade and " +
				"opening a new one. This is an advanced technique we'll explore later.",
		}

	default:
		return Result{
			Message: "You contemplate your next move in the market...",
		}
	}
}

func resolveBuyStock(s model.GameState) Result {
	shares := decimal.NewFromInt(sharesPerContract)
	totalCost := shares.Mul(s.Market.StockPrice)

	if err := risk.CheckBuyingPower(s.Player.Cash, totalCost); err != nil {
		return Result{
			Message: fmt.Sprintf("You don't have enough cash to buy 100 shares at "+
				"$%s. You need $%s.",
				s.Market.StockPrice.StringFixed(2), totalCost.StringFixed(2)),
		}
	}

	newCash := s.Player.Cash.Sub(totalCost)
	return Result{
		Patch: Patch{Player: &state.PlayerPatch{Cash: &newCash}},
		Message: fmt.Sprintf("You purchased 100 shares of %s at $%s for a total of $%s.",
			s.Market.StockTicker, s.Market.StockPrice.StringFixed(2),
			totalCost.StringFixed(2)),
	}
}

func resolveSellStrike(optType string, strike int, s model.GameState) Result {
	deltas := s.Market.Deltas.Puts
	if optType == model.OptionCall {
		deltas = s.Market.Deltas.Calls
	}
	delta, ok := deltas[strike]
	if !ok {
		delta = defaultDelta
	}

	premium := premiumFor(delta)
	quantity := risk.Contracts(s.Player.AccountValue, s.Player.PositionSize, strike)
	entryHour := s.Market.CurrentHour
	tradeDelta := delta

	trade := model.Trade{
		Type:      optType,
		Action:    model.SideSell,
		Strike:    strike,
		Premium:   premium,
		Expiry:    s.Market.CurrentDay + expiryDays,
		Quantity:  quantity,
		Status:    model.StatusOpen,
		EntryDay:  s.Market.CurrentDay,
		EntryHour: &entryHour,
		Delta:     &tradeDelta,
	}

	total := premium.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(decimal.NewFromInt(sharesPerContract))

	contracts := "a"
	plural := ""
	if quantity > 1 {
		contracts = strconv.Itoa(quantity)
		plural = "s"
	}

	return Result{
		Patch: Patch{Player: &state.PlayerPatch{CurrentTrade: &trade}},
		Message: fmt.Sprintf("You sell %s $%d strike %s%s on %s expiring in %d days "+
			"for a premium of $%s per share ($%s total).",
			contracts, strike, optType, plural, s.Market.StockTicker, expiryDays,
			premium.StringFixed(2), total.StringFixed(2)),
	}
}

// resolveClosePosition values and closes the most recent open trade.
// Only trades still flagged open are eligible, so closing twice targets
// two different trades or degrades to the no-positions message.
func resolveClosePosition(s model.GameState) Result {
	idx := -1
	for i := len(s.Player.Trades) - 1; i >= 0; i-- {
		if s.Player.Trades[i].Status == model.StatusOpen {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Result{
			Message: "You don't have any open positions to close.",
		}
	}

	trade := s.Player.Trades[idx]
	closingCost := decimal.Zero
	profit := decimal.Zero

	if trade.Action == model.SideSell {
		strike := decimal.NewFromInt(int64(trade.Strike))

		// Remaining time value decays toward zero as expiry approaches.
		timeLeft := float64(trade.Expiry-s.Market.CurrentDay) / float64(expiryDays)
		if timeLeft < 0 {
			timeLeft = 0
		}

		intrinsic := decimal.Zero
		switch trade.Type {
		case model.OptionPut:
			intrinsic = decimal.Max(decimal.Zero, strike.Sub(s.Market.StockPrice))
		case model.OptionCall:
			intrinsic = decimal.Max(decimal.Zero, s.Market.StockPrice.Sub(strike))
		}

		timeValue := trade.Premium.
			Mul(decimal.NewFromFloat(timeLeft)).
			Mul(decimal.NewFromFloat(timeDecayFactor))

		qty := decimal.NewFromInt(int64(trade.Quantity))
		per100 := decimal.NewFromInt(sharesPerContract)

		closingCost = intrinsic.Add(timeValue).Mul(per100).Mul(qty).Round(2)
		profit = trade.Premium.Mul(per100).Mul(qty).Sub(closingCost).Round(2)
	}

	outcome := "profit"
	if profit.IsNegative() {
		outcome = "loss"
	}

	return Result{
		Patch: Patch{Close: &state.TradeClose{Index: idx, Profit: profit}},
		Message: fmt.Sprintf("You close your position for $%s, realizing a %s of $%s.",
			closingCost.StringFixed(2), outcome, profit.Abs().StringFixed(2)),
	}
}

// strikeChoices builds the dynamically generated strike list for one option
// side: every strike with a delta strictly below the threshold, ascending.
func strikeChoices(optType string, m model.MarketState) []model.Choice {
	deltas := m.Deltas.Puts
	kind := "SELL_PUT_"
	if optType == model.OptionCall {
		deltas = m.Deltas.Calls
		kind = "SELL_CALL_"
	}

	var strikes []int
	for strike, delta := range deltas {
		if delta < deltaThreshold {
			strikes = append(strikes, strike)
		}
	}
	sort.Ints(strikes)

	choices := make([]model.Choice, 0, len(strikes))
	for _, strike := range strikes {
		delta := deltas[strike]
		premium := premiumFor(delta)
		pop := int((1 - delta) * 100)

		choices = append(choices, model.Choice{
			ID:     fmt.Sprintf("strike_%d", strike),
			Text: fmt.Sprintf("Sell $%d strike %s (Premium: $%s, Delta: %.2f)",
				strike, optType, premium.StringFixed(2), delta),
			Action: kind + strconv.Itoa(strike),
			Tooltip: fmt.Sprintf("Delta %.2f - roughly a %d%% chance of expiring "+
				"worthless", delta, pop),
		})
	}
	return choices
}

// premiumFor derives the per-share premium from a strike's delta.
func premiumFor(delta float64) decimal.Decimal {
	return decimal.NewFromFloat(delta * premiumPerDelta).Round(2)
}
