// Package state implements the game state store: a reducer over a closed
// set of patch operations. The reducer is total: unknown operations apply
// the identity transform, never a crash. It never mutates its input;
// every application returns a fresh GameState.
package state

import (
	"github.com/shopspring/decimal"

	"github.com/optwhisper/game-engine/internal/market"
	"github.com/optwhisper/game-engine/internal/model"
)

// OpType names one recognized patch operation.
type OpType string

const (
	OpSetPlayerName OpType = "set_player_name"
	OpAddMessage    OpType = "add_message"
	OpSetGamePhase  OpType = "set_game_phase"
	OpSetScenario   OpType = "set_scenario"
	OpSetChoices    OpType = "set_choices"
	OpSetTyping     OpType = "set_typing"
	OpShowTooltip   OpType = "show_tooltip"
	OpUpdateMarket  OpType = "update_market"
	OpUpdatePlayer  OpType = "update_player"
	OpAdvanceDay    OpType = "advance_day"
	OpAddTrade      OpType = "add_trade"
	OpCloseTrade    OpType = "close_trade"
)

// MarketPatch is a partial market update; nil fields are left untouched.
type MarketPatch struct {
	Volatility       *float64         `json:"volatility,omitempty"`
	Trend            *string          `json:"trend,omitempty"`
	CurrentDay       *int             `json:"current_day,omitempty"`
	CurrentHour      *int             `json:"current_hour,omitempty"`
	StockPrice       *decimal.Decimal `json:"stock_price,omitempty"`
	StockTicker      *string          `json:"stock_ticker,omitempty"`
	AvailableStrikes []int            `json:"available_strikes,omitempty"`
	Deltas           *model.DeltaMap  `json:"available_deltas,omitempty"`
}

// PlayerPatch is a partial player update; nil fields are left untouched.
// CurrentTrade and ClearCurrentTrade are separate because "set to a new
// trade" and "clear the pending trade" are both meaningful updates.
type PlayerPatch struct {
	Name               *string          `json:"name,omitempty"`
	AccountValue       *decimal.Decimal `json:"account_value,omitempty"`
	Cash               *decimal.Decimal `json:"cash,omitempty"`
	Experience         *int             `json:"experience,omitempty"`
	Level              *int             `json:"level,omitempty"`
	CurrentTrade       *model.Trade     `json:"current_trade,omitempty"`
	ClearCurrentTrade  bool             `json:"clear_current_trade,omitempty"`
	TradingTimeBarrier *int             `json:"trading_time_barrier,omitempty"`
	CanTradeToday      *bool            `json:"can_trade_today,omitempty"`
	PositionSize       *int             `json:"position_size,omitempty"`
}

// TradeClose carries the close-trade payload: which trade in the history
// to close and the realized profit to credit.
type TradeClose struct {
	Index  int             `json:"index"`
	Profit decimal.Decimal `json:"profit"`
}

// Op is one patch operation. Only the payload fields relevant to Type are
// read; the rest are ignored.
type Op struct {
	Type     OpType          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Message  string          `json:"message,omitempty"`
	Phase    model.GamePhase `json:"phase,omitempty"`
	Scenario *model.Scenario `json:"scenario,omitempty"`
	Choices  []model.Choice  `json:"choices,omitempty"`
	Typing   bool            `json:"typing,omitempty"`
	Tooltip  *string         `json:"tooltip,omitempty"`
	Market   *MarketPatch    `json:"market,omitempty"`
	Player   *PlayerPatch    `json:"player,omitempty"`
	Trade    *model.Trade    `json:"trade,omitempty"`
	Close    *TradeClose     `json:"close,omitempty"`
}

// Experience awards. 100 points rolls over into the next level.
const (
	expTradeOpened = 10
	expTradeClosed = 15
	expPerLevel    = 100
)

// Reducer applies patch operations to game state. Rand feeds the market
// evolution rule on day advancement; nil means the production source.
type Reducer struct {
	Rand market.RandFunc
}

// NewReducer returns a reducer using the production random source.
func NewReducer() *Reducer {
	return &Reducer{Rand: market.DefaultRand}
}

// Apply returns the state after op. The input state is never modified;
// slices that change are reallocated first.
func (r *Reducer) Apply(s model.GameState, op Op) model.GameState {
	switch op.Type {
	case OpSetPlayerName:
		s.Player.Name = op.Name
		return s

	case OpAddMessage:
		s.History = appendCopy(s.History, op.Message)
		return s

	case OpSetGamePhase:
		s.GamePhase = op.Phase
		return s

	case OpSetScenario:
		if op.Scenario != nil {
			sc := *op.Scenario
			s.CurrentScenario = &sc
		} else {
			s.CurrentScenario = nil
		}
		return s

	case OpSetChoices:
		s.CurrentChoices = append([]model.Choice{}, op.Choices...)
		return s

	case OpSetTyping:
		s.IsTyping = op.Typing
		return s

	case OpShowTooltip:
		s.ShowTooltip = op.Tooltip
		return s

	case OpUpdateMarket:
		if op.Market != nil {
			s.Market = mergeMarket(s.Market, *op.Market)
		}
		return s

	case OpUpdatePlayer:
		if op.Player != nil {
			s.Player = mergePlayer(s.Player, *op.Player)
		}
		return s

	case OpAdvanceDay:
		s.Market = market.Evolve(s.Market, r.Rand)
		return s

	case OpAddTrade:
		if op.Trade == nil {
			return s
		}
		trade := *op.Trade
		s.Player.Trades = append(copyTrades(s.Player.Trades), trade)
		s.Player.CurrentTrade = nil

		// Selling collects the premium up front; buying pays it.
		cashDelta := trade.Premium.
			Mul(decimal.NewFromInt(int64(trade.Quantity))).
			Mul(decimal.NewFromInt(100))
		if trade.Action == model.SideSell {
			s.Player.Cash = s.Player.Cash.Add(cashDelta)
		} else {
			s.Player.Cash = s.Player.Cash.Sub(cashDelta)
		}
		s.Player = awardExperience(s.Player, expTradeOpened)
		return s

	case OpCloseTrade:
		if op.Close == nil || op.Close.Index < 0 || op.Close.Index >= len(s.Player.Trades) {
			return s
		}
		trades := copyTrades(s.Player.Trades)
		t := &trades[op.Close.Index]
		t.Status = model.StatusClosed
		exitDay := s.Market.CurrentDay
		exitHour := s.Market.CurrentHour
		t.ExitDay = &exitDay
		t.ExitHour = &exitHour
		profit := op.Close.Profit
		t.Profit = &profit

		s.Player.Trades = trades
		s.Player.Cash = s.Player.Cash.Add(profit)
		s.Player.AccountValue = s.Player.AccountValue.Add(profit)
		s.Player = awardExperience(s.Player, expTradeClosed)
		return s

	default:
		// Unknown operation: identity, never an error.
		return s
	}
}

func mergeMarket(m model.MarketState, p MarketPatch) model.MarketState {
	if p.Volatility != nil {
		m.Volatility = *p.Volatility
	}
	if p.Trend != nil {
		m.Trend = *p.Trend
	}
	if p.CurrentDay != nil {
		m.CurrentDay = *p.CurrentDay
	}
	if p.CurrentHour != nil {
		m.CurrentHour = *p.CurrentHour
	}
	if p.StockPrice != nil {
		m.StockPrice = *p.StockPrice
	}
	if p.StockTicker != nil {
		m.StockTicker = *p.StockTicker
	}
	if p.AvailableStrikes != nil {
		m.AvailableStrikes = append([]int{}, p.AvailableStrikes...)
	}
	if p.Deltas != nil {
		m.Deltas = *p.Deltas
	}
	return m
}

func mergePlayer(pl model.PlayerState, p PlayerPatch) model.PlayerState {
	if p.Name != nil {
		pl.Name = *p.Name
	}
	if p.AccountValue != nil {
		pl.AccountValue = *p.AccountValue
	}
	if p.Cash != nil {
		pl.Cash = *p.Cash
	}
	if p.Experience != nil {
		pl.Experience = *p.Experience
	}
	if p.Level != nil {
		pl.Level = *p.Level
	}
	if p.CurrentTrade != nil {
		t := *p.CurrentTrade
		pl.CurrentTrade = &t
	} else if p.ClearCurrentTrade {
		pl.CurrentTrade = nil
	}
	if p.TradingTimeBarrier != nil {
		h := *p.TradingTimeBarrier
		pl.TradingTimeBarrier = &h
	}
	if p.CanTradeToday != nil {
		pl.CanTradeToday = *p.CanTradeToday
	}
	if p.PositionSize != nil {
		pct := *p.PositionSize
		pl.PositionSize = &pct
	}
	return pl
}

// awardExperience adds points, rolling full bars into levels.
func awardExperience(pl model.PlayerState, points int) model.PlayerState {
	pl.Experience += points
	for pl.Experience >= expPerLevel {
		pl.Experience -= expPerLevel
		pl.Level++
	}
	return pl
}

func appendCopy(history []string, msg string) []string {
	out := make([]string, len(history), len(history)+1)
	copy(out, history)
	return append(out, msg)
}

func copyTrades(trades []model.Trade) []model.Trade {
	out := make([]model.Trade, len(trades))
	copy(out, trades)
	return out
}
