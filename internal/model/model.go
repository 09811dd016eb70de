// Package model defines the core domain types shared across the game engine.
// All monetary values use shopspring/decimal — never float64 for money.
// Deltas and volatility are probability/percentage proxies, not money, and
// stay float64.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GamePhase is the coarse state-machine tag for a session. Transitions are
// monotonic on the intended path: intro → setup → playing. PhaseResults is
// reserved for a future extension and is not reached by current scenarios.
type GamePhase string

const (
	PhaseIntro   GamePhase = "intro"
	PhaseSetup   GamePhase = "setup"
	PhasePlaying GamePhase = "playing"
	PhaseResults GamePhase = "results"
)

// Market trend labels.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// Option types and trade directions.
const (
	OptionPut  = "put"
	OptionCall = "call"

	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade statuses.
const (
	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusExpired = "expired"
)

// Trade is one option position. A trade sits in Player.CurrentTrade between
// the resolving action that creates it and the commit that appends it to
// Player.Trades; after that it lives in the trade history until closed.
type Trade struct {
	Type      string           `json:"type"`   // "put" or "call"
	Action    string           `json:"action"` // "buy" or "sell"
	Strike    int              `json:"strike"`
	Premium   decimal.Decimal  `json:"premium"` // per share, before the ×100 contract multiplier
	Expiry    int              `json:"expiry"`  // absolute day number
	Quantity  int              `json:"quantity"`
	Status    string           `json:"status"`
	EntryDay  int              `json:"entry_day"`
	EntryHour *int             `json:"entry_hour,omitempty"`
	ExitDay   *int             `json:"exit_day,omitempty"`
	ExitHour  *int             `json:"exit_hour,omitempty"`
	Profit    *decimal.Decimal `json:"profit,omitempty"` // set on close
	Delta     *float64         `json:"delta,omitempty"`  // recorded at entry
}

// PlayerState holds everything about the player's account and progression.
type PlayerState struct {
	Name               string          `json:"name"`
	AccountValue       decimal.Decimal `json:"account_value"`
	Cash               decimal.Decimal `json:"cash"`
	Experience         int             `json:"experience"` // 0–100, progress indicator
	Level              int             `json:"level"`
	Trades             []Trade         `json:"trades"`
	CurrentTrade       *Trade          `json:"current_trade,omitempty"`
	TradingTimeBarrier *int            `json:"trading_time_barrier,omitempty"` // hours after open
	CanTradeToday      bool            `json:"can_trade_today"`
	PositionSize       *int            `json:"position_size,omitempty"` // 10, 25 or 50 percent
}

// DeltaMap carries the per-strike delta proxies for each option side.
// The delta here is a simplified 0–1 probability-like value, used only to
// filter "high probability" strikes and to derive a heuristic premium.
type DeltaMap struct {
	Calls map[int]float64 `json:"calls"`
	Puts  map[int]float64 `json:"puts"`
}

// MarketState is the simulated market snapshot.
type MarketState struct {
	Volatility       float64         `json:"volatility"` // percentage
	Trend            string          `json:"trend"`
	CurrentDay       int             `json:"current_day"`  // ≥ 1
	CurrentHour      int             `json:"current_hour"` // ≥ 0
	StockPrice       decimal.Decimal `json:"stock_price"`
	StockTicker      string          `json:"stock_ticker"`
	AvailableStrikes []int           `json:"available_strikes"`
	Deltas           DeltaMap        `json:"available_deltas"`
}

// Choice is one selectable option within a scenario. Action carries the
// wire-format action identifier (see ParseAction).
type Choice struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Action  string `json:"action" yaml:"action"`
	Tooltip string `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

// Scenario is one narrative beat. Template scenarios are declared with an
// empty choice list and populated at runtime by the resolver (the strike
// selection screens); they must never be displayed before population.
type Scenario struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Context     string   `json:"context" yaml:"context"`
	Choices     []Choice `json:"choices" yaml:"choices"`
	Template    bool     `json:"template,omitempty" yaml:"template,omitempty"`
}

// GameState aggregates the full authoritative state of one session.
// It is only ever changed through the reducer in internal/state.
type GameState struct {
	Player          PlayerState `json:"player"`
	Market          MarketState `json:"market"`
	History         []string    `json:"history"` // append-only
	GamePhase       GamePhase   `json:"game_phase"`
	CurrentScenario *Scenario   `json:"current_scenario,omitempty"`
	CurrentChoices  []Choice    `json:"current_choices"`
	IsTyping        bool        `json:"is_typing"`
	ShowTooltip     *string     `json:"show_tooltip,omitempty"`
}

// Session wraps a GameState with its server-side identity. Sessions are
// created from InitialState and discarded at session end; they are never
// resumed across sessions.
type Session struct {
	ID        string    `json:"id"`
	State     GameState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitialState returns the fixed literal every session starts from.
// Maps and slices are freshly allocated on each call so sessions never
// share mutable structure.
func InitialState() GameState {
	return GameState{
		Player: PlayerState{
			Name:         "",
			AccountValue: decimal.NewFromInt(10000),
			Cash:         decimal.NewFromInt(10000),
			Experience:   0,
			Level:        1,
			Trades:       []Trade{},
		},
		Market: MarketState{
			Volatility:       15,
			Trend:            TrendNeutral,
			CurrentDay:       1,
			CurrentHour:      0,
			StockPrice:       decimal.NewFromInt(450),
			StockTicker:      "SPY",
			AvailableStrikes: []int{430, 440, 450, 460, 470},
			Deltas: DeltaMap{
				Puts: map[int]float64{
					430: 0.15, 440: 0.30, 450: 0.50, 460: 0.65, 470: 0.85,
				},
				Calls: map[int]float64{
					430: 0.85, 440: 0.65, 450: 0.50, 460: 0.30, 470: 0.15,
				},
			},
		},
		History:        []string{"Welcome to Options Whisperer..."},
		GamePhase:      PhaseIntro,
		CurrentChoices: []Choice{},
	}
}
