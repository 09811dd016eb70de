// Package scenario holds the static scenario catalog: every narrative beat
// the game can present, keyed by id. The two strike-selection scenarios are
// templates, declared with an empty choice list and populated at runtime
// by the action resolver; they must not be displayed before population.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/optwhisper/game-engine/internal/model"
)

// Well-known scenario ids used by the flow logic.
const (
	Intro              = "intro"
	Tutorial           = "tutorial"
	FirstTrade         = "first_trade"
	TimeBarrier        = "time_barrier"
	TradingDecision    = "trading_decision"
	PositionSizing     = "position_sizing"
	OptionSelection    = "option_selection"
	PutStrikeSelection = "put_strike_selection"
	CallStrikeSelection = "call_strike_selection"
	MarketMovement     = "market_movement"
)

// Catalog is an immutable scenario table. Build one at startup with
// Default or Load; Find is safe for concurrent use afterwards.
type Catalog struct {
	byID map[string]model.Scenario
}

// Find returns the scenario for id, or false when absent.
func (c *Catalog) Find(id string) (model.Scenario, bool) {
	sc, ok := c.byID[id]
	return sc, ok
}

// Default returns the built-in catalog.
func Default() *Catalog {
	byID := make(map[string]model.Scenario, len(builtin))
	for _, sc := range builtin {
		byID[sc.ID] = sc
	}
	return &Catalog{byID: byID}
}

// overrideFile is the YAML shape for narrative overrides: text fields only.
// Choices, actions and template flags are engine-owned and cannot be
// changed from a file.
type overrideFile struct {
	Scenarios []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Context     string `yaml:"context"`
	} `yaml:"scenarios"`
}

// Load returns the built-in catalog with narrative text overridden from a
// YAML file. Unknown scenario ids in the file are rejected.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read overrides: %w", err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scenario: parse overrides: %w", err)
	}

	c := Default()
	for _, o := range f.Scenarios {
		sc, ok := c.byID[o.ID]
		if !ok {
			return nil, fmt.Errorf("scenario: override for unknown scenario %q", o.ID)
		}
		if o.Title != "" {
			sc.Title = o.Title
		}
		if o.Description != "" {
			sc.Description = o.Description
		}
		if o.Context != "" {
			sc.Context = o.Context
		}
		c.byID[o.ID] = sc
	}
	return c, nil
}

var builtin = []model.Scenario{
	{
		ID:          Intro,
		Title:       "Welcome to Options Whisperer",
		Description: "Your journey into the world of options trading begins now.",
		Context: "You've decided to try your hand at options trading with a focus " +
			"on selling strategies. Your broker has just approved your account.",
		Choices: []model.Choice{
			{
				ID:      "start",
				Text:    "Let's get started",
				Action:  "BEGIN_GAME",
				Tooltip: "Start your options trading journey",
			},
			{
				ID:      "review_basics",
				Text:    "Review options basics first",
				Action:  "REVIEW_BASICS",
				Tooltip: "Brush up on how options contracts work before trading",
			},
		},
	},
	{
		ID:          Tutorial,
		Title:       "Options Basics",
		Description: "Before diving in, let's review some basics.",
		Context: "Options are contracts giving the right to buy (calls) or sell (puts) " +
			"an underlying asset at a specific price (strike) until a certain date " +
			"(expiration). As an option seller, you collect premium upfront but take " +
			"on obligation.",
		Choices: []model.Choice{
			{
				ID:      "learn_more",
				Text:    "Tell me more about selling options",
				Action:  "LEARN_OPTIONS",
				Tooltip: "Get additional information about options selling strategies",
			},
			{
				ID:      "skip_tutorial",
				Text:    "Skip tutorial, I know options already",
				Action:  "SKIP_TUTORIAL",
				Tooltip: "Jump straight to trading if you're already familiar with options",
			},
		},
	},
	{
		ID:          FirstTrade,
		Title:       "First Trading Opportunity",
		Description: "The market presents your first opportunity.",
		Context: "SPY is trading at $450 per share with moderate volatility. " +
			"You have $10,000 in your account to start trading.",
		Choices: []model.Choice{
			{
				ID:     "sell_put",
				Text:   "Sell a cash-secured put",
				Action: "SELL_PUT",
				Tooltip: "Sell a put option and receive premium, but be obligated to buy " +
					"shares if the price falls below your strike price",
			},
			{
				ID:      "sell_call",
				Text:    "Sell a covered call (requires owning 100 shares first)",
				Action:  "ERROR_NO_SHARES",
				Tooltip: "You need to own shares before selling covered calls",
			},
			{
				ID:      "buy_stock",
				Text:    "Buy 100 shares of stock first",
				Action:  "BUY_STOCK",
				Tooltip: "Purchase the underlying stock before trading options on it",
			},
			{
				ID:      "wait",
				Text:    "Wait and see how the market moves",
				Action:  "WAIT",
				Tooltip: "Skip this opportunity and wait for market conditions to change",
			},
		},
	},
	{
		ID:          TimeBarrier,
		Title:       "Set Your Trading Window",
		Description: "Discipline first: decide how long to wait after the open.",
		Context: "The first hours of a session are the noisiest. Many sellers wait " +
			"for the morning volatility to settle before placing trades. How many " +
			"hours after the open will you allow yourself to trade?",
		Choices: []model.Choice{
			{
				ID:      "barrier_3",
				Text:    "Wait 3 hours after the open",
				Action:  "SET_TIME_BARRIER_3",
				Tooltip: "Trade after the morning session settles",
			},
			{
				ID:      "barrier_4",
				Text:    "Wait 4 hours after the open",
				Action:  "SET_TIME_BARRIER_4",
				Tooltip: "Trade in the quiet midday period",
			},
			{
				ID:      "barrier_5",
				Text:    "Wait 5 hours after the open",
				Action:  "SET_TIME_BARRIER_5",
				Tooltip: "Trade late, with most of the day's range established",
			},
		},
	},
	{
		ID:          TradingDecision,
		Title:       "To Trade or Not to Trade",
		Description: "Your trading window has arrived.",
		Context: "The clock has reached your barrier. Nothing obligates you to trade " +
			"today - skipping a day costs nothing but time.",
		Choices: []model.Choice{
			{
				ID:      "proceed",
				Text:    "Proceed with trading today",
				Action:  "PROCEED_TRADING",
				Tooltip: "Open the option chain and look for a trade",
			},
			{
				ID:      "skip",
				Text:    "Skip trading today",
				Action:  "SKIP_TRADING",
				Tooltip: "Sit out today and come back tomorrow",
			},
		},
	},
	{
		ID:          PositionSizing,
		Title:       "Position Sizing",
		Description: "Decide how much of your account to put at risk.",
		Context: "Position sizing matters more than entry timing. How much of your " +
			"account will you allocate to this trade?",
		Choices: []model.Choice{
			{
				ID:      "size_10",
				Text:    "Allocate 10% of the account",
				Action:  "POSITION_SIZE_10",
				Tooltip: "Conservative sizing with room for many more trades",
			},
			{
				ID:      "size_25",
				Text:    "Allocate 25% of the account",
				Action:  "POSITION_SIZE_25",
				Tooltip: "Balanced sizing for a standard position",
			},
			{
				ID:      "size_50",
				Text:    "Allocate 50% of the account",
				Action:  "POSITION_SIZE_50",
				Tooltip: "Aggressive sizing - one bad trade hurts",
			},
		},
	},
	{
		ID:          OptionSelection,
		Title:       "Choose Your Instrument",
		Description: "Puts or calls?",
		Context: "The SPY option chain is in front of you. Selling puts profits when " +
			"the market holds or rises; selling calls profits when it holds or falls.",
		Choices: []model.Choice{
			{
				ID:      "select_puts",
				Text:    "Sell puts",
				Action:  "SELECT_PUTS",
				Tooltip: "Browse put strikes with a high probability of profit",
			},
			{
				ID:      "select_calls",
				Text:    "Sell calls",
				Action:  "SELECT_CALLS",
				Tooltip: "Browse call strikes with a high probability of profit",
			},
		},
	},
	{
		ID:          PutStrikeSelection,
		Title:       "Selling a Put Option",
		Description: "Select your strike price for selling a put.",
		Context: "Lower strikes carry less premium but a higher probability of " +
			"profit. These strikes all have a delta below 0.30.",
		Choices:  []model.Choice{},
		Template: true,
	},
	{
		ID:          CallStrikeSelection,
		Title:       "Selling a Call Option",
		Description: "Select your strike price for selling a call.",
		Context: "Higher strikes carry less premium but a higher probability of " +
			"profit. These strikes all have a delta below 0.30.",
		Choices:  []model.Choice{},
		Template: true,
	},
	{
		ID:          MarketMovement,
		Title:       "Market Movement",
		Description: "The market has moved. Your position is affected.",
		Context: "Three days have passed. The stock price has changed based on " +
			"market conditions.",
		Choices: []model.Choice{
			{
				ID:      "close_position",
				Text:    "Close your position",
				Action:  "CLOSE_POSITION",
				Tooltip: "Buy back the option you sold to close the position",
			},
			{
				ID:      "hold_position",
				Text:    "Hold your position",
				Action:  "HOLD_POSITION",
				Tooltip: "Continue holding your current position",
			},
			{
				ID:      "roll_position",
				Text:    "Roll your position",
				Action:  "ROLL_POSITION",
				Tooltip: "Close current position and open a new one with different strike/expiration",
			},
		},
	},
}
