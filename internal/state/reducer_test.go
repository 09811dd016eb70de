package state

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/optwhisper/game-engine/internal/model"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// fixedRand returns a reducer whose day advancement uses a constant draw.
func fixedRand(v float64) *Reducer {
	return &Reducer{Rand: func() float64 { return v }}
}

func TestApply_SetPlayerName(t *testing.T) {
	r := NewReducer()
	s := r.Apply(model.InitialState(), Op{Type: OpSetPlayerName, Name: "Alex"})
	if s.Player.Name != "Alex" {
		t.Errorf("expected name Alex, got %q", s.Player.Name)
	}
}

func TestApply_AddMessageAppends(t *testing.T) {
	r := NewReducer()
	s := model.InitialState()
	before := len(s.History)

	s2 := r.Apply(s, Op{Type: OpAddMessage, Message: "first"})
	s3 := r.Apply(s2, Op{Type: OpAddMessage, Message: "second"})

	if len(s3.History) != before+2 {
		t.Fatalf("expected %d history lines, got %d", before+2, len(s3.History))
	}
	if s3.History[before] != "first" || s3.History[before+1] != "second" {
		t.Errorf("history order wrong: %v", s3.History[before:])
	}
	// Earlier snapshots are untouched.
	if len(s.History) != before {
		t.Error("input state history mutated")
	}
}

func TestApply_UnknownOpIsIdentity(t *testing.T) {
	r := NewReducer()
	s := model.InitialState()
	s2 := r.Apply(s, Op{Type: OpType("teleport")})

	if s2.Player.Name != s.Player.Name ||
		len(s2.History) != len(s.History) ||
		s2.Market.CurrentDay != s.Market.CurrentDay {
		t.Error("unknown op must leave state unchanged")
	}
}

func TestApply_UpdatePlayerPartial(t *testing.T) {
	r := NewReducer()
	cash := d(5000)
	barrier := 4

	s := r.Apply(model.InitialState(), Op{
		Type:   OpUpdatePlayer,
		Player: &PlayerPatch{Cash: &cash, TradingTimeBarrier: &barrier},
	})

	if !s.Player.Cash.Equal(d(5000)) {
		t.Errorf("cash = %s, want 5000", s.Player.Cash)
	}
	if s.Player.TradingTimeBarrier == nil || *s.Player.TradingTimeBarrier != 4 {
		t.Error("trading time barrier not set")
	}
	// Untouched fields keep their initial values.
	if !s.Player.AccountValue.Equal(d(10000)) {
		t.Errorf("account value changed to %s", s.Player.AccountValue)
	}
}

func TestApply_UpdateMarketPartial(t *testing.T) {
	r := NewReducer()
	hour := 5

	s := r.Apply(model.InitialState(), Op{
		Type:   OpUpdateMarket,
		Market: &MarketPatch{CurrentHour: &hour},
	})

	if s.Market.CurrentHour != 5 {
		t.Errorf("hour = %d, want 5", s.Market.CurrentHour)
	}
	if s.Market.CurrentDay != 1 {
		t.Errorf("day changed to %d", s.Market.CurrentDay)
	}
}

func TestApply_AddTrade_SellCollectsPremium(t *testing.T) {
	r := NewReducer()
	entryHour := 2
	trade := model.Trade{
		Type:      model.OptionPut,
		Action:    model.SideSell,
		Strike:    430,
		Premium:   d(4),
		Expiry:    31,
		Quantity:  1,
		Status:    model.StatusOpen,
		EntryDay:  1,
		EntryHour: &entryHour,
	}

	s := r.Apply(model.InitialState(), Op{Type: OpAddTrade, Trade: &trade})

	// Premium 4 × 1 contract × 100 shares = 400 collected.
	if !s.Player.Cash.Equal(d(10400)) {
		t.Errorf("cash = %s, want 10400", s.Player.Cash)
	}
	if len(s.Player.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(s.Player.Trades))
	}
	if s.Player.CurrentTrade != nil {
		t.Error("current trade should be cleared after commit")
	}
	if s.Player.Experience != 10 {
		t.Errorf("experience = %d, want 10", s.Player.Experience)
	}
}

func TestApply_AddTrade_BuyPaysPremium(t *testing.T) {
	r := NewReducer()
	trade := model.Trade{
		Type:     model.OptionCall,
		Action:   model.SideBuy,
		Strike:   460,
		Premium:  d(4),
		Quantity: 1,
		Status:   model.StatusOpen,
		EntryDay: 1,
	}

	s := r.Apply(model.InitialState(), Op{Type: OpAddTrade, Trade: &trade})

	if !s.Player.Cash.Equal(d(9600)) {
		t.Errorf("cash = %s, want 9600", s.Player.Cash)
	}
}

func TestApply_AddTrade_NilPayload(t *testing.T) {
	r := NewReducer()
	s := model.InitialState()
	s2 := r.Apply(s, Op{Type: OpAddTrade})

	if len(s2.Player.Trades) != 0 || !s2.Player.Cash.Equal(s.Player.Cash) {
		t.Error("nil trade payload must be identity")
	}
}

func TestApply_CloseTrade(t *testing.T) {
	r := NewReducer()
	trade := model.Trade{
		Type:     model.OptionPut,
		Action:   model.SideSell,
		Strike:   430,
		Premium:  d(0.75),
		Expiry:   31,
		Quantity: 1,
		Status:   model.StatusOpen,
		EntryDay: 1,
	}
	s := r.Apply(model.InitialState(), Op{Type: OpAddTrade, Trade: &trade})

	s = r.Apply(s, Op{Type: OpCloseTrade, Close: &TradeClose{Index: 0, Profit: d(21)}})

	closed := s.Player.Trades[0]
	if closed.Status != model.StatusClosed {
		t.Errorf("status = %s, want closed", closed.Status)
	}
	if closed.ExitDay == nil || *closed.ExitDay != s.Market.CurrentDay {
		t.Error("exit day not stamped from market")
	}
	if closed.ExitHour == nil || *closed.ExitHour != s.Market.CurrentHour {
		t.Error("exit hour not stamped from market")
	}
	if closed.Profit == nil || !closed.Profit.Equal(d(21)) {
		t.Error("profit not recorded on trade")
	}
	// 10000 + 75 premium + 21 profit.
	if !s.Player.Cash.Equal(d(10096)) {
		t.Errorf("cash = %s, want 10096", s.Player.Cash)
	}
	if !s.Player.AccountValue.Equal(d(10021)) {
		t.Errorf("account value = %s, want 10021", s.Player.AccountValue)
	}
	if s.Player.Experience != 25 {
		t.Errorf("experience = %d, want 25", s.Player.Experience)
	}
}

func TestApply_CloseTrade_BadIndex(t *testing.T) {
	r := NewReducer()
	s := model.InitialState()

	for _, idx := range []int{-1, 0, 5} {
		s2 := r.Apply(s, Op{Type: OpCloseTrade, Close: &TradeClose{Index: idx, Profit: d(10)}})
		if !s2.Player.Cash.Equal(s.Player.Cash) {
			t.Errorf("index %d: out-of-range close must be identity", idx)
		}
	}
}

func TestApply_AdvanceDay(t *testing.T) {
	r := fixedRand(1.0)
	s := r.Apply(model.InitialState(), Op{Type: OpAdvanceDay})

	if s.Market.CurrentDay != 2 {
		t.Errorf("day = %d, want 2", s.Market.CurrentDay)
	}
	// rnd=1.0 at vol 15 → +1.5%: 450 × 1.015 = 456.75.
	if !s.Market.StockPrice.Equal(d(456.75)) {
		t.Errorf("price = %s, want 456.75", s.Market.StockPrice)
	}
}

func TestApply_ExperienceRollsOver(t *testing.T) {
	r := NewReducer()
	s := model.InitialState()
	exp := 95
	s = r.Apply(s, Op{Type: OpUpdatePlayer, Player: &PlayerPatch{Experience: &exp}})

	trade := model.Trade{Action: model.SideSell, Premium: d(1), Quantity: 1, Status: model.StatusOpen}
	s = r.Apply(s, Op{Type: OpAddTrade, Trade: &trade})

	if s.Player.Experience != 5 {
		t.Errorf("experience = %d, want 5 after rollover", s.Player.Experience)
	}
	if s.Player.Level != 2 {
		t.Errorf("level = %d, want 2", s.Player.Level)
	}
}

func TestApply_SetScenarioAndChoices(t *testing.T) {
	r := NewReducer()
	sc := model.Scenario{ID: "time_barrier", Title: "Discipline First"}
	choices := []model.Choice{{ID: "b3", Text: "3 hours", Action: "SET_TIME_BARRIER_3"}}

	s := r.Apply(model.InitialState(), Op{Type: OpSetScenario, Scenario: &sc})
	s = r.Apply(s, Op{Type: OpSetChoices, Choices: choices})

	if s.CurrentScenario == nil || s.CurrentScenario.ID != "time_barrier" {
		t.Error("scenario not set")
	}
	if len(s.CurrentChoices) != 1 || s.CurrentChoices[0].Action != "SET_TIME_BARRIER_3" {
		t.Error("choices not set")
	}
}

func TestApply_TypingAndTooltip(t *testing.T) {
	r := NewReducer()
	tip := "Delta measures probability of expiring in the money."

	s := r.Apply(model.InitialState(), Op{Type: OpSetTyping, Typing: true})
	if !s.IsTyping {
		t.Error("typing flag not set")
	}

	s = r.Apply(s, Op{Type: OpShowTooltip, Tooltip: &tip})
	if s.ShowTooltip == nil || *s.ShowTooltip != tip {
		t.Error("tooltip not set")
	}

	s = r.Apply(s, Op{Type: OpShowTooltip, Tooltip: nil})
	if s.ShowTooltip != nil {
		t.Error("tooltip not cleared")
	}
}
