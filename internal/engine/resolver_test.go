package engine

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/optwhisper/game-engine/internal/model"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestResolve_BeginGame(t *testing.T) {
	res := Resolve(model.ParseAction("BEGIN_GAME"), model.InitialState())

	if res.Patch.Phase == nil || *res.Patch.Phase != model.PhaseSetup {
		t.Error("expected phase patch to setup")
	}
	if !strings.Contains(res.Message, "name") {
		t.Errorf("expected a name prompt, got %q", res.Message)
	}
}

func TestResolve_UnknownActionIsTotal(t *testing.T) {
	res := Resolve(model.ParseAction("DANCE"), model.InitialState())

	if !res.Patch.IsZero() {
		t.Error("unknown action must produce an empty patch")
	}
	if res.Message == "" {
		t.Error("unknown action must still produce a message")
	}
}

func TestResolve_SelectPuts_FiltersByDelta(t *testing.T) {
	res := Resolve(model.ParseAction("SELECT_PUTS"), model.InitialState())

	// Only the 430 put sits strictly below the 0.30 delta threshold.
	if len(res.Patch.Choices) != 1 {
		t.Fatalf("expected 1 strike choice, got %d", len(res.Patch.Choices))
	}
	c := res.Patch.Choices[0]
	if c.Action != "SELL_PUT_430" {
		t.Errorf("choice action = %q, want SELL_PUT_430", c.Action)
	}
	if c.ID != "strike_430" {
		t.Errorf("choice id = %q, want strike_430", c.ID)
	}
	if c.Tooltip == "" {
		t.Error("strike choices carry a delta tooltip")
	}
}

func TestResolve_SelectCalls_FiltersByDelta(t *testing.T) {
	res := Resolve(model.ParseAction("SELECT_CALLS"), model.InitialState())

	if len(res.Patch.Choices) != 1 {
		t.Fatalf("expected 1 strike choice, got %d", len(res.Patch.Choices))
	}
	if res.Patch.Choices[0].Action != "SELL_CALL_470" {
		t.Errorf("choice action = %q, want SELL_CALL_470", res.Patch.Choices[0].Action)
	}
}

func TestResolve_StrikeChoicesAscending(t *testing.T) {
	s := model.InitialState()
	s.Market.Deltas.Puts = map[int]float64{470: 0.1, 430: 0.15, 450: 0.2, 460: 0.9}

	res := Resolve(model.ParseAction("SELECT_PUTS"), s)
	if len(res.Patch.Choices) != 3 {
		t.Fatalf("expected 3 choices, got %d", len(res.Patch.Choices))
	}
	want := []string{"SELL_PUT_430", "SELL_PUT_450", "SELL_PUT_470"}
	for i, c := range res.Patch.Choices {
		if c.Action != want[i] {
			t.Errorf("choice %d action = %q, want %q", i, c.Action, want[i])
		}
	}
}

func TestResolve_SellPutStrike(t *testing.T) {
	s := model.InitialState()
	res := Resolve(model.ParseAction("SELL_PUT_450"), s)

	if res.Patch.Player == nil || res.Patch.Player.CurrentTrade == nil {
		t.Fatal("expected a pending trade in the patch")
	}
	trade := res.Patch.Player.CurrentTrade

	if trade.Type != model.OptionPut || trade.Action != model.SideSell {
		t.Errorf("trade = %s/%s, want put/sell", trade.Type, trade.Action)
	}
	if trade.Strike != 450 {
		t.Errorf("strike = %d, want 450", trade.Strike)
	}
	// Delta 0.50 × 5 = 2.50 per share.
	if !trade.Premium.Equal(d(2.50)) {
		t.Errorf("premium = %s, want 2.50", trade.Premium)
	}
	if trade.Expiry != s.Market.CurrentDay+30 {
		t.Errorf("expiry = %d, want %d", trade.Expiry, s.Market.CurrentDay+30)
	}
	if trade.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", trade.Quantity)
	}
	if trade.Status != model.StatusOpen {
		t.Errorf("status = %s, want open", trade.Status)
	}
	if trade.Delta == nil || *trade.Delta != 0.50 {
		t.Error("entry delta not recorded")
	}
	if trade.EntryHour == nil || *trade.EntryHour != s.Market.CurrentHour {
		t.Error("entry hour not recorded")
	}
}

func TestResolve_SellStrike_UnlistedUsesDefaultDelta(t *testing.T) {
	res := Resolve(model.ParseAction("SELL_PUT_425"), model.InitialState())

	trade := res.Patch.Player.CurrentTrade
	if trade == nil {
		t.Fatal("expected a pending trade")
	}
	// Default delta 0.15 × 5 = 0.75.
	if !trade.Premium.Equal(d(0.75)) {
		t.Errorf("premium = %s, want 0.75", trade.Premium)
	}
}

func TestResolve_BuyStock(t *testing.T) {
	res := Resolve(model.ParseAction("BUY_STOCK"), model.InitialState())

	// 100 × 450 = 45000 exceeds the 10000 cash: no-op with explanation.
	if !res.Patch.IsZero() {
		t.Error("insufficient funds must not change state")
	}
	if !strings.Contains(res.Message, "enough cash") {
		t.Errorf("expected an insufficient funds message, got %q", res.Message)
	}
}

func TestResolve_BuyStock_SufficientFunds(t *testing.T) {
	s := model.InitialState()
	s.Player.Cash = d(50000)

	res := Resolve(model.ParseAction("BUY_STOCK"), s)
	if res.Patch.Player == nil || res.Patch.Player.Cash == nil {
		t.Fatal("expected a cash patch")
	}
	if !res.Patch.Player.Cash.Equal(d(5000)) {
		t.Errorf("cash = %s, want 5000", res.Patch.Player.Cash)
	}
}

func TestResolve_SetTimeBarrier(t *testing.T) {
	res := Resolve(model.ParseAction("SET_TIME_BARRIER_4"), model.InitialState())

	if res.Patch.Player == nil || res.Patch.Player.TradingTimeBarrier == nil {
		t.Fatal("expected a barrier patch")
	}
	if *res.Patch.Player.TradingTimeBarrier != 4 {
		t.Errorf("barrier = %d, want 4", *res.Patch.Player.TradingTimeBarrier)
	}
}

func TestResolve_ProceedTrading_RaisesHourToBarrier(t *testing.T) {
	s := model.InitialState()
	barrier := 4
	s.Player.TradingTimeBarrier = &barrier
	s.Market.CurrentHour = 1

	res := Resolve(model.ParseAction("PROCEED_TRADING"), s)

	if res.Patch.Player == nil || res.Patch.Player.CanTradeToday == nil || !*res.Patch.Player.CanTradeToday {
		t.Error("expected can_trade_today true")
	}
	if res.Patch.Market == nil || res.Patch.Market.CurrentHour == nil || *res.Patch.Market.CurrentHour != 4 {
		t.Error("expected hour raised to the barrier")
	}
}

func TestResolve_ProceedTrading_HourAlreadyPastBarrier(t *testing.T) {
	s := model.InitialState()
	barrier := 3
	s.Player.TradingTimeBarrier = &barrier
	s.Market.CurrentHour = 5

	res := Resolve(model.ParseAction("PROCEED_TRADING"), s)
	if *res.Patch.Market.CurrentHour != 5 {
		t.Errorf("hour = %d, want 5 (never rewound)", *res.Patch.Market.CurrentHour)
	}
}

func TestResolve_SkipTrading(t *testing.T) {
	s := model.InitialState()
	s.Market.CurrentHour = 3

	res := Resolve(model.ParseAction("SKIP_TRADING"), s)

	if res.Patch.Player == nil || res.Patch.Player.CanTradeToday == nil || *res.Patch.Player.CanTradeToday {
		t.Error("expected can_trade_today false")
	}
	if res.Patch.Market == nil || *res.Patch.Market.CurrentDay != 2 || *res.Patch.Market.CurrentHour != 0 {
		t.Error("expected next day at hour zero")
	}
}

func TestResolve_PositionSize(t *testing.T) {
	res := Resolve(model.ParseAction("POSITION_SIZE_25"), model.InitialState())

	if res.Patch.Player == nil || res.Patch.Player.PositionSize == nil {
		t.Fatal("expected a sizing patch")
	}
	if *res.Patch.Player.PositionSize != 25 {
		t.Errorf("size = %d, want 25", *res.Patch.Player.PositionSize)
	}
}

func TestResolve_ClosePosition_NoOpenTrades(t *testing.T) {
	res := Resolve(model.ParseAction("CLOSE_POSITION"), model.InitialState())

	if !res.Patch.IsZero() {
		t.Error("closing with no positions must not change state")
	}
	if !strings.Contains(res.Message, "open positions") {
		t.Errorf("expected a no-positions message, got %q", res.Message)
	}
}

func TestResolve_ClosePosition_ValuesShortPut(t *testing.T) {
	s := model.InitialState()
	entryHour := 0
	s.Player.Trades = []model.Trade{{
		Type:      model.OptionPut,
		Action:    model.SideSell,
		Strike:    430,
		Premium:   d(0.75),
		Expiry:    31,
		Quantity:  1,
		Status:    model.StatusOpen,
		EntryDay:  1,
		EntryHour: &entryHour,
	}}
	s.Market.CurrentDay = 4
	s.Market.StockPrice = d(452.10)

	res := Resolve(model.ParseAction("CLOSE_POSITION"), s)

	if res.Patch.Close == nil {
		t.Fatal("expected a close patch")
	}
	if res.Patch.Close.Index != 0 {
		t.Errorf("index = %d, want 0", res.Patch.Close.Index)
	}
	// Out of the money: intrinsic 0, time value 0.75 × (27/30) × 0.8 = 0.54.
	// Closing cost 54, profit 75 − 54 = 21.
	if !res.Patch.Close.Profit.Equal(d(21)) {
		t.Errorf("profit = %s, want 21", res.Patch.Close.Profit)
	}
	if !strings.Contains(res.Message, "profit") {
		t.Errorf("expected a profit message, got %q", res.Message)
	}
}

func TestResolve_ClosePosition_InTheMoneyLoss(t *testing.T) {
	s := model.InitialState()
	s.Player.Trades = []model.Trade{{
		Type:     model.OptionPut,
		Action:   model.SideSell,
		Strike:   450,
		Premium:  d(2.50),
		Expiry:   31,
		Quantity: 1,
		Status:   model.StatusOpen,
		EntryDay: 1,
	}}
	s.Market.CurrentDay = 4
	s.Market.StockPrice = d(440)

	res := Resolve(model.ParseAction("CLOSE_POSITION"), s)

	// Intrinsic 10, time value 2.50 × 0.9 × 0.8 = 1.80: cost 1180,
	// premium collected 250, so a 930 loss.
	if !res.Patch.Close.Profit.Equal(d(-930)) {
		t.Errorf("profit = %s, want -930", res.Patch.Close.Profit)
	}
	if !strings.Contains(res.Message, "loss") {
		t.Errorf("expected a loss message, got %q", res.Message)
	}
}

func TestResolve_ClosePosition_SkipsClosedTrades(t *testing.T) {
	s := model.InitialState()
	s.Player.Trades = []model.Trade{
		{Type: model.OptionPut, Action: model.SideSell, Strike: 430, Premium: d(0.75),
			Expiry: 31, Quantity: 1, Status: model.StatusOpen, EntryDay: 1},
		{Type: model.OptionPut, Action: model.SideSell, Strike: 440, Premium: d(1.50),
			Expiry: 31, Quantity: 1, Status: model.StatusClosed, EntryDay: 1},
	}
	s.Market.CurrentDay = 4

	res := Resolve(model.ParseAction("CLOSE_POSITION"), s)
	if res.Patch.Close == nil || res.Patch.Close.Index != 0 {
		t.Error("expected the open trade at index 0, not the closed one")
	}
}

func TestResolve_ClosePosition_PastExpiryClampsTimeValue(t *testing.T) {
	s := model.InitialState()
	s.Player.Trades = []model.Trade{{
		Type:     model.OptionPut,
		Action:   model.SideSell,
		Strike:   430,
		Premium:  d(0.75),
		Expiry:   31,
		Quantity: 1,
		Status:   model.StatusOpen,
		EntryDay: 1,
	}}
	s.Market.CurrentDay = 40
	s.Market.StockPrice = d(452)

	res := Resolve(model.ParseAction("CLOSE_POSITION"), s)

	// No time left and out of the money: full premium kept.
	if !res.Patch.Close.Profit.Equal(d(75)) {
		t.Errorf("profit = %s, want 75", res.Patch.Close.Profit)
	}
}

func TestResolve_NarrativeOnlyActions(t *testing.T) {
	for _, raw := range []string{
		"REVIEW_BASICS", "LEARN_OPTIONS", "ERROR_NO_SHARES",
		"WAIT", "HOLD_POSITION", "ROLL_POSITION",
	} {
		res := Resolve(model.ParseAction(raw), model.InitialState())
		if !res.Patch.IsZero() {
			t.Errorf("%s: expected narrative-only result", raw)
		}
		if res.Message == "" {
			t.Errorf("%s: expected a message", raw)
		}
	}
}
