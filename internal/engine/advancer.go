package engine

import (
	"fmt"

	"github.com/optwhisper/game-engine/internal/model"
	"github.com/optwhisper/game-engine/internal/scenario"
)

// Advance inspects accumulated state and decides whether the flow should
// auto-advance to another scenario. Rules are evaluated in order, first
// match wins; no match returns ("", ""). The function is stateless and
// idempotent - identical state yields identical results - so the caller is
// responsible for not re-applying a transition it already took.
func Advance(s model.GameState) (nextScenarioID, message string) {
	p := s.Player

	switch {
	// Setup finished: the player has a name, move into the trading day.
	case s.GamePhase == model.PhaseSetup && p.Name != "":
		return scenario.TimeBarrier,
			fmt.Sprintf("Welcome, %s! Let's begin your options trading journey.", p.Name)

	// Committed to trading today but not yet sized.
	case p.TradingTimeBarrier != nil && p.CanTradeToday && p.PositionSize == nil:
		return scenario.PositionSizing,
			"Before picking a trade, decide how much of the account it gets."

	// Sized and nothing pending: choose the instrument.
	case p.PositionSize != nil && p.CurrentTrade == nil:
		return scenario.OptionSelection,
			"Sizing settled. Now pick your instrument."

	default:
		return "", ""
	}
}
