package engine

import (
	"github.com/optwhisper/game-engine/internal/model"
	"github.com/optwhisper/game-engine/internal/scenario"
)

// NextScenario returns the scenario a choice explicitly leads to, or ""
// when the action has no choice-triggered transition (the flow advancer
// may still move things along in that case).
func NextScenario(a model.Action) string {
	switch a.Kind {
	case model.KindReviewBasics:
		return scenario.Tutorial
	case model.KindSkipTutorial:
		return scenario.FirstTrade
	case model.KindSellPut, model.KindSelectPuts:
		return scenario.PutStrikeSelection
	case model.KindSelectCalls:
		return scenario.CallStrikeSelection
	case model.KindSellPutStrike, model.KindSellCallStrike:
		return scenario.MarketMovement
	case model.KindSetTimeBarrier:
		return scenario.TradingDecision
	case model.KindSkipTrading:
		return scenario.TimeBarrier
	default:
		return ""
	}
}

// DaysAfter returns how many market days elapse after an action commits.
// Filling a strike jumps the story three days ahead so the position has
// something to react to.
func DaysAfter(a model.Action) int {
	switch a.Kind {
	case model.KindSellPutStrike, model.KindSellCallStrike:
		return 3
	default:
		return 0
	}
}

// ConsultsAdvancer reports whether an action's aftermath should be run
// through the flow advancer. This is the one-shot gate the advancer's
// idempotence contract asks the caller to provide: only actions that
// change the fields the advancer reads trigger a consultation.
func ConsultsAdvancer(a model.Action) bool {
	switch a.Kind {
	case model.KindProceedTrading, model.KindPositionSize:
		return true
	default:
		return false
	}
}
