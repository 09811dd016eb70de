package model

import (
	"regexp"
	"strconv"
)

// Kind identifies one resolvable game action.
type Kind string

const (
	KindBeginGame     Kind = "BEGIN_GAME"
	KindReviewBasics  Kind = "REVIEW_BASICS"
	KindLearnOptions  Kind = "LEARN_OPTIONS"
	KindSkipTutorial  Kind = "SKIP_TUTORIAL"
	KindSellPut       Kind = "SELL_PUT"
	KindErrorNoShares Kind = "ERROR_NO_SHARES"
	KindBuyStock      Kind = "BUY_STOCK"
	KindWait          Kind = "WAIT"

	KindSetTimeBarrier Kind = "SET_TIME_BARRIER" // Hours payload: 3, 4 or 5
	KindProceedTrading Kind = "PROCEED_TRADING"
	KindSkipTrading    Kind = "SKIP_TRADING"
	KindPositionSize   Kind = "POSITION_SIZE" // Percent payload: 10, 25 or 50

	KindSelectPuts  Kind = "SELECT_PUTS"
	KindSelectCalls Kind = "SELECT_CALLS"

	KindSellPutStrike  Kind = "SELL_PUT_STRIKE"  // Strike payload
	KindSellCallStrike Kind = "SELL_CALL_STRIKE" // Strike payload

	KindClosePosition Kind = "CLOSE_POSITION"
	KindHoldPosition  Kind = "HOLD_POSITION"
	KindRollPosition  Kind = "ROLL_POSITION"

	// KindUnknown is the catch-all; the resolver maps it to a filler
	// message, never an error.
	KindUnknown Kind = "UNKNOWN"
)

// Action is the parsed form of a wire action identifier. The numeric
// suffix families (SELL_PUT_450, SET_TIME_BARRIER_3, POSITION_SIZE_25)
// carry their parameter in the payload fields; everything else is the
// Kind alone. Raw preserves the original identifier for logging and for
// reproducing the wire form of unknown actions.
type Action struct {
	Kind    Kind   `json:"kind"`
	Strike  int    `json:"strike,omitempty"`
	Hours   int    `json:"hours,omitempty"`
	Percent int    `json:"percent,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// Wire identifiers with a numeric suffix.
// Examples: SELL_PUT_450, SELL_CALL_470, SET_TIME_BARRIER_3, POSITION_SIZE_25
var suffixRegex = regexp.MustCompile(
	`^(SELL_PUT|SELL_CALL|SET_TIME_BARRIER|POSITION_SIZE)_(\d+)$`,
)

var plainKinds = map[string]Kind{
	"BEGIN_GAME":      KindBeginGame,
	"REVIEW_BASICS":   KindReviewBasics,
	"LEARN_OPTIONS":   KindLearnOptions,
	"SKIP_TUTORIAL":   KindSkipTutorial,
	"SELL_PUT":        KindSellPut,
	"ERROR_NO_SHARES": KindErrorNoShares,
	"BUY_STOCK":       KindBuyStock,
	"WAIT":            KindWait,
	"PROCEED_TRADING": KindProceedTrading,
	"SKIP_TRADING":    KindSkipTrading,
	"SELECT_PUTS":     KindSelectPuts,
	"SELECT_CALLS":    KindSelectCalls,
	"CLOSE_POSITION":  KindClosePosition,
	"HOLD_POSITION":   KindHoldPosition,
	"ROLL_POSITION":   KindRollPosition,
}

// ParseAction parses a wire action identifier into its tagged form.
// Parsing happens once at the collaborator boundary; the resolver
// dispatches on Kind and never re-inspects strings. Identifiers that
// match nothing come back as KindUnknown, not an error, so the dispatch
// stays total.
func ParseAction(raw string) Action {
	if kind, ok := plainKinds[raw]; ok {
		return Action{Kind: kind, Raw: raw}
	}

	if m := suffixRegex.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			switch m[1] {
			case "SELL_PUT":
				return Action{Kind: KindSellPutStrike, Strike: n, Raw: raw}
			case "SELL_CALL":
				return Action{Kind: KindSellCallStrike, Strike: n, Raw: raw}
			case "SET_TIME_BARRIER":
				return Action{Kind: KindSetTimeBarrier, Hours: n, Raw: raw}
			case "POSITION_SIZE":
				return Action{Kind: KindPositionSize, Percent: n, Raw: raw}
			}
		}
	}

	return Action{Kind: KindUnknown, Raw: raw}
}

// String returns the wire form of the action, suitable for Choice.Action.
func (a Action) String() string {
	switch a.Kind {
	case KindSellPutStrike:
		return "SELL_PUT_" + strconv.Itoa(a.Strike)
	case KindSellCallStrike:
		return "SELL_CALL_" + strconv.Itoa(a.Strike)
	case KindSetTimeBarrier:
		return "SET_TIME_BARRIER_" + strconv.Itoa(a.Hours)
	case KindPositionSize:
		return "POSITION_SIZE_" + strconv.Itoa(a.Percent)
	case KindUnknown:
		return a.Raw
	default:
		return string(a.Kind)
	}
}
