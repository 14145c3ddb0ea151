// Package strategy defines the advisory signal model consumed by the
// portfolio layer, plus the SignalGenerator contract strategies
// implement. Strategies are black boxes: they read market events and
// may emit a Signal; everything downstream of the Signal is the
// portfolio's business.
package strategy

import (
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/tradefolio/internal/market"
)

// SignalGenerator may generate an advisory Signal as a result of
// analysing an input MarketEvent.
type SignalGenerator interface {
	// GenerateSignal optionally returns a Signal given the input
	// MarketEvent. A nil Signal means the strategy has no advice.
	GenerateSignal(event *market.MarketEvent) *Signal
}

// Decision describes the type of advisory action under consideration.
type Decision string

const (
	DecisionLong       Decision = "Long"
	DecisionCloseLong  Decision = "CloseLong"
	DecisionShort      Decision = "Short"
	DecisionCloseShort Decision = "CloseShort"
)

// IsLong determines if a Decision is Long.
func (d Decision) IsLong() bool {
	return d == DecisionLong
}

// IsShort determines if a Decision is Short.
func (d Decision) IsShort() bool {
	return d == DecisionShort
}

// IsEntry determines if a Decision is an entry (Long or Short).
func (d Decision) IsEntry() bool {
	return d == DecisionLong || d == DecisionShort
}

// IsExit determines if a Decision is an exit (CloseLong or CloseShort).
func (d Decision) IsExit() bool {
	return d == DecisionCloseLong || d == DecisionCloseShort
}

// Signal is an advisory directional recommendation for one instrument,
// interpreted by the portfolio's order generator.
type Signal struct {
	SignalID   uuid.UUID         `json:"signal_id"`
	Time       time.Time         `json:"time"`
	Exchange   market.Exchange   `json:"exchange"`
	Instrument market.Instrument `json:"instrument"`
	Suggest    Suggest           `json:"suggest"`
	// Metadata propagated from the MarketEvent that yielded this Signal.
	MarketMeta market.MarketMeta `json:"market_meta"`
}

// SuggestSide tags the two possible directions of a Suggest.
type SuggestSide string

const (
	SuggestLong  SuggestSide = "suggest_long"
	SuggestShort SuggestSide = "suggest_short"
)

// Suggest is the payload of a Signal: a directional endorsement plus
// the policy flags that steer reconciliation against open positions.
// Closed tagged variant: Side selects the direction, Info carries the
// shared payload.
type Suggest struct {
	Side SuggestSide `json:"side"`
	Info SuggestInfo `json:"info"`
}

// NewSuggestLong constructs a long-side Suggest.
func NewSuggestLong(info SuggestInfo) Suggest {
	return Suggest{Side: SuggestLong, Info: info}
}

// NewSuggestShort constructs a short-side Suggest.
func NewSuggestShort(info SuggestInfo) Suggest {
	return Suggest{Side: SuggestShort, Info: info}
}

// NewSuggest constructs a Suggest whose side matches the direction the
// input Decision endorses.
func NewSuggest(decision Decision, info SuggestInfo) Suggest {
	switch decision {
	case DecisionShort, DecisionCloseLong:
		return NewSuggestShort(info)
	default:
		return NewSuggestLong(info)
	}
}

// SuggestInfo holds the strength and policy flags of an advisory
// suggestion.
type SuggestInfo struct {
	Strength    float64  `json:"strength"`
	FailPrice   *float64 `json:"fail_price,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	// OnlyCloseOpposite: exit an existing opposite position without
	// opening a new one in this direction.
	OnlyCloseOpposite bool `json:"only_close_opposite"`
	// ReEnter: open another position even if one is already open in the
	// same direction.
	ReEnter bool `json:"re_enter"`
}

// NewSuggestInfoStrength returns a SuggestInfo with the given strength
// and the conservative flag defaults (close opposite only, no
// re-entry).
func NewSuggestInfoStrength(strength float64) SuggestInfo {
	return SuggestInfo{
		Strength:          strength,
		OnlyCloseOpposite: true,
		ReEnter:           false,
	}
}

// SignalForceExit flattens every position on one instrument. Produced
// internally by the order generator, or by an operator command.
type SignalForceExit struct {
	Time       time.Time         `json:"time"`
	Exchange   market.Exchange   `json:"exchange"`
	Instrument market.Instrument `json:"instrument"`
}

// NewSignalForceExit constructs a SignalForceExit stamped with the
// supplied time.
func NewSignalForceExit(t time.Time, exchange market.Exchange, instrument market.Instrument) SignalForceExit {
	return SignalForceExit{
		Time:       t,
		Exchange:   exchange,
		Instrument: instrument,
	}
}

// SignalForceExitFromMarket converts a Market into a SignalForceExit.
func SignalForceExitFromMarket(t time.Time, m market.Market) SignalForceExit {
	return NewSignalForceExit(t, m.Exchange, m.Instrument)
}

// SignalInstrumentPositionsExit instructs the portfolio to exit all
// positions of one instrument. It is an internal control token
// generated by the order generator and handed back to the portfolio,
// not an external message.
type SignalInstrumentPositionsExit struct {
	SignalID  uuid.UUID       `json:"signal_id"`
	ForceExit SignalForceExit `json:"force_exit"`
}

// NewSignalInstrumentPositionsExit wraps a SignalForceExit with the
// signal id it originated from.
func NewSignalInstrumentPositionsExit(signalID uuid.UUID, forceExit SignalForceExit) SignalInstrumentPositionsExit {
	return SignalInstrumentPositionsExit{
		SignalID:  signalID,
		ForceExit: forceExit,
	}
}
