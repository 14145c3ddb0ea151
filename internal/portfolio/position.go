package portfolio

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

// InstrumentID keys all per-instrument state of one portfolio. It is a
// pure function of (engine id, exchange, instrument): equal inputs give
// byte-equal identifiers.
type InstrumentID string

// instrumentIDPrefix is embedded in every InstrumentID so the Redis
// backend can enumerate all open positions with one prefix scan.
const instrumentIDPrefix = "instrument_"

// DetermineInstrumentID derives the InstrumentID for an instrument
// traded on an exchange by the portfolio identified by engineID.
func DetermineInstrumentID(engineID uuid.UUID, exchange market.Exchange, instrument market.Instrument) InstrumentID {
	return InstrumentID(fmt.Sprintf(
		"%s%s_%s_%s_%s",
		instrumentIDPrefix, engineID, exchange, instrument.Base, instrument.Quote,
	))
}

// PositionMeta holds the lifecycle timestamps of a Position and, once
// exited, the Balance snapshot taken at exit.
type PositionMeta struct {
	EnterTime  time.Time `json:"enter_time"`
	UpdateTime time.Time `json:"update_time"`
	// ExitBalance is the Portfolio Balance when the Position exited.
	ExitBalance *Balance `json:"exit_balance,omitempty"`
}

// Position is one open or closed directional exposure with its own
// accounting state.
//
// Fee accounting is deliberately asymmetric: while the Position is
// open, UnrealisedProfitLoss deducts 2x EnterFeesTotal to pre-account
// for an anticipated symmetric exit fee; RealisedProfitLoss uses the
// actual fees paid on each side, counted once.
type Position struct {
	SignalID     uuid.UUID    `json:"signal_id"`
	InstrumentID InstrumentID `json:"instrument_id"`

	Exchange   market.Exchange   `json:"exchange"`
	Instrument market.Instrument `json:"instrument"`
	Meta       PositionMeta      `json:"meta"`

	// Side is Buy for long exposure, Sell for short.
	Side market.Side `json:"side"`
	// Quantity is signed: positive iff Side is Buy, negative iff Side
	// is Sell. abs(Quantity) is the number of units held.
	Quantity float64 `json:"quantity"`

	// Entry snapshot.
	EnterFeesTotal     float64 `json:"enter_fees_total"`
	EnterValueGross    float64 `json:"enter_value_gross"`
	EnterAvgPriceGross float64 `json:"enter_avg_price_gross"`

	// Mark-to-market state.
	CurrentSymbolPrice   float64 `json:"current_symbol_price"`
	CurrentValueGross    float64 `json:"current_value_gross"`
	UnrealisedProfitLoss float64 `json:"unrealised_profit_loss"`

	// Exit snapshot, zero until the Position exits.
	ExitFeesTotal      float64 `json:"exit_fees_total"`
	ExitValueGross     float64 `json:"exit_value_gross"`
	ExitAvgPriceGross  float64 `json:"exit_avg_price_gross"`
	RealisedProfitLoss float64 `json:"realised_profit_loss"`
}

// PositionUpdate communicates an open Position's change in state after
// a mark-to-market pass.
type PositionUpdate struct {
	SignalID             uuid.UUID    `json:"signal_id"`
	InstrumentID         InstrumentID `json:"instrument_id"`
	UpdateTime           time.Time    `json:"update_time"`
	CurrentSymbolPrice   float64      `json:"current_symbol_price"`
	CurrentValueGross    float64      `json:"current_value_gross"`
	UnrealisedProfitLoss float64      `json:"unrealised_profit_loss"`
}

// PositionExit communicates the final accounting state of a Position
// at the moment it exited.
type PositionExit struct {
	SignalID           uuid.UUID    `json:"signal_id"`
	InstrumentID       InstrumentID `json:"instrument_id"`
	ExitTime           time.Time    `json:"exit_time"`
	ExitBalance        Balance      `json:"exit_balance"`
	ExitFeesTotal      float64      `json:"exit_fees_total"`
	ExitValueGross     float64      `json:"exit_value_gross"`
	ExitAvgPriceGross  float64      `json:"exit_avg_price_gross"`
	RealisedProfitLoss float64      `json:"realised_profit_loss"`
}

// EnterPosition constructs a new open Position from an entry fill.
// Fails with ErrCannotEnterPositionWithExitFill if the fill carries an
// exit decision.
func EnterPosition(engineID uuid.UUID, fill *execution.FillEvent) (Position, error) {
	if fill.Decision.IsExit() {
		return Position{}, ErrCannotEnterPositionWithExitFill
	}

	side := market.SideBuy
	if fill.Quantity < 0 {
		side = market.SideSell
	}

	enterFeesTotal := fill.Fees.Total()
	enterAvgPriceGross := fill.FillValueGross / math.Abs(fill.Quantity)

	return Position{
		SignalID:     fill.SignalID,
		InstrumentID: DetermineInstrumentID(engineID, fill.Exchange, fill.Instrument),
		Exchange:     fill.Exchange,
		Instrument:   fill.Instrument,
		Meta: PositionMeta{
			EnterTime:  fill.Time,
			UpdateTime: fill.Time,
		},
		Side:               side,
		Quantity:           fill.Quantity,
		EnterFeesTotal:     enterFeesTotal,
		EnterValueGross:    fill.FillValueGross,
		EnterAvgPriceGross: enterAvgPriceGross,
		CurrentSymbolPrice: enterAvgPriceGross,
		CurrentValueGross:  fill.FillValueGross,
		// Pre-account the anticipated exit fee alongside the entry fee.
		UnrealisedProfitLoss: -enterFeesTotal * 2.0,
	}, nil
}

// Update marks the Position to market against the latest price carried
// by the input event. Returns nil, mutating nothing, if the event
// variant is not price-bearing.
func (p *Position) Update(event *market.MarketEvent) *PositionUpdate {
	price, ok := event.Price()
	if !ok {
		return nil
	}

	p.Meta.UpdateTime = event.Time
	p.CurrentSymbolPrice = price
	p.CurrentValueGross = math.Abs(p.Quantity) * price

	switch p.Side {
	case market.SideBuy:
		p.UnrealisedProfitLoss = p.CurrentValueGross - p.EnterValueGross - p.EnterFeesTotal*2.0
	case market.SideSell:
		p.UnrealisedProfitLoss = p.EnterValueGross - p.CurrentValueGross - p.EnterFeesTotal*2.0
	}

	return &PositionUpdate{
		SignalID:             p.SignalID,
		InstrumentID:         p.InstrumentID,
		UpdateTime:           p.Meta.UpdateTime,
		CurrentSymbolPrice:   p.CurrentSymbolPrice,
		CurrentValueGross:    p.CurrentValueGross,
		UnrealisedProfitLoss: p.UnrealisedProfitLoss,
	}
}

// Exit closes the Position against an exit fill, stamping the supplied
// Balance snapshot into the Position meta. Fails with
// ErrCannotExitPositionWithEntryFill if the fill carries an entry
// decision.
func (p *Position) Exit(balance Balance, fill *execution.FillEvent) (PositionExit, error) {
	if fill.Decision.IsEntry() {
		return PositionExit{}, ErrCannotExitPositionWithEntryFill
	}

	p.ExitFeesTotal = fill.Fees.Total()
	p.ExitValueGross = fill.FillValueGross
	p.ExitAvgPriceGross = fill.FillValueGross / math.Abs(fill.Quantity)

	totalFees := p.EnterFeesTotal + p.ExitFeesTotal
	switch p.Side {
	case market.SideBuy:
		p.RealisedProfitLoss = p.ExitValueGross - p.EnterValueGross - totalFees
	case market.SideSell:
		p.RealisedProfitLoss = p.EnterValueGross - p.ExitValueGross - totalFees
	}

	p.Meta.UpdateTime = fill.Time
	p.Meta.ExitBalance = &balance

	return PositionExit{
		SignalID:           p.SignalID,
		InstrumentID:       p.InstrumentID,
		ExitTime:           fill.Time,
		ExitBalance:        balance,
		ExitFeesTotal:      p.ExitFeesTotal,
		ExitValueGross:     p.ExitValueGross,
		ExitAvgPriceGross:  p.ExitAvgPriceGross,
		RealisedProfitLoss: p.RealisedProfitLoss,
	}, nil
}

// DetermineExitDecision returns the Decision that closes the Position.
func (p *Position) DetermineExitDecision() strategy.Decision {
	if p.Side == market.SideSell {
		return strategy.DecisionCloseShort
	}
	return strategy.DecisionCloseLong
}
