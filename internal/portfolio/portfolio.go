// Package portfolio implements the event-driven portfolio engine: it
// consumes advisory signals and market/fill events, and
// deterministically maintains positions, cash balance and per-market
// performance statistics against an exclusively-owned repository.
package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

// Portfolio orchestrates market, signal and fill events against its
// Repository using an OrderAllocator and an OrderEvaluator.
//
// Portfolio is single-threaded with respect to its own API: exactly one
// operation is active at a time, and every repository call is
// synchronous. Given identical event sequences and an injected clock,
// its state is bit-identical across runs.
type Portfolio[S Summariser] struct {
	// engineID associates this Portfolio with one engine instance
	// (1-to-1 relationship) and scopes every persistence key.
	engineID          uuid.UUID
	repository        Repository[S]
	allocationManager OrderAllocator
	riskManager       OrderEvaluator
	logger            zerolog.Logger
	now               func() time.Time
}

// UpdateFromMarket marks every open Position on the event's instrument
// to market, persisting each Position whose update produced a diff.
// Returns the diffs in repository order. No balance mutation occurs.
func (p *Portfolio[S]) UpdateFromMarket(event *market.MarketEvent) ([]PositionUpdate, error) {
	instrumentID := DetermineInstrumentID(p.engineID, event.Exchange, event.Instrument)

	positions, err := p.repository.GetOpenInstrumentPositions(instrumentID)
	if err != nil {
		return nil, RepositoryInteractionError{Err: err}
	}

	updates := make([]PositionUpdate, 0, len(positions))
	for i := range positions {
		update := positions[i].Update(event)
		if update == nil {
			continue
		}
		if err := p.repository.SetOpenPosition(positions[i]); err != nil {
			return nil, RepositoryInteractionError{Err: err}
		}
		updates = append(updates, *update)
	}

	return updates, nil
}

// GenerateOrder reconciles an advisory Signal with the open Positions
// on its instrument. It returns at most one forced-exit token (close
// the opposite exposure) and at most one candidate OrderEvent (open a
// new exposure); both may be produced by the same call (close then
// reverse).
func (p *Portfolio[S]) GenerateOrder(signal *strategy.Signal) (*strategy.SignalInstrumentPositionsExit, *execution.OrderEvent, error) {
	instrumentID := DetermineInstrumentID(p.engineID, signal.Exchange, signal.Instrument)

	positions, err := p.repository.GetOpenInstrumentPositions(instrumentID)
	if err != nil {
		return nil, nil, RepositoryInteractionError{Err: err}
	}

	// If the signal would open a new Position rather than close one,
	// check there is cash to enter with.
	if len(positions) == 0 {
		noCash, err := p.noCashToEnterNewPosition()
		if err != nil {
			return nil, nil, err
		}
		if noCash {
			return nil, nil, nil
		}
	}

	closeSignal, openSignal := parseSignalSuggest(positions, signal.Suggest)

	var forceExit *strategy.SignalInstrumentPositionsExit
	if closeSignal != nil {
		exit := strategy.NewSignalInstrumentPositionsExit(
			signal.SignalID,
			strategy.NewSignalForceExit(signal.Time, signal.Exchange, signal.Instrument),
		)
		forceExit = &exit
	}

	if openSignal == nil {
		return forceExit, nil, nil
	}

	order := &execution.OrderEvent{
		SignalID:   signal.SignalID,
		Time:       p.now(),
		Exchange:   signal.Exchange,
		Instrument: signal.Instrument,
		MarketMeta: signal.MarketMeta,
		Decision:   openSignal.decision,
		Quantity:   0.0,
		OrderType:  execution.DefaultOrderType(),
	}

	p.allocationManager.AllocateOrder(p.repository, order, positions, openSignal.info)

	return forceExit, p.riskManager.EvaluateOrder(p.repository, order), nil
}

// GenerateExitInstrumentOrder generates the OrderEvents that flatten
// every open Position on the instrument named by the force-exit token.
// Returns an empty slice when nothing is open.
func (p *Portfolio[S]) GenerateExitInstrumentOrder(signal strategy.SignalInstrumentPositionsExit) ([]execution.OrderEvent, error) {
	instrumentID := DetermineInstrumentID(
		p.engineID, signal.ForceExit.Exchange, signal.ForceExit.Instrument,
	)

	positions, err := p.repository.GetOpenInstrumentPositions(instrumentID)
	if err != nil {
		return nil, RepositoryInteractionError{Err: err}
	}
	if len(positions) == 0 {
		p.logger.Info().
			Str("instrument_id", string(instrumentID)).
			Str("outcome", "no forced exit OrderEvent generated").
			Msg("cannot generate forced exit OrderEvent for a Position that isn't open")
		return []execution.OrderEvent{}, nil
	}

	orders := make([]execution.OrderEvent, 0, len(positions))
	for i := range positions {
		position := &positions[i]
		orders = append(orders, execution.OrderEvent{
			SignalID:   signal.SignalID,
			Time:       p.now(),
			Exchange:   signal.ForceExit.Exchange,
			Instrument: signal.ForceExit.Instrument,
			MarketMeta: market.MarketMeta{
				Close: position.CurrentSymbolPrice,
				Time:  position.Meta.UpdateTime,
			},
			Decision:  position.DetermineExitDecision(),
			Quantity:  0.0 - position.Quantity,
			OrderType: execution.OrderTypeMarket,
		})
	}
	return orders, nil
}

// UpdateFromFill mutates positions, balance and statistics from one
// FillEvent and returns the domain events generated, in generation
// order: PositionNew/PositionExit events first, the Balance event last.
// Events already emitted before a failure are not rolled back.
func (p *Portfolio[S]) UpdateFromFill(fill *execution.FillEvent) ([]Event, error) {
	events := make([]Event, 0, 2)

	balance, err := p.repository.GetBalance(p.engineID)
	if err != nil {
		return nil, RepositoryInteractionError{Err: err}
	}
	balance.Time = fill.Time

	instrumentID := DetermineInstrumentID(p.engineID, fill.Exchange, fill.Instrument)

	switch fill.Decision {
	case strategy.DecisionCloseLong, strategy.DecisionCloseShort:
		positions, err := p.repository.RemoveInstrumentPositions(instrumentID)
		if err != nil {
			return nil, RepositoryInteractionError{Err: err}
		}
		if len(positions) == 0 {
			// Exit fill for an un-open instrument: the execution path
			// must close only what the portfolio opened.
			panic("portfolio: exit fill received for an instrument with no open position")
		}

		for i := range positions {
			position := &positions[i]

			positionExit, err := position.Exit(balance, fill)
			if err != nil {
				return events, err
			}
			events = append(events, NewPositionExitEvent(positionExit))

			// Available adds enter fees back since they are already
			// embedded in the realised profit and loss.
			balance.Available += position.EnterValueGross +
				position.RealisedProfitLoss +
				position.EnterFeesTotal
			balance.Total += position.RealisedProfitLoss

			marketID := market.NewMarketID(fill.Exchange, fill.Instrument)
			statistic, err := p.repository.GetStatistics(marketID)
			if err != nil {
				return events, RepositoryInteractionError{Err: err}
			}
			statistic.UpdateFromPosition(position)

			if err := p.repository.SetStatistics(marketID, statistic); err != nil {
				return events, RepositoryInteractionError{Err: err}
			}
			if err := p.repository.SetExitedPosition(p.engineID, *position); err != nil {
				return events, RepositoryInteractionError{Err: err}
			}

			p.logger.Info().
				Str("instrument_id", string(instrumentID)).
				Float64("realised_profit_loss", position.RealisedProfitLoss).
				Msg("position exited")
		}

	case strategy.DecisionLong, strategy.DecisionShort:
		positions, err := p.repository.GetOpenInstrumentPositions(instrumentID)
		if err != nil {
			return nil, RepositoryInteractionError{Err: err}
		}
		if len(positions) > 0 {
			first := positions[0]
			if (first.Side == market.SideSell && fill.Decision == strategy.DecisionLong) ||
				(first.Side == market.SideBuy && fill.Decision == strategy.DecisionShort) {
				return nil, ErrExistingOppositePosition
			}
		}

		position, err := EnterPosition(p.engineID, fill)
		if err != nil {
			return nil, err
		}
		events = append(events, NewPositionNewEvent(position))

		balance.Available += -position.EnterValueGross - position.EnterFeesTotal

		if err := p.repository.SetOpenPosition(position); err != nil {
			return events, RepositoryInteractionError{Err: err}
		}

		p.logger.Info().
			Str("instrument_id", string(instrumentID)).
			Str("side", string(position.Side)).
			Float64("quantity", position.Quantity).
			Float64("enter_value_gross", position.EnterValueGross).
			Msg("position entered")
	}

	events = append(events, NewBalanceEvent(balance))

	if err := p.repository.SetBalance(p.engineID, balance); err != nil {
		return events, RepositoryInteractionError{Err: err}
	}

	return events, nil
}

// bootstrapRepository persists the initial portfolio state: the
// starting Balance and an initialised statistic for every market.
func (p *Portfolio[S]) bootstrapRepository(startingCash float64, markets []market.Market, statisticInit func() S) error {
	err := p.repository.SetBalance(p.engineID, Balance{
		Time:      p.now(),
		Total:     startingCash,
		Available: startingCash,
	})
	if err != nil {
		return RepositoryInteractionError{Err: err}
	}

	for _, m := range markets {
		if err := p.repository.SetStatistics(m.ID(), statisticInit()); err != nil {
			return RepositoryInteractionError{Err: err}
		}
	}
	return nil
}

// noCashToEnterNewPosition determines if the portfolio has no cash
// available to fund a new Position.
func (p *Portfolio[S]) noCashToEnterNewPosition() (bool, error) {
	balance, err := p.repository.GetBalance(p.engineID)
	if err != nil {
		return false, RepositoryInteractionError{Err: err}
	}
	return balance.Available == 0.0, nil
}

// suggestDecision pairs the Decision derived from a Suggest with the
// SuggestInfo that produced it.
type suggestDecision struct {
	decision strategy.Decision
	info     strategy.SuggestInfo
}

// parseSignalSuggest reconciles an advisory Suggest with the side of
// the first open Position on the instrument, returning the net close
// signal and/or open signal to action:
//
//	suggest  current  close       open
//	Long     none     -           Long
//	Long     buy      -           Long iff re_enter
//	Long     sell     CloseShort  Long unless only_close_opposite
//	Short    none     -           Short
//	Short    sell     -           Short iff re_enter
//	Short    buy      CloseLong   Short unless only_close_opposite
func parseSignalSuggest(positions []Position, suggest strategy.Suggest) (closeSignal, openSignal *suggestDecision) {
	var currentSide market.Side
	if len(positions) > 0 {
		currentSide = positions[0].Side
	}
	info := suggest.Info

	switch suggest.Side {
	case strategy.SuggestLong:
		switch currentSide {
		case market.SideBuy:
			if info.ReEnter {
				openSignal = &suggestDecision{decision: strategy.DecisionLong, info: info}
			}
		case market.SideSell:
			closeSignal = &suggestDecision{decision: strategy.DecisionCloseShort, info: info}
			if !info.OnlyCloseOpposite {
				openSignal = &suggestDecision{decision: strategy.DecisionLong, info: info}
			}
		default:
			openSignal = &suggestDecision{decision: strategy.DecisionLong, info: info}
		}

	case strategy.SuggestShort:
		switch currentSide {
		case market.SideSell:
			if info.ReEnter {
				openSignal = &suggestDecision{decision: strategy.DecisionShort, info: info}
			}
		case market.SideBuy:
			closeSignal = &suggestDecision{decision: strategy.DecisionCloseLong, info: info}
			if !info.OnlyCloseOpposite {
				openSignal = &suggestDecision{decision: strategy.DecisionShort, info: info}
			}
		default:
			openSignal = &suggestDecision{decision: strategy.DecisionShort, info: info}
		}
	}

	return closeSignal, openSignal
}
