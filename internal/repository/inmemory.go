// Package repository provides the persistence backends satisfying the
// portfolio's PositionHandler, BalanceHandler and StatisticHandler
// capabilities: a volatile in-memory store and a Redis-backed
// key-value store with identical semantics.
package repository

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/portfolio"
)

// InMemoryRepository keeps portfolio state in process memory. No fault
// tolerance guarantees, and authoritative for a single process only.
// Not safe for concurrent access: the owning portfolio is
// single-threaded against it.
type InMemoryRepository[S portfolio.Summariser] struct {
	openPositions   map[portfolio.InstrumentID]map[uuid.UUID]portfolio.Position
	closedPositions map[string][]portfolio.Position
	currentBalances map[string]portfolio.Balance
	statistics      map[market.MarketID]S
}

// NewInMemoryRepository constructs an empty InMemoryRepository.
func NewInMemoryRepository[S portfolio.Summariser]() *InMemoryRepository[S] {
	return &InMemoryRepository[S]{
		openPositions:   make(map[portfolio.InstrumentID]map[uuid.UUID]portfolio.Position),
		closedPositions: make(map[string][]portfolio.Position),
		currentBalances: make(map[string]portfolio.Balance),
		statistics:      make(map[market.MarketID]S),
	}
}

// SetOpenPosition implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) SetOpenPosition(position portfolio.Position) error {
	positions, ok := r.openPositions[position.InstrumentID]
	if !ok {
		positions = make(map[uuid.UUID]portfolio.Position)
		r.openPositions[position.InstrumentID] = positions
	}
	positions[position.SignalID] = position
	return nil
}

// GetOpenInstrumentPositions implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) GetOpenInstrumentPositions(instrumentID portfolio.InstrumentID) ([]portfolio.Position, error) {
	positions := make([]portfolio.Position, 0, len(r.openPositions[instrumentID]))
	for _, position := range r.openPositions[instrumentID] {
		positions = append(positions, position)
	}
	return positions, nil
}

// GetOpenMarketsPositions implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) GetOpenMarketsPositions(engineID uuid.UUID, markets []market.Market) ([]portfolio.Position, error) {
	var positions []portfolio.Position
	for _, m := range markets {
		instrumentID := portfolio.DetermineInstrumentID(engineID, m.Exchange, m.Instrument)
		for _, position := range r.openPositions[instrumentID] {
			positions = append(positions, position)
		}
	}
	return positions, nil
}

// GetAllOpenPositions implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) GetAllOpenPositions() ([]portfolio.Position, error) {
	var positions []portfolio.Position
	for _, instrumentPositions := range r.openPositions {
		for _, position := range instrumentPositions {
			positions = append(positions, position)
		}
	}
	return positions, nil
}

// GetOpenPosition implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) GetOpenPosition(instrumentID portfolio.InstrumentID, signalID uuid.UUID) (*portfolio.Position, error) {
	position, ok := r.openPositions[instrumentID][signalID]
	if !ok {
		return nil, nil
	}
	return &position, nil
}

// RemovePosition implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) RemovePosition(instrumentID portfolio.InstrumentID, signalID uuid.UUID) (*portfolio.Position, error) {
	position, ok := r.openPositions[instrumentID][signalID]
	if !ok {
		return nil, fmt.Errorf("%w: no position at (%s, %s)", portfolio.ErrRepositoryDelete, instrumentID, signalID)
	}
	delete(r.openPositions[instrumentID], signalID)
	return &position, nil
}

// RemoveInstrumentPositions implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) RemoveInstrumentPositions(instrumentID portfolio.InstrumentID) ([]portfolio.Position, error) {
	positions, err := r.GetOpenInstrumentPositions(instrumentID)
	if err != nil {
		return nil, err
	}
	delete(r.openPositions, instrumentID)
	return positions, nil
}

// SetExitedPosition implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) SetExitedPosition(engineID uuid.UUID, position portfolio.Position) error {
	key := portfolio.ExitedPositionsID(engineID)
	r.closedPositions[key] = append(r.closedPositions[key], position)
	return nil
}

// GetExitedPositions implements portfolio.PositionHandler.
func (r *InMemoryRepository[S]) GetExitedPositions(engineID uuid.UUID) ([]portfolio.Position, error) {
	positions := r.closedPositions[portfolio.ExitedPositionsID(engineID)]
	out := make([]portfolio.Position, len(positions))
	copy(out, positions)
	return out, nil
}

// SetBalance implements portfolio.BalanceHandler.
func (r *InMemoryRepository[S]) SetBalance(engineID uuid.UUID, balance portfolio.Balance) error {
	r.currentBalances[portfolio.BalanceID(engineID)] = balance
	return nil
}

// GetBalance implements portfolio.BalanceHandler.
func (r *InMemoryRepository[S]) GetBalance(engineID uuid.UUID) (portfolio.Balance, error) {
	balance, ok := r.currentBalances[portfolio.BalanceID(engineID)]
	if !ok {
		return portfolio.Balance{}, fmt.Errorf("%w: no balance for engine %s", portfolio.ErrExpectedDataNotPresent, engineID)
	}
	return balance, nil
}

// SetStatistics implements portfolio.StatisticHandler.
func (r *InMemoryRepository[S]) SetStatistics(marketID market.MarketID, statistic S) error {
	r.statistics[marketID] = statistic
	return nil
}

// GetStatistics implements portfolio.StatisticHandler.
func (r *InMemoryRepository[S]) GetStatistics(marketID market.MarketID) (S, error) {
	statistic, ok := r.statistics[marketID]
	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: no statistics for market %s", portfolio.ErrExpectedDataNotPresent, marketID)
	}
	return statistic, nil
}
