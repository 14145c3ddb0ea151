package portfolio

import (
	"github.com/google/uuid"

	"github.com/ajitpratap0/tradefolio/internal/market"
)

// The Portfolio re-exposes its repository capabilities so callers can
// inspect positions, balance and statistics without touching the
// underlying store. Engine-scoped calls always use the Portfolio's own
// engine id: the caller-supplied one is ignored to keep the 1-to-1
// engine association authoritative.

// SetOpenPosition implements PositionHandler.
func (p *Portfolio[S]) SetOpenPosition(position Position) error {
	return p.repository.SetOpenPosition(position)
}

// GetOpenInstrumentPositions implements PositionHandler.
func (p *Portfolio[S]) GetOpenInstrumentPositions(instrumentID InstrumentID) ([]Position, error) {
	return p.repository.GetOpenInstrumentPositions(instrumentID)
}

// GetOpenMarketsPositions implements PositionHandler.
func (p *Portfolio[S]) GetOpenMarketsPositions(_ uuid.UUID, markets []market.Market) ([]Position, error) {
	return p.repository.GetOpenMarketsPositions(p.engineID, markets)
}

// GetAllOpenPositions implements PositionHandler.
func (p *Portfolio[S]) GetAllOpenPositions() ([]Position, error) {
	return p.repository.GetAllOpenPositions()
}

// GetOpenPosition implements PositionHandler.
func (p *Portfolio[S]) GetOpenPosition(instrumentID InstrumentID, signalID uuid.UUID) (*Position, error) {
	return p.repository.GetOpenPosition(instrumentID, signalID)
}

// RemovePosition implements PositionHandler.
func (p *Portfolio[S]) RemovePosition(instrumentID InstrumentID, signalID uuid.UUID) (*Position, error) {
	return p.repository.RemovePosition(instrumentID, signalID)
}

// RemoveInstrumentPositions implements PositionHandler.
func (p *Portfolio[S]) RemoveInstrumentPositions(instrumentID InstrumentID) ([]Position, error) {
	return p.repository.RemoveInstrumentPositions(instrumentID)
}

// SetExitedPosition implements PositionHandler.
func (p *Portfolio[S]) SetExitedPosition(_ uuid.UUID, position Position) error {
	return p.repository.SetExitedPosition(p.engineID, position)
}

// GetExitedPositions implements PositionHandler.
func (p *Portfolio[S]) GetExitedPositions(_ uuid.UUID) ([]Position, error) {
	return p.repository.GetExitedPositions(p.engineID)
}

// SetBalance implements BalanceHandler.
func (p *Portfolio[S]) SetBalance(_ uuid.UUID, balance Balance) error {
	return p.repository.SetBalance(p.engineID, balance)
}

// GetBalance implements BalanceHandler.
func (p *Portfolio[S]) GetBalance(_ uuid.UUID) (Balance, error) {
	return p.repository.GetBalance(p.engineID)
}

// SetStatistics implements StatisticHandler.
func (p *Portfolio[S]) SetStatistics(marketID market.MarketID, statistic S) error {
	return p.repository.SetStatistics(marketID, statistic)
}

// GetStatistics implements StatisticHandler.
func (p *Portfolio[S]) GetStatistics(marketID market.MarketID) (S, error) {
	return p.repository.GetStatistics(marketID)
}
