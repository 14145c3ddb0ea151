package portfolio

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ajitpratap0/tradefolio/internal/market"
)

// Summariser is the opaque per-market statistic capability the
// portfolio updates on every Position exit. The portfolio never
// inspects its fields; backends only need to store and retrieve it.
type Summariser interface {
	// UpdateFromPosition folds one exited Position into the summary.
	UpdateFromPosition(position *Position)
}

// PositionHandler handles the reading and writing of Positions to and
// from the persistence layer.
type PositionHandler interface {
	// SetOpenPosition upserts the open Position, indexed by its
	// (InstrumentID, SignalID) pair. Idempotent.
	SetOpenPosition(position Position) error

	// GetOpenInstrumentPositions returns all open Positions for one
	// instrument, in any order.
	GetOpenInstrumentPositions(instrumentID InstrumentID) ([]Position, error)

	// GetOpenMarketsPositions returns the union of open Positions over
	// the provided markets, each contributing via its derived
	// InstrumentID.
	GetOpenMarketsPositions(engineID uuid.UUID, markets []market.Market) ([]Position, error)

	// GetAllOpenPositions returns every open Position in the store.
	GetAllOpenPositions() ([]Position, error)

	// GetOpenPosition returns the open Position with the exact
	// (InstrumentID, SignalID) pair, or nil if absent.
	GetOpenPosition(instrumentID InstrumentID, signalID uuid.UUID) (*Position, error)

	// RemovePosition removes and returns the Position with the exact
	// (InstrumentID, SignalID) pair. Fails with ErrRepositoryDelete iff
	// the key is unknown.
	RemovePosition(instrumentID InstrumentID, signalID uuid.UUID) (*Position, error)

	// RemoveInstrumentPositions removes and returns all open Positions
	// for the instrument. An empty result is allowed, not an error.
	RemoveInstrumentPositions(instrumentID InstrumentID) ([]Position, error)

	// SetExitedPosition appends the Position to the portfolio's exited
	// position list.
	SetExitedPosition(engineID uuid.UUID, position Position) error

	// GetExitedPositions returns every exited Position associated with
	// the engineID.
	GetExitedPositions(engineID uuid.UUID) ([]Position, error)
}

// BalanceHandler handles the reading and writing of a portfolio's
// Balance to and from the persistence layer.
type BalanceHandler interface {
	// SetBalance upserts the Balance at the engineID.
	SetBalance(engineID uuid.UUID, balance Balance) error
	// GetBalance returns the Balance at the engineID. Fails with
	// ErrExpectedDataNotPresent if a Balance was never set.
	GetBalance(engineID uuid.UUID) (Balance, error)
}

// StatisticHandler handles the reading and writing of a portfolio's
// per-market statistics, keyed by MarketID.
type StatisticHandler[S Summariser] interface {
	SetStatistics(marketID market.MarketID, statistic S) error
	GetStatistics(marketID market.MarketID) (S, error)
}

// Store is the repository surface allocators and risk evaluators may
// consult. They must not mutate it.
type Store interface {
	PositionHandler
	BalanceHandler
}

// Repository is the full persistence contract a portfolio exclusively
// owns: all three capabilities backed by a single store.
type Repository[S Summariser] interface {
	PositionHandler
	BalanceHandler
	StatisticHandler[S]
}

// ExitedPositionsID returns the unique persistence key for a
// portfolio's exited Position list.
func ExitedPositionsID(engineID uuid.UUID) string {
	return fmt.Sprintf("positions_exited_%s", engineID)
}
