package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/portfolio"
	"github.com/ajitpratap0/tradefolio/internal/statistic"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

func testEnterFill(exchange string, base string, signalID uuid.UUID, quantity, value float64) *execution.FillEvent {
	return &execution.FillEvent{
		Time:           time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Exchange:       market.Exchange(exchange),
		Instrument:     market.NewInstrument(base, "usdt"),
		SignalID:       signalID,
		Decision:       strategy.DecisionLong,
		Quantity:       quantity,
		FillValueGross: value,
		Fees:           execution.Fees{Exchange: 1.0, Slippage: 1.0, Network: 1.0},
	}
}

// testPositions returns two btc positions and one eth position for the
// given engine.
func testPositions(t *testing.T, engineID uuid.UUID) (btc1, btc2, eth1 portfolio.Position) {
	t.Helper()

	var err error
	btc1, err = portfolio.EnterPosition(engineID, testEnterFill("binance", "btc", uuid.New(), 1.0, 100.0))
	require.NoError(t, err)
	btc2, err = portfolio.EnterPosition(engineID, testEnterFill("binance", "btc", uuid.New(), 2.0, 150.0))
	require.NoError(t, err)
	eth1, err = portfolio.EnterPosition(engineID, testEnterFill("binance", "eth", uuid.New(), 1.0, 10.0))
	require.NoError(t, err)
	return btc1, btc2, eth1
}

func newInMemory() *InMemoryRepository[*statistic.TradingSummary] {
	return NewInMemoryRepository[*statistic.TradingSummary]()
}

func TestInMemorySetAndGetOpenPositions(t *testing.T) {
	engineID := uuid.New()
	repo := newInMemory()
	btc1, btc2, eth1 := testPositions(t, engineID)

	require.NoError(t, repo.SetOpenPosition(btc1))
	require.NoError(t, repo.SetOpenPosition(btc2))
	require.NoError(t, repo.SetOpenPosition(eth1))

	btcPositions, err := repo.GetOpenInstrumentPositions(btc1.InstrumentID)
	require.NoError(t, err)
	assert.Len(t, btcPositions, 2)

	markets := []market.Market{
		market.NewMarket("binance", market.NewInstrument("btc", "usdt")),
		market.NewMarket("binance", market.NewInstrument("eth", "usdt")),
	}
	marketPositions, err := repo.GetOpenMarketsPositions(engineID, markets)
	require.NoError(t, err)
	assert.Len(t, marketPositions, 3)

	all, err := repo.GetAllOpenPositions()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	position, err := repo.GetOpenPosition(btc2.InstrumentID, btc2.SignalID)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, btc2.SignalID, position.SignalID)
}

func TestInMemorySetOpenPositionIsIdempotent(t *testing.T) {
	engineID := uuid.New()
	repo := newInMemory()
	btc1, _, _ := testPositions(t, engineID)

	require.NoError(t, repo.SetOpenPosition(btc1))
	btc1.CurrentSymbolPrice = 123.0
	require.NoError(t, repo.SetOpenPosition(btc1))

	positions, err := repo.GetOpenInstrumentPositions(btc1.InstrumentID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 123.0, positions[0].CurrentSymbolPrice)
}

func TestInMemoryGetOpenPositionMissing(t *testing.T) {
	repo := newInMemory()

	position, err := repo.GetOpenPosition(portfolio.InstrumentID("instrument_unknown"), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestInMemoryRemovePosition(t *testing.T) {
	engineID := uuid.New()
	repo := newInMemory()
	btc1, btc2, _ := testPositions(t, engineID)

	require.NoError(t, repo.SetOpenPosition(btc1))
	require.NoError(t, repo.SetOpenPosition(btc2))

	removed, err := repo.RemovePosition(btc2.InstrumentID, btc2.SignalID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, btc2.SignalID, removed.SignalID)

	remaining, err := repo.GetOpenInstrumentPositions(btc1.InstrumentID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestInMemoryRemovePositionUnknownKey(t *testing.T) {
	repo := newInMemory()

	_, err := repo.RemovePosition(portfolio.InstrumentID("instrument_unknown"), uuid.New())
	assert.ErrorIs(t, err, portfolio.ErrRepositoryDelete)
}

func TestInMemoryRemoveInstrumentPositions(t *testing.T) {
	engineID := uuid.New()
	repo := newInMemory()
	btc1, btc2, eth1 := testPositions(t, engineID)

	require.NoError(t, repo.SetOpenPosition(btc1))
	require.NoError(t, repo.SetOpenPosition(btc2))
	require.NoError(t, repo.SetOpenPosition(eth1))

	removed, err := repo.RemoveInstrumentPositions(btc1.InstrumentID)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	remaining, err := repo.GetAllOpenPositions()
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	// Removing an instrument with nothing open is not an error.
	empty, err := repo.RemoveInstrumentPositions(btc1.InstrumentID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryExitedPositions(t *testing.T) {
	engineID := uuid.New()
	repo := newInMemory()
	btc1, btc2, _ := testPositions(t, engineID)

	exited, err := repo.GetExitedPositions(engineID)
	require.NoError(t, err)
	assert.Empty(t, exited)

	require.NoError(t, repo.SetExitedPosition(engineID, btc1))
	require.NoError(t, repo.SetExitedPosition(engineID, btc2))

	exited, err = repo.GetExitedPositions(engineID)
	require.NoError(t, err)
	assert.Len(t, exited, 2)

	// Exited positions of another engine are invisible.
	other, err := repo.GetExitedPositions(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestInMemoryBalance(t *testing.T) {
	engineID := uuid.New()
	repo := newInMemory()

	_, err := repo.GetBalance(engineID)
	assert.ErrorIs(t, err, portfolio.ErrExpectedDataNotPresent)

	balance := portfolio.Balance{
		Time:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Total:     1000.0,
		Available: 900.0,
	}
	require.NoError(t, repo.SetBalance(engineID, balance))

	got, err := repo.GetBalance(engineID)
	require.NoError(t, err)
	assert.Equal(t, balance, got)
}

func TestInMemoryStatistics(t *testing.T) {
	repo := newInMemory()
	marketID := market.NewMarketID("binance", market.NewInstrument("btc", "usdt"))

	_, err := repo.GetStatistics(marketID)
	assert.ErrorIs(t, err, portfolio.ErrExpectedDataNotPresent)

	summary := statistic.NewTradingSummary(statistic.Config{StartingEquity: 1000.0})
	require.NoError(t, repo.SetStatistics(marketID, summary))

	got, err := repo.GetStatistics(marketID)
	require.NoError(t, err)
	assert.Equal(t, summary, got)
}
