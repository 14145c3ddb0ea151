package execution

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

func TestFeesTotal(t *testing.T) {
	fees := Fees{Exchange: 1.0, Slippage: 0.5, Network: 0.25}
	assert.Equal(t, 1.75, fees.Total())
}

func TestParseOrderType(t *testing.T) {
	parsed, err := ParseOrderType("Market")
	require.NoError(t, err)
	assert.Equal(t, OrderTypeMarket, parsed)

	parsed, err = ParseOrderType("Limit")
	require.NoError(t, err)
	assert.Equal(t, OrderTypeLimit, parsed)

	_, err = ParseOrderType("Iceberg")
	assert.ErrorIs(t, err, ErrParseOrderKind)
}

func TestSimulatedExecutionGenerateFill(t *testing.T) {
	sim := NewSimulatedExecution(SimulatedConfig{
		ExchangeFeeRate: 0.001,
		SlippageRate:    0.0005,
		NetworkFeeRate:  0.0,
	}, zerolog.Nop())

	order := &OrderEvent{
		SignalID:   uuid.New(),
		Time:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Exchange:   market.Exchange("binance"),
		Instrument: market.NewInstrument("btc", "usdt"),
		MarketMeta: market.MarketMeta{Close: 100.0},
		Decision:   strategy.DecisionLong,
		Quantity:   10.0,
		OrderType:  OrderTypeMarket,
	}

	fill, err := sim.GenerateFill(order)
	require.NoError(t, err)

	assert.Equal(t, order.SignalID, fill.SignalID)
	assert.Equal(t, order.Decision, fill.Decision)
	assert.Equal(t, 10.0, fill.Quantity)
	assert.Equal(t, 1000.0, fill.FillValueGross)
	assert.Equal(t, 1.0, fill.Fees.Exchange)
	assert.Equal(t, 0.5, fill.Fees.Slippage)
	assert.Zero(t, fill.Fees.Network)
}

func TestSimulatedExecutionShortFill(t *testing.T) {
	sim := NewSimulatedExecution(SimulatedConfig{}, zerolog.Nop())

	order := &OrderEvent{
		MarketMeta: market.MarketMeta{Close: 50.0},
		Decision:   strategy.DecisionShort,
		Quantity:   -2.0,
	}

	fill, err := sim.GenerateFill(order)
	require.NoError(t, err)

	assert.Equal(t, -2.0, fill.Quantity)
	assert.Equal(t, 100.0, fill.FillValueGross, "gross value uses absolute quantity")
}
