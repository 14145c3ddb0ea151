package portfolio_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/portfolio"
	"github.com/ajitpratap0/tradefolio/internal/repository"
	"github.com/ajitpratap0/tradefolio/internal/statistic"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

// The full signal -> order -> fill -> exit narrative against the real
// in-memory backend: enter long with 200 starting cash at close 100,
// mark to market at 200, exit at 200 for +94 realised.

var (
	e2eExchange   = market.Exchange("binance")
	e2eInstrument = market.NewInstrument("eth", "usdt")
	e2eMarket     = market.NewMarket("binance", e2eInstrument)
	e2eTime       = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func e2ePortfolio(t *testing.T, engineID uuid.UUID, startingCash float64) (
	*portfolio.Portfolio[*statistic.TradingSummary],
	*repository.InMemoryRepository[*statistic.TradingSummary],
) {
	t.Helper()

	repo := repository.NewInMemoryRepository[*statistic.TradingSummary]()
	pf, err := portfolio.NewBuilder[*statistic.TradingSummary]().
		EngineID(engineID).
		Markets([]market.Market{e2eMarket}).
		StartingCash(startingCash).
		Repository(repo).
		AllocationManager(portfolio.DefaultAllocator{DefaultOrderValue: 1000.0}).
		RiskManager(portfolio.DefaultRisk{}).
		StatisticInit(func() *statistic.TradingSummary {
			return statistic.NewTradingSummary(statistic.Config{StartingEquity: startingCash})
		}).
		Clock(func() time.Time { return e2eTime }).
		BuildAndInit()
	require.NoError(t, err)
	return pf, repo
}

func e2eSignal(suggest strategy.Suggest) *strategy.Signal {
	return &strategy.Signal{
		SignalID:   uuid.New(),
		Time:       e2eTime,
		Exchange:   e2eExchange,
		Instrument: e2eInstrument,
		Suggest:    suggest,
		MarketMeta: market.MarketMeta{Close: 100.0, Time: e2eTime},
	}
}

func e2eFill(decision strategy.Decision, quantity, valueGross float64) *execution.FillEvent {
	return &execution.FillEvent{
		Time:           e2eTime,
		Exchange:       e2eExchange,
		Instrument:     e2eInstrument,
		SignalID:       uuid.New(),
		Decision:       decision,
		Quantity:       quantity,
		FillValueGross: valueGross,
		Fees:           execution.Fees{Exchange: 1.0, Slippage: 1.0, Network: 1.0},
	}
}

func TestEndToEndLongRoundTrip(t *testing.T) {
	engineID := uuid.New()
	pf, _ := e2ePortfolio(t, engineID, 200.0)

	// 1. Enter long: signal yields a 10-unit market order.
	forceExit, order, err := pf.GenerateOrder(e2eSignal(strategy.NewSuggestLong(strategy.NewSuggestInfoStrength(1.0))))
	require.NoError(t, err)
	assert.Nil(t, forceExit)
	require.NotNil(t, order)
	assert.Equal(t, strategy.DecisionLong, order.Decision)
	assert.Equal(t, 10.0, order.Quantity)
	assert.Equal(t, execution.OrderTypeMarket, order.OrderType)

	// 2. Fill long: cash drops by gross value plus fees.
	events, err := pf.UpdateFromFill(e2eFill(strategy.DecisionLong, 1.0, 100.0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, portfolio.EventKindPositionNew, events[0].Kind)
	assert.Equal(t, portfolio.EventKindBalance, events[1].Kind)
	assert.Equal(t, 97.0, events[1].Balance.Available)

	open, err := pf.GetAllOpenPositions()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 100.0, open[0].EnterValueGross)
	assert.Equal(t, 3.0, open[0].EnterFeesTotal)

	// 3. Mark to market at 200: unrealised 94, balance untouched.
	updates, err := pf.UpdateFromMarket(&market.MarketEvent{
		Time:       e2eTime.Add(time.Hour),
		Exchange:   e2eExchange,
		Instrument: e2eInstrument,
		Kind:       market.DataKindCandle,
		Candle:     &market.Candle{Close: 200.0},
	})
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 200.0, updates[0].CurrentValueGross)
	assert.Equal(t, 94.0, updates[0].UnrealisedProfitLoss)

	balance, err := pf.GetBalance(engineID)
	require.NoError(t, err)
	assert.Equal(t, 97.0, balance.Available)
	assert.Equal(t, 200.0, balance.Total)

	// 4. Exit at 200: realised 94, cash 294, equity 294.
	events, err = pf.UpdateFromFill(e2eFill(strategy.DecisionCloseLong, -1.0, 200.0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, portfolio.EventKindPositionExit, events[0].Kind)
	assert.Equal(t, 94.0, events[0].PositionExit.RealisedProfitLoss)
	assert.Equal(t, portfolio.EventKindBalance, events[1].Kind)

	balance, err = pf.GetBalance(engineID)
	require.NoError(t, err)
	assert.Equal(t, 294.0, balance.Available)
	assert.Equal(t, 294.0, balance.Total)

	open, err = pf.GetAllOpenPositions()
	require.NoError(t, err)
	assert.Empty(t, open)

	exited, err := pf.GetExitedPositions(engineID)
	require.NoError(t, err)
	require.Len(t, exited, 1)
	assert.Equal(t, 94.0, exited[0].RealisedProfitLoss)

	summary, err := pf.GetStatistics(e2eMarket.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalTrades)
	assert.Equal(t, 1, summary.WinningTrades)
	assert.Equal(t, 94.0, summary.NetProfit)
}

func TestEndToEndReverseOnOppositeSignal(t *testing.T) {
	engineID := uuid.New()
	pf, _ := e2ePortfolio(t, engineID, 200.0)

	_, err := pf.UpdateFromFill(e2eFill(strategy.DecisionLong, 1.0, 100.0))
	require.NoError(t, err)

	info := strategy.NewSuggestInfoStrength(1.0)
	info.OnlyCloseOpposite = false
	forceExit, order, err := pf.GenerateOrder(e2eSignal(strategy.NewSuggestShort(info)))
	require.NoError(t, err)

	require.NotNil(t, forceExit, "opposite signal forces an exit")
	require.NotNil(t, order, "and proposes the reverse entry")
	assert.Equal(t, strategy.DecisionShort, order.Decision)

	exitOrders, err := pf.GenerateExitInstrumentOrder(*forceExit)
	require.NoError(t, err)
	require.Len(t, exitOrders, 1)
	assert.Equal(t, strategy.DecisionCloseLong, exitOrders[0].Decision)
	assert.Equal(t, -1.0, exitOrders[0].Quantity)
}

func TestEndToEndNoFlipGuard(t *testing.T) {
	engineID := uuid.New()
	pf, _ := e2ePortfolio(t, engineID, 200.0)

	_, err := pf.UpdateFromFill(e2eFill(strategy.DecisionLong, 1.0, 100.0))
	require.NoError(t, err)

	balanceBefore, err := pf.GetBalance(engineID)
	require.NoError(t, err)

	// A short fill arriving without a prior close must be rejected
	// without mutating anything.
	_, err = pf.UpdateFromFill(e2eFill(strategy.DecisionShort, -1.0, 100.0))
	assert.ErrorIs(t, err, portfolio.ErrExistingOppositePosition)

	balanceAfter, err := pf.GetBalance(engineID)
	require.NoError(t, err)
	assert.Equal(t, balanceBefore.Available, balanceAfter.Available)
	assert.Equal(t, balanceBefore.Total, balanceAfter.Total)

	open, err := pf.GetAllOpenPositions()
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestEndToEndCashGate(t *testing.T) {
	engineID := uuid.New()
	pf, _ := e2ePortfolio(t, engineID, 0.0)

	forceExit, order, err := pf.GenerateOrder(e2eSignal(strategy.NewSuggestLong(strategy.NewSuggestInfoStrength(1.0))))
	require.NoError(t, err)
	assert.Nil(t, forceExit)
	assert.Nil(t, order)
}

func TestEndToEndShortRoundTrip(t *testing.T) {
	engineID := uuid.New()
	pf, _ := e2ePortfolio(t, engineID, 200.0)

	_, err := pf.UpdateFromFill(e2eFill(strategy.DecisionShort, -1.0, 100.0))
	require.NoError(t, err)

	// Price falls to 50: short gains.
	events, err := pf.UpdateFromFill(e2eFill(strategy.DecisionCloseShort, 1.0, 50.0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 100.0-50.0-6.0, events[0].PositionExit.RealisedProfitLoss)

	balance, err := pf.GetBalance(engineID)
	require.NoError(t, err)
	assert.Equal(t, 200.0+44.0, balance.Total)
	assert.Equal(t, 97.0+100.0+44.0+3.0, balance.Available)
}
