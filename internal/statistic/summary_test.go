package statistic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/tradefolio/internal/portfolio"
)

func exitedPosition(pnl float64, enterFees, exitFees float64) *portfolio.Position {
	return &portfolio.Position{
		RealisedProfitLoss: pnl,
		EnterFeesTotal:     enterFees,
		ExitFeesTotal:      exitFees,
		Meta: portfolio.PositionMeta{
			EnterTime:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			UpdateTime: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		},
	}
}

func TestTradingSummaryUpdateFromPosition(t *testing.T) {
	summary := NewTradingSummary(Config{StartingEquity: 1000.0})

	summary.UpdateFromPosition(exitedPosition(94.0, 3.0, 3.0))
	summary.UpdateFromPosition(exitedPosition(-56.0, 3.0, 3.0))
	summary.UpdateFromPosition(exitedPosition(10.0, 1.0, 1.0))

	assert.Equal(t, 3, summary.TotalTrades)
	assert.Equal(t, 2, summary.WinningTrades)
	assert.Equal(t, 1, summary.LosingTrades)
	assert.InDelta(t, 2.0/3.0*100.0, summary.WinRate, 1e-9)

	assert.Equal(t, 104.0, summary.GrossProfit)
	assert.Equal(t, -56.0, summary.GrossLoss)
	assert.Equal(t, 48.0, summary.NetProfit)
	assert.InDelta(t, 104.0/56.0, summary.ProfitFactor, 1e-9)

	assert.Equal(t, 94.0, summary.LargestWin)
	assert.Equal(t, -56.0, summary.LargestLoss)
	assert.Equal(t, 14.0, summary.TotalFees)

	assert.False(t, summary.FirstTradeTime.IsZero())
	assert.False(t, summary.LastTradeTime.IsZero())
}

func TestTradingSummaryBreakEvenCountsAsLoss(t *testing.T) {
	summary := NewTradingSummary(Config{})

	summary.UpdateFromPosition(exitedPosition(0.0, 1.0, 1.0))

	assert.Equal(t, 1, summary.TotalTrades)
	assert.Equal(t, 0, summary.WinningTrades)
	assert.Equal(t, 1, summary.LosingTrades)
}
