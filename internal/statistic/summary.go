// Package statistic provides the concrete per-market performance
// summary the portfolio maintains. The portfolio treats it as an
// opaque capability: it is initialised at bootstrap and folded forward
// on every position exit.
package statistic

import (
	"math"
	"time"

	"github.com/ajitpratap0/tradefolio/internal/portfolio"
)

// Config configures a TradingSummary.
type Config struct {
	// StartingEquity is copied onto the summary as given; the summary
	// does not track equity from it.
	StartingEquity float64 `mapstructure:"starting_equity" json:"starting_equity"`
}

// TradingSummary aggregates the exited positions of one market into
// trade statistics.
type TradingSummary struct {
	StartingEquity float64 `json:"starting_equity"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	NetProfit    float64 `json:"net_profit"`
	ProfitFactor float64 `json:"profit_factor"`

	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	TotalFees float64 `json:"total_fees"`

	FirstTradeTime time.Time `json:"first_trade_time"`
	LastTradeTime  time.Time `json:"last_trade_time"`
}

// NewTradingSummary initialises an empty TradingSummary from its
// configuration.
func NewTradingSummary(config Config) *TradingSummary {
	return &TradingSummary{StartingEquity: config.StartingEquity}
}

// UpdateFromPosition implements portfolio.Summariser, folding one
// exited Position into the summary.
func (s *TradingSummary) UpdateFromPosition(position *portfolio.Position) {
	pnl := position.RealisedProfitLoss

	s.TotalTrades++
	s.NetProfit += pnl
	s.TotalFees += position.EnterFeesTotal + position.ExitFeesTotal

	if pnl > 0 {
		s.WinningTrades++
		s.GrossProfit += pnl
		if pnl > s.LargestWin {
			s.LargestWin = pnl
		}
	} else {
		s.LosingTrades++
		s.GrossLoss += pnl
		if pnl < s.LargestLoss {
			s.LargestLoss = pnl
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100.0
	if s.GrossLoss != 0 {
		s.ProfitFactor = s.GrossProfit / math.Abs(s.GrossLoss)
	}

	exitTime := position.Meta.UpdateTime
	if s.FirstTradeTime.IsZero() {
		s.FirstTradeTime = position.Meta.EnterTime
	}
	if exitTime.After(s.LastTradeTime) {
		s.LastTradeTime = exitTime
	}
}
