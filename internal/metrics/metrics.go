// Package metrics exposes Prometheus instrumentation for portfolio
// state. Gauges and counters are registered on the default registry
// via promauto and updated from the domain events the portfolio emits.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/tradefolio/internal/portfolio"
)

// Portfolio balance metrics
var (
	BalanceTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradefolio_balance_total",
		Help: "Portfolio total equity",
	})

	BalanceAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradefolio_balance_available",
		Help: "Portfolio available cash",
	})
)

// Position lifecycle metrics
var (
	PositionsEntered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradefolio_positions_entered_total",
		Help: "Number of positions entered",
	})

	PositionsExited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradefolio_positions_exited_total",
		Help: "Number of positions exited",
	})

	RealisedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradefolio_realised_pnl",
		Help: "Cumulative realised profit and loss",
	})

	UnrealisedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradefolio_unrealised_pnl",
		Help: "Unrealised profit and loss over open positions",
	})
)

// RecordEvents folds a batch of portfolio events into the gauges and
// counters above.
func RecordEvents(events []portfolio.Event) {
	for _, event := range events {
		switch event.Kind {
		case portfolio.EventKindPositionNew:
			PositionsEntered.Inc()
		case portfolio.EventKindPositionExit:
			PositionsExited.Inc()
			RealisedPnL.Add(event.PositionExit.RealisedProfitLoss)
		case portfolio.EventKindBalance:
			BalanceTotal.Set(event.Balance.Total)
			BalanceAvailable.Set(event.Balance.Available)
		}
	}
}

// RecordPositionUpdates folds mark-to-market diffs into the
// unrealised P&L gauge.
func RecordPositionUpdates(updates []portfolio.PositionUpdate) {
	var unrealised float64
	for _, update := range updates {
		unrealised += update.UnrealisedProfitLoss
	}
	if len(updates) > 0 {
		UnrealisedPnL.Set(unrealised)
	}
}
