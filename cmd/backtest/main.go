// Backtest runner CLI.
// Replays candle data through the signal -> order -> fill pipeline and
// reports the per-market trading summary the portfolio accumulated.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/tradefolio/internal/config"
	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/metrics"
	"github.com/ajitpratap0/tradefolio/internal/portfolio"
	"github.com/ajitpratap0/tradefolio/internal/repository"
	"github.com/ajitpratap0/tradefolio/internal/statistic"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

var (
	configPath = flag.String("config", "", "Path to config file (optional)")
	dataPath   = flag.String("data", "", "Path to CSV candle data (time,open,high,low,close,volume); synthetic series when omitted")
	candles    = flag.Int("candles", 500, "Number of synthetic candles when no data file is given")
	metricsOn  = flag.Bool("metrics", false, "Serve Prometheus metrics on :9090 for the duration of the run")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger := config.NewLogger("backtest")

	if len(cfg.Portfolio.Markets) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one portfolio market must be configured")
		fmt.Fprintln(os.Stderr, "\nExample config.yaml:")
		fmt.Fprintln(os.Stderr, "  portfolio:")
		fmt.Fprintln(os.Stderr, "    markets:")
		fmt.Fprintln(os.Stderr, "      - {exchange: binance, base: btc, quote: usdt}")
		os.Exit(1)
	}
	// The runner replays one market; the portfolio tracks all
	// configured markets regardless.
	first := cfg.Portfolio.Markets[0]
	tradedMarket := market.NewMarket(first.Exchange, market.NewInstrument(first.Base, first.Quote))

	markets := make([]market.Market, 0, len(cfg.Portfolio.Markets))
	for _, m := range cfg.Portfolio.Markets {
		markets = append(markets, market.NewMarket(m.Exchange, market.NewInstrument(m.Base, m.Quote)))
	}

	pf, err := buildPortfolio(cfg, markets)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build portfolio")
	}

	rsi := strategy.NewRSIStrategy(cfg.Strategy.RSI, logger)
	sim := execution.NewSimulatedExecution(execution.SimulatedConfig{
		ExchangeFeeRate: cfg.Execution.ExchangeFeeRate,
		SlippageRate:    cfg.Execution.SlippageRate,
		NetworkFeeRate:  cfg.Execution.NetworkFeeRate,
	}, logger)

	events, err := loadCandleEvents(tradedMarket, *dataPath, *candles)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load candle data")
	}

	group, ctx := errgroup.WithContext(context.Background())

	var server *http.Server
	if *metricsOn {
		server = &http.Server{Addr: ":9090", Handler: promhttp.Handler()}
		group.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		defer func() {
			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}
		}()
		return runBacktest(ctx, pf, rsi, sim, events, logger)
	})

	if err := group.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	report(pf, tradedMarket, logger)
}

// buildPortfolio wires the configured repository backend into an
// initialised portfolio engine.
func buildPortfolio(cfg *config.Config, markets []market.Market) (*portfolio.Portfolio[*statistic.TradingSummary], error) {
	var repo portfolio.Repository[*statistic.TradingSummary]
	switch cfg.Portfolio.Repository {
	case "redis":
		redisRepo := repository.NewRedisRepository[*statistic.TradingSummary](cfg.Redis, config.NewLogger("repository"))
		if err := redisRepo.Ping(); err != nil {
			return nil, err
		}
		repo = redisRepo
	default:
		repo = repository.NewInMemoryRepository[*statistic.TradingSummary]()
	}

	return portfolio.NewBuilder[*statistic.TradingSummary]().
		EngineID(uuid.New()).
		Markets(markets).
		StartingCash(cfg.Portfolio.StartingCash).
		Repository(repo).
		AllocationManager(portfolio.DefaultAllocator{DefaultOrderValue: cfg.Portfolio.DefaultOrderValue}).
		RiskManager(portfolio.DefaultRisk{}).
		StatisticInit(func() *statistic.TradingSummary {
			return statistic.NewTradingSummary(statistic.Config{StartingEquity: cfg.Portfolio.StartingCash})
		}).
		Logger(config.NewLogger("portfolio")).
		BuildAndInit()
}

// runBacktest replays each market event through mark-to-market, signal
// generation, order generation and simulated execution.
func runBacktest(
	ctx context.Context,
	pf *portfolio.Portfolio[*statistic.TradingSummary],
	gen strategy.SignalGenerator,
	sim execution.FillGenerator,
	events []market.MarketEvent,
	logger zerolog.Logger,
) error {
	for i := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		event := &events[i]

		updates, err := pf.UpdateFromMarket(event)
		if err != nil {
			return fmt.Errorf("update from market: %w", err)
		}
		metrics.RecordPositionUpdates(updates)

		signal := gen.GenerateSignal(event)
		if signal == nil {
			continue
		}

		forceExit, order, err := pf.GenerateOrder(signal)
		if err != nil {
			return fmt.Errorf("generate order: %w", err)
		}

		if forceExit != nil {
			exitOrders, err := pf.GenerateExitInstrumentOrder(*forceExit)
			if err != nil {
				return fmt.Errorf("generate exit orders: %w", err)
			}
			for j := range exitOrders {
				if err := executeOrder(pf, sim, &exitOrders[j]); err != nil {
					return err
				}
			}
		}

		if order != nil {
			if err := executeOrder(pf, sim, order); err != nil {
				return err
			}
		}
	}

	logger.Info().Int("events", len(events)).Msg("backtest replay complete")
	return nil
}

// executeOrder fills one order through the simulated execution and
// feeds the fill back into the portfolio.
func executeOrder(
	pf *portfolio.Portfolio[*statistic.TradingSummary],
	sim execution.FillGenerator,
	order *execution.OrderEvent,
) error {
	fill, err := sim.GenerateFill(order)
	if err != nil {
		return fmt.Errorf("generate fill: %w", err)
	}
	events, err := pf.UpdateFromFill(fill)
	if err != nil {
		return fmt.Errorf("update from fill: %w", err)
	}
	metrics.RecordEvents(events)
	return nil
}

// report logs the final per-market trading summary.
func report(pf *portfolio.Portfolio[*statistic.TradingSummary], m market.Market, logger zerolog.Logger) {
	summary, err := pf.GetStatistics(m.ID())
	if err != nil {
		logger.Warn().Err(err).Msg("no statistics recorded")
		return
	}

	logger.Info().
		Str("market", string(m.ID())).
		Int("total_trades", summary.TotalTrades).
		Int("winning_trades", summary.WinningTrades).
		Int("losing_trades", summary.LosingTrades).
		Float64("win_rate", summary.WinRate).
		Float64("net_profit", summary.NetProfit).
		Float64("profit_factor", summary.ProfitFactor).
		Float64("total_fees", summary.TotalFees).
		Msg("backtest summary")
}

// loadCandleEvents reads candle events from a CSV file, or fabricates
// a deterministic synthetic series when no path is given.
func loadCandleEvents(m market.Market, path string, n int) ([]market.MarketEvent, error) {
	if path == "" {
		return syntheticCandleEvents(m, n), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	events := make([]market.MarketEvent, 0, len(records))
	for i, record := range records {
		if len(record) < 6 {
			return nil, fmt.Errorf("row %d: expected 6 columns (time,open,high,low,close,volume), got %d", i, len(record))
		}
		if i == 0 && record[0] == "time" {
			continue // header row
		}

		t, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse time: %w", i, err)
		}
		values := make([]float64, 5)
		for j := 1; j < 6; j++ {
			values[j-1], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: parse float: %w", i, j, err)
			}
		}

		events = append(events, market.MarketEvent{
			Time:       t,
			Exchange:   m.Exchange,
			Instrument: m.Instrument,
			Kind:       market.DataKindCandle,
			Candle: &market.Candle{
				Open:   values[0],
				High:   values[1],
				Low:    values[2],
				Close:  values[3],
				Volume: values[4],
			},
		})
	}
	return events, nil
}

// syntheticCandleEvents fabricates a deterministic oscillating price
// series so the runner produces trades without external data.
func syntheticCandleEvents(m market.Market, n int) []market.MarketEvent {
	events := make([]market.MarketEvent, 0, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := 100.0

	for i := 0; i < n; i++ {
		// Slow sine swing with a faster ripple keeps the RSI cycling
		// through both thresholds.
		price := base +
			15.0*math.Sin(float64(i)/20.0) +
			3.0*math.Sin(float64(i)/3.0)

		events = append(events, market.MarketEvent{
			Time:       start.Add(time.Duration(i) * time.Hour),
			Exchange:   m.Exchange,
			Instrument: m.Instrument,
			Kind:       market.DataKindCandle,
			Candle: &market.Candle{
				Open:   price,
				High:   price * 1.01,
				Low:    price * 0.99,
				Close:  price,
				Volume: 1000.0,
			},
		})
	}
	return events
}
