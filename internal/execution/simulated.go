package execution

import (
	"math"

	"github.com/rs/zerolog"
)

// FillGenerator turns an OrderEvent into a FillEvent. The portfolio
// treats whichever implementation is wired in as a black box.
type FillGenerator interface {
	GenerateFill(order *OrderEvent) (*FillEvent, error)
}

// SimulatedConfig configures the fee model of a SimulatedExecution.
// Rates are fractions of the gross fill value, eg/ 0.001 for 0.1%.
type SimulatedConfig struct {
	ExchangeFeeRate float64 `mapstructure:"exchange_fee_rate" json:"exchange_fee_rate"`
	SlippageRate    float64 `mapstructure:"slippage_rate" json:"slippage_rate"`
	NetworkFeeRate  float64 `mapstructure:"network_fee_rate" json:"network_fee_rate"`
}

// SimulatedExecution fills every order immediately at the order's
// market_meta close price. No order book, no partial fills.
type SimulatedExecution struct {
	config SimulatedConfig
	logger zerolog.Logger
}

// NewSimulatedExecution constructs a SimulatedExecution with the
// provided fee model.
func NewSimulatedExecution(config SimulatedConfig, logger zerolog.Logger) *SimulatedExecution {
	return &SimulatedExecution{
		config: config,
		logger: logger.With().Str("component", "execution_sim").Logger(),
	}
}

// GenerateFill implements FillGenerator.
func (e *SimulatedExecution) GenerateFill(order *OrderEvent) (*FillEvent, error) {
	fillValueGross := math.Abs(order.Quantity) * order.MarketMeta.Close

	fill := &FillEvent{
		Time:           order.Time,
		Exchange:       order.Exchange,
		Instrument:     order.Instrument,
		SignalID:       order.SignalID,
		Decision:       order.Decision,
		Quantity:       order.Quantity,
		FillValueGross: fillValueGross,
		Fees: Fees{
			Exchange: fillValueGross * e.config.ExchangeFeeRate,
			Slippage: fillValueGross * e.config.SlippageRate,
			Network:  fillValueGross * e.config.NetworkFeeRate,
		},
	}

	e.logger.Debug().
		Str("decision", string(fill.Decision)).
		Float64("quantity", fill.Quantity).
		Float64("fill_value_gross", fill.FillValueGross).
		Msg("simulated fill generated")

	return fill, nil
}
