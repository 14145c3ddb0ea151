package strategy

import (
	"time"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/tradefolio/internal/market"
)

// RSIConfig configures an RSIStrategy.
type RSIConfig struct {
	// Period of the relative strength index, eg/ 14.
	Period int `mapstructure:"period" json:"period"`
	// OversoldThreshold below which a short suggestion is emitted.
	OversoldThreshold float64 `mapstructure:"oversold_threshold" json:"oversold_threshold"`
	// OverboughtThreshold above which a long suggestion is emitted.
	OverboughtThreshold float64 `mapstructure:"overbought_threshold" json:"overbought_threshold"`
}

// DefaultRSIConfig returns the thresholds the example strategy ships
// with: momentum-following entries at RSI 40/60.
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{
		Period:              14,
		OversoldThreshold:   40.0,
		OverboughtThreshold: 60.0,
	}
}

// RSIStrategy is an example SignalGenerator driven by the relative
// strength index of candle closes: short below the oversold threshold,
// long above the overbought threshold.
type RSIStrategy struct {
	config RSIConfig
	closes []float64
	logger zerolog.Logger
}

// NewRSIStrategy constructs an RSIStrategy using the provided
// configuration.
func NewRSIStrategy(config RSIConfig, logger zerolog.Logger) *RSIStrategy {
	if config.Period < 1 {
		config.Period = DefaultRSIConfig().Period
	}

	return &RSIStrategy{
		config: config,
		logger: logger.With().Str("strategy", "rsi").Logger(),
	}
}

// GenerateSignal implements SignalGenerator. Only candle events are
// considered; trades and other variants yield no signal.
func (s *RSIStrategy) GenerateSignal(event *market.MarketEvent) *Signal {
	if event.Kind != market.DataKindCandle || event.Candle == nil {
		return nil
	}
	close := event.Candle.Close

	s.closes = append(s.closes, close)
	rsi, ok := s.latestRSI()
	if !ok {
		return nil
	}

	suggest, ok := s.suggestFor(rsi)
	if !ok {
		return nil
	}

	s.logger.Debug().
		Float64("rsi", rsi).
		Float64("close", close).
		Str("side", string(suggest.Side)).
		Msg("RSI signal generated")

	return &Signal{
		SignalID:   uuid.New(),
		Time:       time.Now().UTC(),
		Exchange:   event.Exchange,
		Instrument: event.Instrument,
		Suggest:    suggest,
		MarketMeta: market.MarketMeta{
			Close: close,
			Time:  event.Time,
		},
	}
}

// latestRSI computes the current RSI over the observed closes.
// cinar/indicator computes over channels, so the close series is
// streamed through and the final value collected. Returns false until
// the indicator has a full period of data.
func (s *RSIStrategy) latestRSI() (float64, bool) {
	if len(s.closes) <= s.config.Period {
		return 0, false
	}

	closings := make(chan float64, len(s.closes))
	for _, c := range s.closes {
		closings <- c
	}
	close(closings)

	rsiIndicator := momentum.NewRsiWithPeriod[float64](s.config.Period)

	var latest float64
	var seen bool
	for value := range rsiIndicator.Compute(closings) {
		latest = value
		seen = true
	}
	return latest, seen
}

// suggestFor maps the latest RSI value onto an advisory Suggest, or
// returns false when the index is between the thresholds.
func (s *RSIStrategy) suggestFor(rsi float64) (Suggest, bool) {
	switch {
	case rsi < s.config.OversoldThreshold:
		return NewSuggest(DecisionShort, NewSuggestInfoStrength(s.signalStrength())), true
	case rsi > s.config.OverboughtThreshold:
		return NewSuggest(DecisionLong, NewSuggestInfoStrength(s.signalStrength())), true
	default:
		return Suggest{}, false
	}
}

func (s *RSIStrategy) signalStrength() float64 {
	return 1.0
}
