// Package execution defines the order/fill wire pair exchanged between
// the portfolio and whichever execution handler is plugged in, plus a
// simulated handler for backtesting.
package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

// OrderType of an OrderEvent.
type OrderType string

const (
	OrderTypeMarket OrderType = "Market"
	OrderTypeLimit  OrderType = "Limit"
)

// DefaultOrderType returns the order type new orders carry before risk
// evaluation.
func DefaultOrderType() OrderType {
	return OrderTypeMarket
}

// ErrParseOrderKind reports an unrecognised OrderType string.
var ErrParseOrderKind = errors.New("parse order kind")

// ParseOrderType parses the string form of an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case OrderTypeMarket:
		return OrderTypeMarket, nil
	case OrderTypeLimit:
		return OrderTypeLimit, nil
	default:
		return "", fmt.Errorf("%w: unknown order type %q", ErrParseOrderKind, s)
	}
}

// OrderEvent is a sized, risk-checked intention to trade, produced by
// the portfolio and consumed by an execution handler.
type OrderEvent struct {
	SignalID   uuid.UUID         `json:"signal_id"`
	Time       time.Time         `json:"time"`
	Exchange   market.Exchange   `json:"exchange"`
	Instrument market.Instrument `json:"instrument"`
	// Metadata propagated from the Signal that yielded this order.
	MarketMeta market.MarketMeta `json:"market_meta"`
	Decision   strategy.Decision `json:"decision"`
	// Quantity is signed: positive buys, negative sells.
	Quantity  float64   `json:"quantity"`
	OrderType OrderType `json:"order_type"`
}

// Fees incurred executing a trade.
type Fees struct {
	// Exchange fees (eg/ maker or taker fee).
	Exchange float64 `json:"exchange"`
	// Slippage incurred crossing the spread.
	Slippage float64 `json:"slippage"`
	// Network fees (eg/ gas).
	Network float64 `json:"network"`
}

// Total sums all fee components.
func (f Fees) Total() float64 {
	return f.Exchange + f.Slippage + f.Network
}

// FillEvent confirms an executed trade with its realised fees.
type FillEvent struct {
	Time       time.Time         `json:"time"`
	Exchange   market.Exchange   `json:"exchange"`
	Instrument market.Instrument `json:"instrument"`
	SignalID   uuid.UUID         `json:"signal_id"`
	Decision   strategy.Decision `json:"decision"`
	// Quantity is signed: positive for buys, negative for sells.
	Quantity float64 `json:"quantity"`
	// FillValueGross = abs(Quantity) * fill price.
	FillValueGross float64 `json:"fill_value_gross"`
	Fees           Fees    `json:"fees"`
}
