package portfolio

import (
	"math"

	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

// OrderAllocator sizes an OrderEvent in place, given the suggestion
// that produced it and the open Positions on its instrument. The store
// is provided for custom allocators that consult balance or position
// state; implementations must not mutate it.
type OrderAllocator interface {
	AllocateOrder(store Store, order *execution.OrderEvent, instrumentPositions []Position, suggestInfo strategy.SuggestInfo)
}

// DefaultAllocator sizes entries as DefaultOrderValue worth of units at
// the order's close price, scaled by suggestion strength, and sizes
// exits to fully flatten the open instrument positions.
type DefaultAllocator struct {
	DefaultOrderValue float64
}

// AllocateOrder implements OrderAllocator.
func (a DefaultAllocator) AllocateOrder(_ Store, order *execution.OrderEvent, instrumentPositions []Position, suggestInfo strategy.SuggestInfo) {
	// Truncate the order size to 4 fractional digits so venue lot-size
	// rounding downstream cannot accumulate precision creep.
	orderSize := a.DefaultOrderValue / order.MarketMeta.Close
	orderSize = math.Floor(orderSize*10000.0) / 10000.0

	switch order.Decision {
	case strategy.DecisionLong:
		order.Quantity = orderSize * suggestInfo.Strength

	case strategy.DecisionShort:
		order.Quantity = -orderSize * suggestInfo.Strength

	default:
		// Exit decisions flatten: the negated sum of the signed open
		// quantities, ignoring suggestion strength.
		var open float64
		for _, position := range instrumentPositions {
			open += position.Quantity
		}
		order.Quantity = 0.0 - open
	}
}
