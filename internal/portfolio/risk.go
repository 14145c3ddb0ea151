package portfolio

import (
	"github.com/ajitpratap0/tradefolio/internal/execution"
)

// OrderEvaluator evaluates the risk associated with an OrderEvent.
// Returning nil drops the order; implementations may amend the order
// (eg/ its OrderType) before forwarding it. The store is read-only.
type OrderEvaluator interface {
	EvaluateOrder(store Store, order *execution.OrderEvent) *execution.OrderEvent
}

// DefaultRisk forwards every order as a market order.
type DefaultRisk struct{}

// EvaluateOrder implements OrderEvaluator.
func (r DefaultRisk) EvaluateOrder(_ Store, order *execution.OrderEvent) *execution.OrderEvent {
	if r.riskTooHigh(order) {
		return nil
	}
	order.OrderType = execution.DefaultOrderType()
	return order
}

func (r DefaultRisk) riskTooHigh(_ *execution.OrderEvent) bool {
	return false
}
