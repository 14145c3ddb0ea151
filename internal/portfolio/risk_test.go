package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tradefolio/internal/execution"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

func TestDefaultRiskForwardsAsMarketOrder(t *testing.T) {
	risk := DefaultRisk{}

	order := testOrderEvent(strategy.DecisionLong, 100.0)
	order.OrderType = execution.OrderTypeLimit

	evaluated := risk.EvaluateOrder(nil, order)
	require.NotNil(t, evaluated)
	assert.Equal(t, execution.OrderTypeMarket, evaluated.OrderType)
}
