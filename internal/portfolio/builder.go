package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/tradefolio/internal/market"
)

// PortfolioBuilder incrementally assembles a Portfolio and persists its
// initial state on BuildAndInit.
type PortfolioBuilder[S Summariser] struct {
	engineID          *uuid.UUID
	markets           []market.Market
	startingCash      *float64
	repository        Repository[S]
	allocationManager OrderAllocator
	riskManager       OrderEvaluator
	statisticInit     func() S
	logger            *zerolog.Logger
	now               func() time.Time
}

// NewBuilder returns an empty PortfolioBuilder.
func NewBuilder[S Summariser]() *PortfolioBuilder[S] {
	return &PortfolioBuilder[S]{}
}

// EngineID sets the engine identifier the Portfolio is associated with.
func (b *PortfolioBuilder[S]) EngineID(engineID uuid.UUID) *PortfolioBuilder[S] {
	b.engineID = &engineID
	return b
}

// Markets sets the markets whose statistics the Portfolio tracks.
func (b *PortfolioBuilder[S]) Markets(markets []market.Market) *PortfolioBuilder[S] {
	b.markets = markets
	return b
}

// StartingCash sets the cash balance the Portfolio starts with.
func (b *PortfolioBuilder[S]) StartingCash(startingCash float64) *PortfolioBuilder[S] {
	b.startingCash = &startingCash
	return b
}

// Repository sets the persistence backend the Portfolio exclusively
// owns for its lifetime.
func (b *PortfolioBuilder[S]) Repository(repository Repository[S]) *PortfolioBuilder[S] {
	b.repository = repository
	return b
}

// AllocationManager sets the OrderAllocator.
func (b *PortfolioBuilder[S]) AllocationManager(allocator OrderAllocator) *PortfolioBuilder[S] {
	b.allocationManager = allocator
	return b
}

// RiskManager sets the OrderEvaluator.
func (b *PortfolioBuilder[S]) RiskManager(risk OrderEvaluator) *PortfolioBuilder[S] {
	b.riskManager = risk
	return b
}

// StatisticInit sets the factory used to initialise the statistic for
// every tracked market during bootstrap.
func (b *PortfolioBuilder[S]) StatisticInit(init func() S) *PortfolioBuilder[S] {
	b.statisticInit = init
	return b
}

// Logger sets the component logger. Optional; defaults to a disabled
// logger.
func (b *PortfolioBuilder[S]) Logger(logger zerolog.Logger) *PortfolioBuilder[S] {
	b.logger = &logger
	return b
}

// Clock injects the time source used to stamp orders, balances and
// exit signals. Optional; defaults to time.Now in UTC. Inject a fixed
// clock for reproducible runs.
func (b *PortfolioBuilder[S]) Clock(now func() time.Time) *PortfolioBuilder[S] {
	b.now = now
	return b
}

// BuildAndInit validates the assembled attributes, constructs the
// Portfolio and persists its initial state (starting Balance plus an
// initialised statistic per market) in the repository.
func (b *PortfolioBuilder[S]) BuildAndInit() (*Portfolio[S], error) {
	portfolio, err := b.build()
	if err != nil {
		return nil, err
	}

	if b.startingCash == nil {
		return nil, BuilderIncompleteError{Field: "starting_cash"}
	}
	if b.markets == nil {
		return nil, BuilderIncompleteError{Field: "markets"}
	}
	if b.statisticInit == nil {
		return nil, BuilderIncompleteError{Field: "statistic_init"}
	}

	if err := portfolio.bootstrapRepository(*b.startingCash, b.markets, b.statisticInit); err != nil {
		return nil, err
	}

	return portfolio, nil
}

func (b *PortfolioBuilder[S]) build() (*Portfolio[S], error) {
	if b.engineID == nil {
		return nil, BuilderIncompleteError{Field: "engine_id"}
	}
	if b.repository == nil {
		return nil, BuilderIncompleteError{Field: "repository"}
	}
	if b.allocationManager == nil {
		return nil, BuilderIncompleteError{Field: "allocation_manager"}
	}
	if b.riskManager == nil {
		return nil, BuilderIncompleteError{Field: "risk_manager"}
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	now := b.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Portfolio[S]{
		engineID:          *b.engineID,
		repository:        b.repository,
		allocationManager: b.allocationManager,
		riskManager:       b.riskManager,
		logger:            logger,
		now:               now,
	}, nil
}
