package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/tradefolio/internal/market"
	"github.com/ajitpratap0/tradefolio/internal/portfolio"
)

// RedisConfig configures a RedisRepository connection.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// OpTimeout bounds each repository operation. Expiry surfaces as a
	// read or write error; the portfolio does not retry.
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

// Addr returns the host:port address of the configured Redis server.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

const defaultOpTimeout = 2 * time.Second

// RedisRepository persists portfolio state in Redis as JSON values.
// Cross-process but lossy on crash; durability is whatever the Redis
// deployment provides. Key layout:
//
//	<instrument_id>_<signal_id>       open position
//	positions_exited_<engine_id>      list of exited positions
//	balance_<engine_id>               balance
//	<market_id>                       per-market statistic
//
// Open-position enumeration relies on every instrument id embedding
// the "instrument_" prefix.
type RedisRepository[S portfolio.Summariser] struct {
	client    *redis.Client
	opTimeout time.Duration
	logger    zerolog.Logger
}

// NewRedisRepository constructs a RedisRepository from its
// configuration, dialing a dedicated client. The connection pool is
// internal to the backend; pool exhaustion surfaces as a read error.
func NewRedisRepository[S portfolio.Summariser](config RedisConfig, logger zerolog.Logger) *RedisRepository[S] {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr(),
		Password: config.Password,
		DB:       config.DB,
	})
	return NewRedisRepositoryWithClient[S](client, config.OpTimeout, logger)
}

// NewRedisRepositoryWithClient constructs a RedisRepository around an
// existing client.
func NewRedisRepositoryWithClient[S portfolio.Summariser](client *redis.Client, opTimeout time.Duration, logger zerolog.Logger) *RedisRepository[S] {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &RedisRepository[S]{
		client:    client,
		opTimeout: opTimeout,
		logger:    logger.With().Str("component", "redis_repository").Logger(),
	}
}

// Ping checks the backend connection.
func (r *RedisRepository[S]) Ping() error {
	ctx, cancel := r.opContext()
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", portfolio.ErrRepositoryRead, err)
	}
	return nil
}

func (r *RedisRepository[S]) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}

func positionKey(instrumentID portfolio.InstrumentID, signalID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", instrumentID, signalID)
}

// SetOpenPosition implements portfolio.PositionHandler.
func (r *RedisRepository[S]) SetOpenPosition(position portfolio.Position) error {
	data, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("%w: marshal position: %v", portfolio.ErrSerialization, err)
	}

	ctx, cancel := r.opContext()
	defer cancel()

	key := positionKey(position.InstrumentID, position.SignalID)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", portfolio.ErrRepositoryWrite, key, err)
	}
	return nil
}

// getPositionsByPattern fetches and decodes every position stored at a
// key matching the glob pattern.
func (r *RedisRepository[S]) getPositionsByPattern(pattern string) ([]portfolio.Position, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: keys %s: %v", portfolio.ErrRepositoryRead, pattern, err)
	}

	positions := make([]portfolio.Position, 0, len(keys))
	for _, key := range keys {
		value, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: get %s: %v", portfolio.ErrRepositoryRead, key, err)
		}
		var position portfolio.Position
		if err := json.Unmarshal([]byte(value), &position); err != nil {
			return nil, fmt.Errorf("%w: unmarshal position at %s: %v", portfolio.ErrSerialization, key, err)
		}
		positions = append(positions, position)
	}
	return positions, nil
}

// GetOpenInstrumentPositions implements portfolio.PositionHandler.
func (r *RedisRepository[S]) GetOpenInstrumentPositions(instrumentID portfolio.InstrumentID) ([]portfolio.Position, error) {
	return r.getPositionsByPattern(string(instrumentID) + "_*")
}

// GetOpenMarketsPositions implements portfolio.PositionHandler.
func (r *RedisRepository[S]) GetOpenMarketsPositions(engineID uuid.UUID, markets []market.Market) ([]portfolio.Position, error) {
	var positions []portfolio.Position
	for _, m := range markets {
		instrumentPositions, err := r.GetOpenInstrumentPositions(
			portfolio.DetermineInstrumentID(engineID, m.Exchange, m.Instrument),
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, instrumentPositions...)
	}
	return positions, nil
}

// GetAllOpenPositions implements portfolio.PositionHandler. Every
// instrument id embeds the "instrument_" prefix, so one scan covers
// the whole portfolio.
func (r *RedisRepository[S]) GetAllOpenPositions() ([]portfolio.Position, error) {
	return r.getPositionsByPattern("instrument_*")
}

// GetOpenPosition implements portfolio.PositionHandler.
func (r *RedisRepository[S]) GetOpenPosition(instrumentID portfolio.InstrumentID, signalID uuid.UUID) (*portfolio.Position, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	key := positionKey(instrumentID, signalID)
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get %s: %v", portfolio.ErrRepositoryRead, key, err)
	}

	var position portfolio.Position
	if err := json.Unmarshal([]byte(value), &position); err != nil {
		return nil, fmt.Errorf("%w: unmarshal position at %s: %v", portfolio.ErrSerialization, key, err)
	}
	return &position, nil
}

// RemovePosition implements portfolio.PositionHandler.
func (r *RedisRepository[S]) RemovePosition(instrumentID portfolio.InstrumentID, signalID uuid.UUID) (*portfolio.Position, error) {
	position, err := r.GetOpenPosition(instrumentID, signalID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: no position at (%s, %s)", portfolio.ErrRepositoryDelete, instrumentID, signalID)
	}

	ctx, cancel := r.opContext()
	defer cancel()

	key := positionKey(instrumentID, signalID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("%w: del %s: %v", portfolio.ErrRepositoryDelete, key, err)
	}
	return position, nil
}

// RemoveInstrumentPositions implements portfolio.PositionHandler.
func (r *RedisRepository[S]) RemoveInstrumentPositions(instrumentID portfolio.InstrumentID) ([]portfolio.Position, error) {
	positions, err := r.GetOpenInstrumentPositions(instrumentID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.opContext()
	defer cancel()

	for i := range positions {
		key := positionKey(instrumentID, positions[i].SignalID)
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("%w: del %s: %v", portfolio.ErrRepositoryDelete, key, err)
		}
	}
	return positions, nil
}

// SetExitedPosition implements portfolio.PositionHandler.
func (r *RedisRepository[S]) SetExitedPosition(engineID uuid.UUID, position portfolio.Position) error {
	data, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("%w: marshal position: %v", portfolio.ErrSerialization, err)
	}

	ctx, cancel := r.opContext()
	defer cancel()

	key := portfolio.ExitedPositionsID(engineID)
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("%w: rpush %s: %v", portfolio.ErrRepositoryWrite, key, err)
	}
	return nil
}

// GetExitedPositions implements portfolio.PositionHandler. A missing
// list yields an empty slice.
func (r *RedisRepository[S]) GetExitedPositions(engineID uuid.UUID) ([]portfolio.Position, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	key := portfolio.ExitedPositionsID(engineID)
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []portfolio.Position{}, nil
		}
		return nil, fmt.Errorf("%w: lrange %s: %v", portfolio.ErrRepositoryRead, key, err)
	}

	positions := make([]portfolio.Position, 0, len(values))
	for _, value := range values {
		var position portfolio.Position
		if err := json.Unmarshal([]byte(value), &position); err != nil {
			return nil, fmt.Errorf("%w: unmarshal exited position: %v", portfolio.ErrSerialization, err)
		}
		positions = append(positions, position)
	}
	return positions, nil
}

// SetBalance implements portfolio.BalanceHandler.
func (r *RedisRepository[S]) SetBalance(engineID uuid.UUID, balance portfolio.Balance) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("%w: marshal balance: %v", portfolio.ErrSerialization, err)
	}

	ctx, cancel := r.opContext()
	defer cancel()

	key := portfolio.BalanceID(engineID)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", portfolio.ErrRepositoryWrite, key, err)
	}
	return nil
}

// GetBalance implements portfolio.BalanceHandler.
func (r *RedisRepository[S]) GetBalance(engineID uuid.UUID) (portfolio.Balance, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	key := portfolio.BalanceID(engineID)
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return portfolio.Balance{}, fmt.Errorf("%w: no balance at %s", portfolio.ErrExpectedDataNotPresent, key)
		}
		return portfolio.Balance{}, fmt.Errorf("%w: get %s: %v", portfolio.ErrRepositoryRead, key, err)
	}

	var balance portfolio.Balance
	if err := json.Unmarshal([]byte(value), &balance); err != nil {
		return portfolio.Balance{}, fmt.Errorf("%w: unmarshal balance: %v", portfolio.ErrSerialization, err)
	}
	return balance, nil
}

// SetStatistics implements portfolio.StatisticHandler. The statistic
// is stored at the raw MarketID string.
func (r *RedisRepository[S]) SetStatistics(marketID market.MarketID, statistic S) error {
	data, err := json.Marshal(statistic)
	if err != nil {
		return fmt.Errorf("%w: marshal statistics: %v", portfolio.ErrSerialization, err)
	}

	ctx, cancel := r.opContext()
	defer cancel()

	if err := r.client.Set(ctx, string(marketID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", portfolio.ErrRepositoryWrite, marketID, err)
	}
	return nil
}

// GetStatistics implements portfolio.StatisticHandler.
func (r *RedisRepository[S]) GetStatistics(marketID market.MarketID) (S, error) {
	var statistic S

	ctx, cancel := r.opContext()
	defer cancel()

	value, err := r.client.Get(ctx, string(marketID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return statistic, fmt.Errorf("%w: no statistics at %s", portfolio.ErrExpectedDataNotPresent, marketID)
		}
		return statistic, fmt.Errorf("%w: get %s: %v", portfolio.ErrRepositoryRead, marketID, err)
	}

	if err := json.Unmarshal([]byte(value), &statistic); err != nil {
		return statistic, fmt.Errorf("%w: unmarshal statistics: %v", portfolio.ErrSerialization, err)
	}
	return statistic, nil
}
