package cache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/Domenick1991/flightbot/config"
	"github.com/Domenick1991/flightbot/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisCache keeps short-lived copies of upstream lookups. A miss is
// reported as (nil, nil).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    cfg.LookupTTL(),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetFlight(ctx context.Context, fltnr string) ([]domain.FlightRecord, error) {
	var flights []domain.FlightRecord
	ok, err := c.get(ctx, flightKey(fltnr), &flights)
	if err != nil || !ok {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlight(ctx context.Context, fltnr string, flights []domain.FlightRecord) error {
	return c.set(ctx, flightKey(fltnr), flights)
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]string, error) {
	var flights []string
	ok, err := c.get(ctx, flightsKey(), &flights)
	if err != nil || !ok {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []string) error {
	return c.set(ctx, flightsKey(), flights)
}

func (c *RedisCache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	if c.ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func flightKey(fltnr string) string {
	return "cache:flight:" + fltnr
}

func flightsKey() string {
	return "cache:flights"
}
