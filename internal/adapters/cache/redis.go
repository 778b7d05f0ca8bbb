package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

const keyPrefix = "ledger:balance"

// RedisBalanceCache shares cached balances between instances. Generations are
// plain counters; balance keys embed the generation they were computed under.
type RedisBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBalanceCache wraps client. Balances expire after ttl.
func NewRedisBalanceCache(client *redis.Client, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{client: client, ttl: ttl}
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

var _ portsrepo.BalanceCache = (*RedisBalanceCache)(nil)

func generationKey(accountCode string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, accountCode)
}

func balanceKey(key portsrepo.BalanceKey) string {
	return fmt.Sprintf("%s:%s:%d:%s:%s", keyPrefix, key.AccountCode, key.Generation, key.AsOf.Format(domain.DateLayout), key.Currency)
}

func (c *RedisBalanceCache) Generation(ctx context.Context, accountCode string) (uint64, error) {
	val, err := c.client.Get(ctx, generationKey(accountCode)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance generation: %w", err)
	}
	gen, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt balance generation %q: %w", val, err)
	}
	return gen, nil
}

func (c *RedisBalanceCache) Get(ctx context.Context, key portsrepo.BalanceKey) (*domain.AccountBalance, bool, error) {
	raw, err := c.client.Get(ctx, balanceKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached balance: %w", err)
	}
	var balance domain.AccountBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached balance: %w", err)
	}
	return &balance, true, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, key portsrepo.BalanceKey, balance domain.AccountBalance) error {
	raw, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to encode balance: %w", err)
	}
	if err := c.client.Set(ctx, balanceKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return nil
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context, accountCodes ...string) error {
	for _, code := range accountCodes {
		if err := c.client.Incr(ctx, generationKey(code)).Err(); err != nil {
			return fmt.Errorf("failed to invalidate balances of %s: %w", code, err)
		}
	}
	return nil
}
