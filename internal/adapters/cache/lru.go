package cache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

// LRUBalanceCache keeps balances in process. Invalidation bumps the account's
// generation; entries under older generations age out of the LRU.
type LRUBalanceCache struct {
	mu          sync.Mutex
	generations map[string]uint64
	entries     *lru.Cache[portsrepo.BalanceKey, domain.AccountBalance]
}

// NewLRUBalanceCache creates a cache holding at most size balances.
func NewLRUBalanceCache(size int) (*LRUBalanceCache, error) {
	entries, err := lru.New[portsrepo.BalanceKey, domain.AccountBalance](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance cache: %w", err)
	}
	return &LRUBalanceCache{generations: make(map[string]uint64), entries: entries}, nil
}

var _ portsrepo.BalanceCache = (*LRUBalanceCache)(nil)

func (c *LRUBalanceCache) Generation(ctx context.Context, accountCode string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[accountCode], nil
}

func (c *LRUBalanceCache) Get(ctx context.Context, key portsrepo.BalanceKey) (*domain.AccountBalance, bool, error) {
	balance, ok := c.entries.Get(normalize(key))
	if !ok {
		return nil, false, nil
	}
	return &balance, true, nil
}

func (c *LRUBalanceCache) Set(ctx context.Context, key portsrepo.BalanceKey, balance domain.AccountBalance) error {
	c.entries.Add(normalize(key), balance)
	return nil
}

func (c *LRUBalanceCache) Invalidate(ctx context.Context, accountCodes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, code := range accountCodes {
		c.generations[code]++
	}
	return nil
}

// Len reports the number of cached balances.
func (c *LRUBalanceCache) Len() int { return c.entries.Len() }

// normalize strips the wall clock and location from AsOf so equal dates hash equal.
func normalize(key portsrepo.BalanceKey) portsrepo.BalanceKey {
	key.AsOf = domain.DateOnly(key.AsOf)
	return key
}
