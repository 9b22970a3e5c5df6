package ledger

import (
	"context"
	"encoding/json"

	"council-delegation/internal/cache"
)

// Cached serves Account lookups from a caller-supplied store before asking
// the wrapped gateway. Holder listings always go to the wrapped gateway but
// warm the store with every holder they return. Failures are not cached.
type Cached struct {
	next  Gateway
	store cache.Store
}

var _ Gateway = &Cached{}

// NewCached wraps next. A nil store disables caching.
func NewCached(next Gateway, store cache.Store) *Cached {
	return &Cached{next: next, store: store}
}

func cacheKey(id string) string {
	return "account:" + id
}

func (c *Cached) TokenHolders(ctx context.Context, asset string) ([]Account, error) {
	holders, err := c.next.TokenHolders(ctx, asset)
	if err != nil {
		return nil, err
	}
	for _, a := range holders {
		c.put(ctx, a)
	}
	return holders, nil
}

func (c *Cached) Account(ctx context.Context, id string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	if c.store != nil {
		if b, ok := c.store.Get(ctx, cacheKey(id)); ok {
			var a Account
			if err := json.Unmarshal(b, &a); err == nil {
				return a, nil
			}
		}
	}
	a, err := c.next.Account(ctx, id)
	if err != nil {
		return Account{}, err
	}
	c.put(ctx, a)
	return a, nil
}

func (c *Cached) put(ctx context.Context, a Account) {
	if c.store == nil {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	c.store.Put(ctx, cacheKey(a.ID), b)
}
