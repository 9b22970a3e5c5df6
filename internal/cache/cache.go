// Package cache holds bounded, expiring stores for ledger responses. A cache
// is created by the caller and handed to the gateway; nothing here is global.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store maps keys to opaque payloads. Misses and expired entries are reported
// as ok=false; stores never fail a lookup.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, val []byte)
}

// LRU is an in-memory Store bounded by size and ttl.
type LRU struct {
	lru *expirable.LRU[string, []byte]
}

var _ Store = &LRU{}

// NewLRU creates a store holding at most size entries, each living for ttl.
// A non-positive ttl disables expiry.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size < 1 {
		size = 1
	}
	return &LRU{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *LRU) Put(_ context.Context, key string, val []byte) {
	c.lru.Add(key, val)
}

// Len returns the number of live entries.
func (c *LRU) Len() int {
	return c.lru.Len()
}

// Tiered consults stores in order and back-fills faster tiers on a hit.
type Tiered []Store

var _ Store = Tiered{}

func (t Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, s := range t {
		if s == nil {
			continue
		}
		if v, ok := s.Get(ctx, key); ok {
			for _, faster := range t[:i] {
				if faster != nil {
					faster.Put(ctx, key, v)
				}
			}
			return v, true
		}
	}
	return nil, false
}

func (t Tiered) Put(ctx context.Context, key string, val []byte) {
	for _, s := range t {
		if s != nil {
			s.Put(ctx, key, val)
		}
	}
}
