package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"StockCast/internal/model"
)

// Memory is an in-process LRU cache with a per-entry TTL.
type Memory struct {
	lru *expirable.LRU[Key, *model.PriceSeries]
}

// NewMemory creates a cache holding at most maxEntries series for ttl each.
// ttl <= 0 disables expiry.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Memory{lru: expirable.NewLRU[Key, *model.PriceSeries](maxEntries, nil, ttl)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key Key) (*model.PriceSeries, bool, error) {
	series, ok := m.lru.Get(key)
	return series, ok, nil
}

// Set stores series and restarts its TTL.
func (m *Memory) Set(_ context.Context, key Key, series *model.PriceSeries) error {
	m.lru.Add(key, series)
	return nil
}

// Sweep removes entries that expired but were not yet collected by the
// cache's own cleanup.
func (m *Memory) Sweep(_ context.Context) (int, error) {
	removed := 0
	for _, key := range m.lru.Keys() {
		if _, ok := m.lru.Peek(key); !ok && m.lru.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Len() int { return m.lru.Len() }
