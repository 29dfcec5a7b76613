package services

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	value   Availability
	expires time.Time
}

// availabilityCache holds computed availability per tenant and date until the
// TTL runs out or a booking write for that day invalidates it.
type availabilityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newAvailabilityCache(ttl time.Duration) *availabilityCache {
	return &availabilityCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func cacheKey(tenantID uint, date string) string {
	return fmt.Sprintf("%d|%s", tenantID, date)
}

func (c *availabilityCache) get(tenantID uint, date string, now time.Time) (Availability, bool) {
	if c.ttl <= 0 {
		return Availability{}, false
	}
	c.mu.RLock()
	e, ok := c.entries[cacheKey(tenantID, date)]
	c.mu.RUnlock()
	if !ok || !now.Before(e.expires) {
		return Availability{}, false
	}
	return e.value, true
}

func (c *availabilityCache) put(tenantID uint, date string, value Availability, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(tenantID, date)] = cacheEntry{value: value, expires: now.Add(c.ttl)}

	// Drop expired entries so the map doesn't grow with every date ever asked for.
	if len(c.entries) > 1024 {
		for k, e := range c.entries {
			if !now.Before(e.expires) {
				delete(c.entries, k)
			}
		}
	}
}

func (c *availabilityCache) invalidate(tenantID uint, dates ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		if d != "" {
			delete(c.entries, cacheKey(tenantID, d))
		}
	}
}

func (c *availabilityCache) invalidateTenant(tenantID uint) {
	prefix := fmt.Sprintf("%d|", tenantID)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}
