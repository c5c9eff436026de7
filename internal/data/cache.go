package data

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ReportCache keeps recently downloaded report bodies in memory, keyed by URL.
// A nil cache is valid and never hits.
type ReportCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewReportCache creates a cache holding at most size reports for ttl.
func NewReportCache(size int, ttl time.Duration) *ReportCache {
	if size <= 0 {
		return nil
	}
	return &ReportCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get retrieves a cached body if present and not expired.
func (c *ReportCache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

// Set stores a body.
func (c *ReportCache) Set(key string, body []byte) {
	if c == nil {
		return
	}
	c.lru.Add(key, body)
}

// Len reports the number of live entries.
func (c *ReportCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
