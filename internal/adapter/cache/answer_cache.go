// Package cache holds a bounded in-process cache for answered
// questions.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"pdfqa/internal/domain"
)

// AnswerCache memoizes completed ask results keyed by the sanitized
// question and retrieval parameters. Entries expire after a TTL and
// the whole cache is invalidated whenever the index changes, so a
// cached answer can never cite chunks that no longer exist.
type AnswerCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
}

type cacheEntry struct {
	result    domain.AskResult
	timestamp time.Time
	gen       uint64
}

// NewAnswerCache creates a cache holding at most maxSize answers for
// at most ttl each.
func NewAnswerCache(maxSize int, ttl time.Duration) *AnswerCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(question string, k int, threshold float64, docFilter string) string {
	data := fmt.Sprintf("%s\x00%d\x00%g\x00%s", question, k, threshold, docFilter)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// Get returns the cached result for the given parameters, if present,
// fresh and from the current index generation.
func (c *AnswerCache) Get(question string, k int, threshold float64, docFilter string) (domain.AskResult, bool) {
	key := cacheKey(question, k, threshold, docFilter)

	c.mu.RLock()
	entry, exists := c.entries[key]
	currentGen := c.gen
	c.mu.RUnlock()

	if !exists {
		return domain.AskResult{}, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.gen != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return domain.AskResult{}, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.result, true
}

// Put stores a completed result, evicting the least recently used
// entry when the cache is full.
func (c *AnswerCache) Put(question string, k int, threshold float64, docFilter string, result domain.AskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(question, k, threshold, docFilter)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{result: result, timestamp: time.Now(), gen: c.gen}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &cacheEntry{result: result, timestamp: time.Now(), gen: c.gen}
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Called after any ingest or reset.
func (c *AnswerCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

// Size returns the current entry count.
func (c *AnswerCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *AnswerCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *AnswerCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *AnswerCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
