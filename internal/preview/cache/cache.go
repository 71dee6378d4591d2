// Package cache implements the byte-budgeted LRU frame cache used by the
// playback scheduler, with access-stride prediction for prefetch.
package cache

import (
	"container/list"
	"sync"

	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/metrics"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// Cache is a bounded-memory store of decoded frames keyed by frame index.
// Eviction is strictly least-recently-used by byte budget. All mutating
// operations are serialized under one mutex; the critical section only
// touches map/list bookkeeping, never decode or I/O.
type Cache struct {
	mu sync.Mutex

	maxBytes     int64
	currentBytes int64

	entries map[int64]*list.Element
	order   *list.List // Front = most recently used

	hits      uint64
	misses    uint64
	evictions uint64

	predictor *predictor

	sessionID string
	logger    logger.Logger
}

type entry struct {
	number int64
	frame  *types.Frame
}

// Stats is an immutable snapshot of cache counters.
type Stats struct {
	Hits         uint64
	Misses       uint64
	HitRate      float64
	MissRate     float64
	CurrentBytes int64
	Entries      int
	Evictions    uint64
}

// New creates a frame cache with the given byte budget. predictorWindow is
// the number of recent accesses used for stride prediction (minimum 2).
func New(maxBytes int64, predictorWindow int, sessionID string, log logger.Logger) (*Cache, error) {
	if maxBytes <= 0 {
		return nil, errors.NewConfigError("cache budget must be positive")
	}
	if predictorWindow < 2 {
		predictorWindow = 2
	}

	return &Cache{
		maxBytes:  maxBytes,
		entries:   make(map[int64]*list.Element),
		order:     list.New(),
		predictor: newPredictor(predictorWindow),
		sessionID: sessionID,
		logger:    log.WithField("component", "frame_cache"),
	}, nil
}

// Get returns the cached frame for frameNumber, promoting it to most
// recently used. The access is recorded for stride prediction whether or
// not it hits.
func (c *Cache) Get(frameNumber int64) (*types.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.predictor.record(frameNumber)

	elem, ok := c.entries[frameNumber]
	if !ok {
		c.misses++
		metrics.RecordCacheMiss(c.sessionID)
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	metrics.RecordCacheHit(c.sessionID)
	return elem.Value.(*entry).frame, true
}

// Peek returns the cached frame without promoting it or touching counters.
// Used by the prefetch pool to test membership cheaply.
func (c *Cache) Peek(frameNumber int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[frameNumber]
	return ok
}

// Put inserts a frame, evicting least-recently-used entries until the byte
// budget holds. A frame larger than the whole budget is rejected with a
// CACHE_OVERFLOW error instead of draining the cache for nothing.
func (c *Cache) Put(frameNumber int64, frame *types.Frame) error {
	size := frame.Size()

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.maxBytes {
		return errors.NewCacheOverflowError(size, c.maxBytes)
	}

	// Replacing an existing entry releases its bytes first.
	if elem, ok := c.entries[frameNumber]; ok {
		old := elem.Value.(*entry)
		c.currentBytes -= old.frame.Size()
		old.frame = frame
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&entry{number: frameNumber, frame: frame})
		c.entries[frameNumber] = elem
	}
	c.currentBytes += size

	c.evictUntilLocked(c.maxBytes)
	metrics.SetCacheBytes(c.sessionID, c.currentBytes)
	return nil
}

// SetBudget changes the byte budget at runtime, evicting down to the new
// limit. Non-positive budgets are rejected and the old budget stays.
func (c *Cache) SetBudget(maxBytes int64) error {
	if maxBytes <= 0 {
		return errors.NewConfigError("cache budget must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxBytes = maxBytes
	c.evictUntilLocked(maxBytes)
	metrics.SetCacheBytes(c.sessionID, c.currentBytes)
	return nil
}

// evictUntilLocked drops LRU entries until currentBytes <= budget.
// Caller holds c.mu.
func (c *Cache) evictUntilLocked(budget int64) {
	evicted := 0
	for c.currentBytes > budget {
		back := c.order.Back()
		if back == nil {
			break
		}
		victim := back.Value.(*entry)
		c.order.Remove(back)
		delete(c.entries, victim.number)
		c.currentBytes -= victim.frame.Size()
		c.evictions++
		evicted++
	}

	if evicted > 0 {
		metrics.RecordEviction(c.sessionID, evicted)
		c.logger.WithFields(map[string]interface{}{
			"evicted":       evicted,
			"current_bytes": c.currentBytes,
		}).Debug("Evicted frames to satisfy cache budget")
	}
}

// PredictNext proposes the frame number likely to be requested next, based
// on the mean stride of recent accesses. Advisory only: a wrong prediction
// costs at most a future cache miss.
func (c *Cache) PredictNext() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.predictor.next()
}

// Stats returns a snapshot of the cache counters. The hit rate divides by
// max(1, accesses) so an idle cache reports 0, never NaN.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	accesses := c.hits + c.misses
	denom := accesses
	if denom == 0 {
		denom = 1
	}

	return Stats{
		Hits:         c.hits,
		Misses:       c.misses,
		HitRate:      float64(c.hits) / float64(denom),
		MissRate:     float64(c.misses) / float64(denom),
		CurrentBytes: c.currentBytes,
		Entries:      len(c.entries),
		Evictions:    c.evictions,
	}
}

// MaxBytes returns the configured byte budget.
func (c *Cache) MaxBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.maxBytes
}

// Clear drops all entries and resets counters and the access history.
// Called on source reload so no frame leaks across sources.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[int64]*list.Element)
	c.order.Init()
	c.currentBytes = 0
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	c.predictor.reset()
	metrics.SetCacheBytes(c.sessionID, 0)
}
