// Package audiocache implements the audio block cache (spec.md §4.2, C4):
// an LRU map of (waveform, block-index) -> AudioBlock, bounded by total
// allocated shorts across all blocks.
//
// Generalises a single-pass "read everything, keep it in memory" model into
// a bounded, block-granular, evictable cache: LRU stamps are plain integers
// bumped under the cache's own mutex, since the cache is accessed from one
// goroutine at a time and needs no atomic counter.
package audiocache

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

type key struct {
	wf    wavetypes.WaveformID
	block int
}

// Cache is the bounded LRU audio-block cache.
type Cache struct {
	mu         sync.Mutex
	blocks     map[key]*wavetypes.AudioBlock
	totalShort int
	capShorts  int
	stamp      int64
	logger     zerolog.Logger
}

// New constructs a Cache capped at capShorts total shorts (pass
// wavetypes.AudioCacheMaxShorts for the standard 2^23 default).
func New(capShorts int, logger zerolog.Logger) *Cache {
	return &Cache{
		blocks:    make(map[key]*wavetypes.AudioBlock),
		capShorts: capShorts,
		logger:    logger.With().Str("component", "audiocache").Logger(),
	}
}

// Get returns the block for (wf, block) if present, bumping its LRU stamp.
func (c *Cache) Get(wf wavetypes.WaveformID, block int) (*wavetypes.AudioBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blocks[key{wf, block}]
	if ok {
		c.stamp++
		b.Stamp = c.stamp
	}
	return b, ok
}

// Insert adds blk under (wf, block), evicting least-recently-stamped
// blocks first if the cap would be exceeded. If eviction cannot free
// enough room (shouldn't happen given the cap is enforced on every
// insert), the insertion proceeds anyway and a warning is logged
// (spec.md §4.2, §7 CacheFull).
func (c *Cache) Insert(wf wavetypes.WaveformID, block int, blk *wavetypes.AudioBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{wf, block}
	if old, exists := c.blocks[k]; exists {
		c.totalShort -= old.Shorts()
		delete(c.blocks, k)
	}

	needed := blk.Shorts()
	for c.totalShort+needed > c.capShorts {
		if !c.evictOldestLocked() {
			c.logger.Warn().Int("needed", needed).Int("total", c.totalShort).Msg("cache full, eviction could not free enough room")
			break
		}
	}

	c.stamp++
	blk.Stamp = c.stamp
	c.blocks[k] = blk
	c.totalShort += needed
}

// evictOldestLocked removes the block with the smallest stamp. Caller must
// hold c.mu. Returns false if the cache was already empty.
func (c *Cache) evictOldestLocked() bool {
	var oldestKey key
	var oldest *wavetypes.AudioBlock
	for k, b := range c.blocks {
		if oldest == nil || b.Stamp < oldest.Stamp {
			oldestKey, oldest = k, b
		}
	}
	if oldest == nil {
		return false
	}
	delete(c.blocks, oldestKey)
	c.totalShort -= oldest.Shorts()
	return true
}

// RemoveWaveform drops every block belonging to wf, e.g. when the last
// actor reference is released (spec.md §3 Lifecycle).
func (c *Cache) RemoveWaveform(wf wavetypes.WaveformID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, b := range c.blocks {
		if k.wf == wf {
			c.totalShort -= b.Shorts()
			delete(c.blocks, k)
		}
	}
}

// TotalShorts reports current total allocation, for tests/metrics.
func (c *Cache) TotalShorts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalShort
}

// Len reports the number of resident blocks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// Has reports whether (wf, block) is resident, without affecting its LRU
// stamp (used by tests asserting eviction outcomes).
func (c *Cache) Has(wf wavetypes.WaveformID, block int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.blocks[key{wf, block}]
	return ok
}
