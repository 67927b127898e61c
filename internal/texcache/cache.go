// Package texcache implements the GPU texture cache (spec.md §4.5, C7): a
// fixed-size pool of texture handles keyed by (waveform, block,
// resolution-class), LRU-assigned on miss with a steal-notify callback so
// the previous owner can drop its reference.
//
// Grounded on original_source/waveform/texture_cache.h's composite-key/
// steal-callback contract (spec.md §4.5 reproduces it almost verbatim);
// the dense GArray of slots there becomes a plain Go slice here, scanned
// linearly for both lookup and eviction exactly as the original does (the
// pool is small — spec.md: "≈128 slots per resolution class" — so a linear
// scan is the idiomatic, non-premature choice over a secondary index).
package texcache

import (
	"sync"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

// DefaultCapacityPerClass is the reference slot count per resolution class
// (spec.md §4.5: "≈128 slots per resolution class").
const DefaultCapacityPerClass = 128

// TextureID is an opaque GPU texture handle. The actual GL object lifetime
// (allocation/deletion) is owned by the external GL collaborator the core
// treats as a black box (spec.md §1 Non-goals); this package only tracks
// which (waveform, block, class) a handle currently represents.
type TextureID uint32

// Key identifies one texture-cache slot's binding.
type Key struct {
	Waveform wavetypes.WaveformID
	Block    int
	Class    wavetypes.ResClass
}

type slot struct {
	key       Key
	bound     bool
	timestamp int64
}

// OnSteal is invoked with the binding being evicted, so the previous owner
// can null its pointer to the texture before it is reassigned (spec.md
// §4.5).
type OnSteal func(prev Key, tex TextureID)

// Cache is the fixed-size texture-handle pool.
type Cache struct {
	mu      sync.Mutex
	slots   []slot
	ids     []TextureID // slots[i] always owns ids[i] for its whole lifetime
	onSteal OnSteal
	stamp   int64
}

// New constructs a Cache with the given handles, one per slot, allocated
// once by the caller at GL-context-create time (spec.md §4.5: "Each slot
// owns one GL texture handle allocated once at GL-context-create time").
func New(handles []TextureID, onSteal OnSteal) *Cache {
	return &Cache{
		slots:   make([]slot, len(handles)),
		ids:     append([]TextureID(nil), handles...),
		onSteal: onSteal,
	}
}

// Lookup returns the texture id bound to key and true, or false on a miss.
// A hit bumps the slot's timestamp ("freshen", spec.md §4.5).
func (c *Cache) Lookup(key Key) (TextureID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.slots {
		if c.slots[i].bound && c.slots[i].key == key {
			c.stamp++
			c.slots[i].timestamp = c.stamp
			return c.ids[i], true
		}
	}
	return 0, false
}

// AssignNew picks the least-recently-used slot, invokes OnSteal if it was
// bound to something else, rebinds it to key and returns its texture id
// (spec.md §4.5 "Assignment on miss").
func (c *Cache) AssignNew(key Key) TextureID {
	c.mu.Lock()
	idx := c.lruIndexLocked()
	prevKey := c.slots[idx].key
	wasBound := c.slots[idx].bound
	tex := c.ids[idx]

	c.stamp++
	c.slots[idx] = slot{key: key, bound: true, timestamp: c.stamp}
	c.mu.Unlock()

	if wasBound && c.onSteal != nil {
		c.onSteal(prevKey, tex)
	}
	return tex
}

func (c *Cache) lruIndexLocked() int {
	best := 0
	for i := range c.slots {
		if !c.slots[i].bound {
			return i
		}
		if c.slots[i].timestamp < c.slots[best].timestamp {
			best = i
		}
	}
	return best
}

// Remove unbinds the slot holding (wf, block) across every class, if any.
func (c *Cache) Remove(wf wavetypes.WaveformID, block int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.slots {
		if c.slots[i].bound && c.slots[i].key.Waveform == wf && c.slots[i].key.Block == block {
			c.slots[i].bound = false
		}
	}
}

// RemoveWaveform unbinds every slot belonging to wf, used on waveform
// destruction (spec.md §3 Lifecycle: "the texture cache is swept by
// (waveform,*) to drop its slots").
func (c *Cache) RemoveWaveform(wf wavetypes.WaveformID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.slots {
		if c.slots[i].bound && c.slots[i].key.Waveform == wf {
			c.slots[i].bound = false
		}
	}
}

// InvalidateAll unbinds every slot without touching the underlying handles,
// the entry point a GL context loss should call before handles are
// reallocated.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.slots {
		c.slots[i].bound = false
	}
}

// Len reports the slot count (capacity), for tests.
func (c *Cache) Len() int {
	return len(c.slots)
}
