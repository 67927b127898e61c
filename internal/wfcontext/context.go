// Package wfcontext implements the shared rendering Context (spec.md §3,
// §6, C11): sample rate, global zoom, start time and vertical gain shared
// across every actor, plus a minimal observer layer so a UI can react to
// changes (the promise/observer layer spec.md §3 describes, scoped down to
// the plain callback list the core itself needs — the UI's richer
// property-binding system is out of scope per spec.md §1).
package wfcontext

import "sync"

// MinZoom/MaxZoom bound Context.Zoom, matching the reference
// implementation's WF_CONTEXT_MIN_ZOOM/MAX_ZOOM constants
// (original_source/waveform/context.h).
const (
	MinZoom = 0.1
	MaxZoom = 51200.0
)

// Context is shared across actors (spec.md §3).
type Context struct {
	mu sync.RWMutex

	sampleRate      uint32
	samplesPerPixel float32 // base sppx before the zoom multiplier
	scaled          bool    // true: use context time-scale; false: actor rect/region only
	zoom            float32
	startTime       int64 // frames
	vGain           float32

	redrawMu   sync.Mutex
	onRedraw   []func()
}

// New constructs a Context at zoom 1.0, vGain 1.0, unscaled.
func New(sampleRate uint32, samplesPerPixel float32) *Context {
	return &Context{
		sampleRate:      sampleRate,
		samplesPerPixel: samplesPerPixel,
		zoom:            1.0,
		vGain:           1.0,
	}
}

func (c *Context) SampleRate() uint32 {
	return c.sampleRate
}

// GetZoom returns the current zoom multiplier (spec.md §6 external
// interface: get_zoom).
func (c *Context) GetZoom() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

// SetZoom clamps z to [MinZoom, MaxZoom] and queues a redraw.
func (c *Context) SetZoom(z float32) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	c.mu.Lock()
	c.zoom = z
	c.mu.Unlock()
	c.QueueRedraw()
}

// GetSamplesPerPixel returns the base samples-per-pixel value, before the
// zoom multiplier is applied; in scaled mode actors derive pixels-per-sample
// from it and the zoom (spec.md §6 get_samples_per_pixel).
func (c *Context) GetSamplesPerPixel() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.samplesPerPixel
}

// GetScaled reports whether the context is in scaled mode (spec.md §6
// get_scaled).
func (c *Context) GetScaled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scaled
}

// SetScaled toggles scaled mode.
func (c *Context) SetScaled(scaled bool) {
	c.mu.Lock()
	c.scaled = scaled
	c.mu.Unlock()
}

// SetStartTime sets the context's start time in frames.
func (c *Context) SetStartTime(frames int64) {
	c.mu.Lock()
	c.startTime = frames
	c.mu.Unlock()
	c.QueueRedraw()
}

func (c *Context) StartTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

// SetGain sets the vertical gain multiplier.
func (c *Context) SetGain(g float32) {
	c.mu.Lock()
	c.vGain = g
	c.mu.Unlock()
}

func (c *Context) Gain() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vGain
}

// FrameToX converts an absolute frame position to an x pixel coordinate
// under scaled mode (spec.md §6 frame_to_x).
func (c *Context) FrameToX(frame int64) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sppx := c.samplesPerPixel * c.zoom
	if sppx <= 0 {
		return 0
	}
	return float32(frame-c.startTime) / sppx
}

// XToFrame is the inverse of FrameToX (spec.md §6 x_to_frame).
func (c *Context) XToFrame(px float32) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sppx := c.samplesPerPixel * c.zoom
	return c.startTime + int64(px*sppx)
}

// QueueRedraw schedules the next frame (spec.md §6 queue_redraw).
func (c *Context) QueueRedraw() {
	c.redrawMu.Lock()
	cbs := append([]func(){}, c.onRedraw...)
	c.redrawMu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// OnRedraw registers a callback invoked whenever QueueRedraw fires (the
// host application wires this to its actual GL-surface invalidate call,
// out of scope per spec.md §1).
func (c *Context) OnRedraw(f func()) {
	c.redrawMu.Lock()
	defer c.redrawMu.Unlock()
	c.onRedraw = append(c.onRedraw, f)
}
