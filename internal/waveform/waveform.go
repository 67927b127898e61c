// Package waveform implements the Waveform data model (spec.md §3, §5
// Lifecycle): one entry per distinct audio file in use, owning the
// low-resolution peak array, the sparse hi-res peakbuf cache, and per-mode
// render data shared across every actor viewing it. Loaded audio blocks
// are not held here; they live in the shared internal/audiocache.
//
// Cyclic back-references are deliberately avoided per SPEC_FULL.md Design
// Notes: a Waveform holds no reference to its actors, only a subscription
// list of weak-reference-style callbacks fired on peak-ready/hires-ready
// events; actors hold the only strong reference, via refcounting below.
package waveform

import (
	"sync"
	"sync/atomic"

	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

// Waveform is one distinct audio file in use (spec.md §3).
type Waveform struct {
	ID       wavetypes.WaveformID
	Filename string

	mu         sync.RWMutex
	nFrames    int64
	nChannels  int
	sampleRate int
	offline    bool
	renderable bool

	peak *peakfile.File // low-resolution 256:1 array, nil until loaded

	hiresMu    sync.RWMutex
	hiresPeaks map[int]*wavetypes.Peakbuf // sparse, indexed by block index

	// renderData[mode] is an opaque, mode-owned handle, nil until some
	// actor has rendered in that mode since the last clear (spec.md §3
	// invariant).
	renderData [wavetypes.NumModes]any

	refcount int32

	subsMu       sync.Mutex
	peakSubs     []func(error)
	hiresSubs    []func(block int)
}

// New allocates a Waveform identity. Peak/audio data is populated lazily
// by the load pipeline (spec.md §3 Lifecycle: "peakfile loading is
// requested explicitly or lazily on first draw").
func New(filename string) *Waveform {
	return &Waveform{
		ID:         wavetypes.NewWaveformID(),
		Filename:   filename,
		renderable: true,
	}
}

// Retain increments the actor refcount. Call once per actor that takes a
// strong reference.
func (w *Waveform) Retain() {
	atomic.AddInt32(&w.refcount, 1)
}

// Release decrements the actor refcount, returning true if this was the
// last reference (the caller must then free peak/audio/render data and
// sweep the texture cache, spec.md §3 Lifecycle).
func (w *Waveform) Release() bool {
	return atomic.AddInt32(&w.refcount, -1) == 0
}

// RefCount reports the current actor refcount, for tests.
func (w *Waveform) RefCount() int {
	return int(atomic.LoadInt32(&w.refcount))
}

// SetAudioInfo installs the decoded file's metadata (spec.md §3 invariant:
// n_frames > 0 => n_channels in {1,2}).
func (w *Waveform) SetAudioInfo(nFrames int64, nChannels, sampleRate int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nFrames = nFrames
	w.nChannels = nChannels
	w.sampleRate = sampleRate
}

func (w *Waveform) NFrames() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.nFrames
}

func (w *Waveform) NChannels() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.nChannels
}

func (w *Waveform) SampleRate() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sampleRate
}

// SetOffline marks the waveform offline (audio file unreachable) while
// potentially remaining renderable from a pre-existing peakfile (spec.md
// §7 FileMissing).
func (w *Waveform) SetOffline(offline bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.offline = offline
}

func (w *Waveform) Offline() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.offline
}

// SetRenderable toggles renderability (spec.md §7: false on peakfile
// missing/corrupt/generation failure).
func (w *Waveform) SetRenderable(r bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renderable = r
}

func (w *Waveform) Renderable() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.renderable
}

// SetPeak installs the loaded low-resolution peakfile.
func (w *Waveform) SetPeak(pf *peakfile.File) {
	w.mu.Lock()
	w.peak = pf
	w.mu.Unlock()
	w.subsMu.Lock()
	subs := append([]func(error){}, w.peakSubs...)
	w.subsMu.Unlock()
	for _, f := range subs {
		f(nil)
	}
}

// Peak returns the loaded low-resolution peakfile, or nil.
func (w *Waveform) Peak() *peakfile.File {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.peak
}

// NumPeaks returns peak.size/2 per channel, i.e. the number of (max,min)
// pairs, or 0 if no peakfile is loaded (spec.md §3 invariant).
func (w *Waveform) NumPeaks() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.peak == nil {
		return 0
	}
	return w.peak.NumPeaks
}

// NumBlocksForMode derives the block count for mode m from the audio frame
// count (NFrames) and the mode's samples-per-texture ratio, so block counts
// are known before any peakfile is loaded.
func (w *Waveform) NumBlocksForMode(m wavetypes.Mode) int {
	nFrames := w.NFrames()
	if nFrames == 0 {
		return 0
	}
	spt := int64(wavetypes.SamplesPerTexture(m))
	if spt <= 0 {
		return 0
	}
	n := int((nFrames + spt - 1) / spt)
	if n < 1 {
		n = 1
	}
	return n
}

// RenderData returns the per-mode opaque handle, allocating it via newFn
// if absent (spec.md §3 invariant: "render_data for a mode exists iff at
// least one actor has rendered in that mode since last clear").
func (w *Waveform) RenderData(m wavetypes.Mode, newFn func() any) any {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.renderData[m] == nil {
		w.renderData[m] = newFn()
	}
	return w.renderData[m]
}

// ClearRenderData frees renderData for mode m, invoking freeFn first if the
// handle exists.
func (w *Waveform) ClearRenderData(m wavetypes.Mode, freeFn func(any)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.renderData[m] != nil {
		if freeFn != nil {
			freeFn(w.renderData[m])
		}
		w.renderData[m] = nil
	}
}

// ClearAllRenderData frees every mode's render data, e.g. on GL context
// loss (SPEC_FULL.md supplemented feature) or waveform destruction.
func (w *Waveform) ClearAllRenderData(freeFn func(wavetypes.Mode, any)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for m := 0; m < wavetypes.NumModes; m++ {
		if w.renderData[m] != nil {
			if freeFn != nil {
				freeFn(wavetypes.Mode(m), w.renderData[m])
			}
			w.renderData[m] = nil
		}
	}
}

// SetHiresPeak installs a computed Peakbuf for block (spec.md §3
// hires_peaks: "sparse sequence indexed by block index").
func (w *Waveform) SetHiresPeak(block int, pb *wavetypes.Peakbuf) {
	w.hiresMu.Lock()
	defer w.hiresMu.Unlock()
	if w.hiresPeaks == nil {
		w.hiresPeaks = make(map[int]*wavetypes.Peakbuf)
	}
	w.hiresPeaks[block] = pb
}

// HiresPeak returns the Peakbuf for block, if any.
func (w *Waveform) HiresPeak(block int) (*wavetypes.Peakbuf, bool) {
	w.hiresMu.RLock()
	defer w.hiresMu.RUnlock()
	pb, ok := w.hiresPeaks[block]
	return pb, ok
}

// NumHiresPeaks reports how many blocks have a resident Peakbuf, used by
// spec.md §8 scenario 6 ("hires_peaks has length zero").
func (w *Waveform) NumHiresPeaks() int {
	w.hiresMu.RLock()
	defer w.hiresMu.RUnlock()
	return len(w.hiresPeaks)
}

// ClearHiresPeaks drops every cached hi-res peakbuf, e.g. on waveform
// destruction.
func (w *Waveform) ClearHiresPeaks() {
	w.hiresMu.Lock()
	defer w.hiresMu.Unlock()
	w.hiresPeaks = nil
}

// OnPeaksReady registers a callback fired once when the peakfile loads
// (success) — the "peaks promise" of spec.md §6 (`peakdata-ready`).
func (w *Waveform) OnPeaksReady(f func(error)) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	w.peakSubs = append(w.peakSubs, f)
}

// NotifyPeaksError reports a peakfile failure to subscribers without
// installing any peak data (spec.md §7 propagation: "attached to the
// waveform's peaks promise").
func (w *Waveform) NotifyPeaksError(err error) {
	w.subsMu.Lock()
	subs := append([]func(error){}, w.peakSubs...)
	w.subsMu.Unlock()
	for _, f := range subs {
		f(err)
	}
}

// OnHiresReady registers a callback fired whenever a hi-res block finishes
// loading (spec.md §6 `hires-ready(block)`).
func (w *Waveform) OnHiresReady(f func(block int)) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	w.hiresSubs = append(w.hiresSubs, f)
}

// NotifyHiresReady fires every hires-ready subscriber for block.
func (w *Waveform) NotifyHiresReady(block int) {
	w.subsMu.Lock()
	subs := append([]func(int){}, w.hiresSubs...)
	w.subsMu.Unlock()
	for _, f := range subs {
		f(block)
	}
}
