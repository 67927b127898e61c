package actor

import (
	"time"

	"github.com/ayyi/libwaveform-sub002/internal/blockrange"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
	"github.com/ayyi/libwaveform-sub002/internal/wfcontext"
	"github.com/ayyi/libwaveform-sub002/internal/wfmode"
	"github.com/ayyi/libwaveform-sub002/internal/transition"
)

// renderInfo memoises the last resolved (region, rect, viewport, zoom,
// mode, first/last block) so a re-render without layout change can skip
// recomputation (spec.md §3 Waveform actor).
type renderInfo struct {
	valid             bool
	mode              wavetypes.Mode
	blockRange        blockrange.Range
	region            blockrange.Region
	rect              blockrange.Rect
	viewport          blockrange.Viewport
	zoom              float32
}

// Actor is one independent view of a Waveform (spec.md §3, C10).
type Actor struct {
	res *Resources

	Waveform *waveform.Waveform
	Context  *wfcontext.Context

	region blockrange.Region
	rect   blockrange.Rect
	colour uint32
	vzoom  float32
	z      float32
	opacity float32

	animRegionStart transition.Animatable
	animRegionLen   transition.Animatable
	animOpacity     transition.Animatable

	info renderInfo

	// prefetchRequested tracks blocks we've already asked to be loaded at a
	// given mode, so prefetch doesn't spam duplicate requests (the worker's
	// own dedup also protects against this, but this avoids even reaching
	// the worker for blocks already resident).
	prefetchRequested map[prefetchKey]bool
}

type prefetchKey struct {
	mode  wavetypes.Mode
	block int
}

// New creates an actor viewing wf, taking a strong reference on it
// (spec.md §3 Lifecycle: "ref-counted by actors").
func New(res *Resources, wf *waveform.Waveform, ctx *wfcontext.Context) *Actor {
	wf.Retain()
	res.Registry.Register(wf.ID, wf)
	return &Actor{
		res:                res,
		Waveform:           wf,
		Context:            ctx,
		vzoom:              1.0,
		opacity:            1.0,
		prefetchRequested:  make(map[prefetchKey]bool),
	}
}

// SetRegion sets the sample region this actor maps to its rectangle,
// invalidating the memoised render info (spec.md §4.9).
func (a *Actor) SetRegion(start, length int64) {
	a.region = blockrange.Region{Start: start, Len: length}
	a.invalidate()
}

// SetRect sets the screen rectangle.
func (a *Actor) SetRect(left, top, length, height float32) {
	a.rect = blockrange.Rect{Left: left, Top: top, Len: length, Height: height}
	a.invalidate()
}

// SetColour sets the 32-bit RGBA foreground colour; the low byte also
// drives blend opacity (spec.md §4.8).
func (a *Actor) SetColour(rgba uint32) {
	a.colour = rgba
}

// SetVZoom sets the vertical-zoom multiplier, clamped to [1, 100] (spec.md
// §4.8).
func (a *Actor) SetVZoom(v float32) {
	if v < 1 {
		v = 1
	}
	if v > 100 {
		v = 100
	}
	a.vzoom = v
}

// SetZ sets the z-offset used by the scene graph (out of scope beyond this
// scalar, spec.md §1).
func (a *Actor) SetZ(z float32) {
	a.z = z
}

// FadeIn/FadeOut animate opacity via the shared Animatable plumbing
// (spec.md §3, §4.9, C12).
func (a *Actor) FadeIn(d time.Duration) {
	a.animOpacity.Set(a.opacity, 1.0, d, time.Now())
}

func (a *Actor) FadeOut(d time.Duration) {
	a.animOpacity.Set(a.opacity, 0.0, d, time.Now())
}

func (a *Actor) invalidate() {
	a.info.valid = false
}

// Clear detaches the actor from its waveform, releasing the actor's strong
// reference. If this was the last reference, the waveform's peak/audio/
// render data is freed and the texture cache is swept by (waveform,*)
// (spec.md §3 Lifecycle, §6 Actor::clear()).
func (a *Actor) Clear() {
	if a.Waveform == nil {
		return
	}
	id := a.Waveform.ID
	last := a.Waveform.Release()
	if last {
		a.res.Worker.CancelJobs(id)
		a.res.Registry.Unregister(id)
		a.res.AudioCache.RemoveWaveform(id)
		a.res.TexCache.RemoveWaveform(id)
		a.Waveform.ClearHiresPeaks()
		a.Waveform.ClearAllRenderData(func(m wavetypes.Mode, data any) {
			if h := hooks(m); h.Free != nil {
				h.Free(a.res, a.Waveform, data)
			}
		})
	}
	a.Waveform = nil
}

// OnContextLost invalidates all render data for this actor's waveform, the
// GL-context-lost entry point SPEC_FULL.md adds per spec.md's Design Notes
// open question.
func (a *Actor) OnContextLost() {
	a.res.TexCache.InvalidateAll()
	if a.Waveform != nil {
		a.Waveform.ClearAllRenderData(nil)
	}
	a.invalidate()
}

// pixelsPerSample computes z for the current region/rect, or from the
// context zoom when the context is in scaled mode (spec.md §4.6).
func (a *Actor) pixelsPerSample() float32 {
	if a.Context != nil && a.Context.GetScaled() {
		return 1.0 / (a.Context.GetSamplesPerPixel() * a.Context.GetZoom())
	}
	return wfmode.ZoomForRect(a.rect.Len, a.region.Len)
}

// resolveMode computes pixels-per-sample and the selected mode for the
// current region/rect (spec.md §4.6).
func (a *Actor) resolveMode() wavetypes.Mode {
	return wfmode.Select(a.pixelsPerSample())
}

// recomputeRenderInfo refreshes the memoised render info if invalidated
// (spec.md §4.9 step 1).
func (a *Actor) recomputeRenderInfo(vp blockrange.Viewport) {
	z := a.pixelsPerSample()
	if a.info.valid && a.info.region == a.region && a.info.rect == a.rect && a.info.viewport == vp && a.info.zoom == z {
		return
	}
	mode := wfmode.Select(z)
	numBlocks := a.Waveform.NumBlocksForMode(mode)
	rng := blockrange.Calculate(a.region, a.rect, vp, mode, numBlocks)
	a.info = renderInfo{
		valid:      true,
		mode:       mode,
		blockRange: rng,
		region:     a.region,
		rect:       a.rect,
		viewport:   vp,
		zoom:       z,
	}
}

// Draw renders one frame into vp, returning the number of RenderBlock calls
// that found their data not ready. A block that fails at several modes
// counts once per failing mode, including a final failure at V_LOW
// (spec.md §4.8, §4.9).
func (a *Actor) Draw(vp blockrange.Viewport) int {
	if a.Waveform == nil || !a.Waveform.Renderable() {
		return 0
	}
	a.recomputeRenderInfo(vp)
	if !a.info.blockRange.Visible {
		return 0
	}

	fellThrough := 0
	activeMode := wavetypes.Mode(-1)
	for block := a.info.blockRange.First; block <= a.info.blockRange.Last; block++ {
		mode := a.info.mode
		x := blockrange.PixelX(a.region, a.rect, mode, block)
		isFirst := block == a.info.blockRange.First
		isLast := block == a.info.blockRange.Last

		for {
			h := hooks(mode)
			if activeMode != mode {
				h.PreRender(a.res, a)
				activeMode = mode
			}
			ok := h.RenderBlock(a.res, a, block, isFirst, isLast, x)
			if ok {
				break
			}
			a.schedulePrefetch(mode, block) // ensures the retry will eventually succeed
			fellThrough++
			coarser, exists := mode.Coarser()
			if !exists {
				break
			}
			mode = coarser
		}
	}
	return fellThrough
}

// schedulePrefetch requests background loading for (mode, block) at most
// once per actor, so a later frame can succeed at the originally-requested
// mode (spec.md §4.9 step 3).
func (a *Actor) schedulePrefetch(mode wavetypes.Mode, block int) {
	key := prefetchKey{mode, block}
	if a.prefetchRequested[key] {
		return
	}
	a.prefetchRequested[key] = true
	hooks(mode).LoadBlock(a.res, a, block)
}

// PrefetchAnimation walks n preview steps of the region-start animation,
// loading the blocks each intermediate position would need, so blocks
// revealed mid-transition are already loaded when reached (spec.md §4.9,
// Design Notes "Coroutine-style animation preview").
func (a *Actor) PrefetchAnimation(n int, vp blockrange.Viewport) {
	mode := a.resolveMode()
	numBlocks := a.Waveform.NumBlocksForMode(mode)
	a.animRegionStart.PreviewSteps(n, func(start float32) {
		region := blockrange.Region{Start: int64(start), Len: a.region.Len}
		rng := blockrange.Calculate(region, a.rect, vp, mode, numBlocks)
		if !rng.Visible {
			return
		}
		for b := rng.First; b <= rng.Last; b++ {
			a.schedulePrefetch(mode, b)
		}
	})
}
