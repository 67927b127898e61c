package actor

import (
	"fmt"

	"github.com/ayyi/libwaveform-sub002/internal/decoder"
	"github.com/ayyi/libwaveform-sub002/internal/hires"
	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/texcache"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
)

// ModeHooks is the per-mode renderer vtable (spec.md §4.8, §4.9), holding
// load_block, pre_render, render_block and free hooks; there is no "new"
// hook, and no mode currently sets Free. Modelled as a struct of function fields indexed by an array below rather
// than a Go interface — the set of modes is closed and known at compile
// time, so there is no dynamic dispatch to box (SPEC_FULL.md Design Notes:
// "a tagged variant, not boxed trait objects").
type ModeHooks struct {
	// LoadBlock kicks off whatever background work block needs (peakfile
	// generation, or a hi-res worker job) without blocking the draw loop.
	LoadBlock func(res *Resources, a *Actor, block int)
	// PreRender runs once per mode switch within a single Draw call, before
	// the first RenderBlock at that mode.
	PreRender func(res *Resources, a *Actor)
	// RenderBlock draws block's texture if the data it needs is resident,
	// returning false to signal the draw loop should fall back a mode.
	RenderBlock func(res *Resources, a *Actor, block int, isFirst, isLast bool, x float32) bool
	// Free releases a mode's renderData handle (spec.md §3 invariant).
	Free func(res *Resources, wf *waveform.Waveform, data any)
}

var modeHooks [wavetypes.NumModes]ModeHooks

func init() {
	lores := ModeHooks{
		LoadBlock:   loresLoadBlock,
		PreRender:   loresPreRender,
		RenderBlock: loresRenderBlock,
	}
	modeHooks[wavetypes.VLow] = lores
	modeHooks[wavetypes.Low] = lores
	modeHooks[wavetypes.Med] = lores

	hiresHooks := ModeHooks{
		LoadBlock:   hiresLoadBlock,
		PreRender:   hiresPreRender,
		RenderBlock: hiresRenderBlock,
	}
	modeHooks[wavetypes.Hi] = hiresHooks
	modeHooks[wavetypes.VHi] = hiresHooks
}

// hooks returns the renderer vtable for m.
func hooks(m wavetypes.Mode) ModeHooks {
	return modeHooks[m]
}

// --- V_LOW / LOW / MED: synchronous, peakfile-backed -----------------------

// loresLoadBlock ensures the waveform's low-resolution peakfile is loading
// or loaded. There is nothing block-specific to request: the whole
// peakfile loads (or is generated) as one unit (spec.md §4.1).
func loresLoadBlock(res *Resources, a *Actor, block int) {
	if a.Waveform.Peak() != nil {
		return
	}
	wf := a.Waveform
	weak := res.weakFor(wf)
	res.PeakCache.EnsureAsync(wf.Filename, wf.NFrames(), wf.NChannels(), func(path string, err error) {
		v, ok := weak.Resolve()
		if !ok {
			return
		}
		if err != nil {
			v.SetRenderable(false)
			v.NotifyPeaksError(err)
			res.Logger.Warn().Err(err).Str("file", wf.Filename).Msg("peakfile unavailable")
			return
		}
		pf, err := peakfile.ReadFile(path, v.NFrames())
		if err != nil {
			v.SetRenderable(false)
			v.NotifyPeaksError(err)
			res.Logger.Warn().Err(err).Str("file", wf.Filename).Msg("peakfile load failed")
			return
		}
		v.SetPeak(pf)
	})
}

func loresPreRender(res *Resources, a *Actor) {
	// No shared per-mode state to prepare beyond the texture cache lookups
	// RenderBlock performs per block.
}

// loresRenderBlock draws one block's texture from the low-resolution
// peakfile, decimating further for LOW/V_LOW (spec.md §4.6: block counts
// and column widths vary by mode even though they share one underlying
// peak array).
func loresRenderBlock(res *Resources, a *Actor, block int, isFirst, isLast bool, x float32) bool {
	pf := a.Waveform.Peak()
	if pf == nil {
		return false
	}

	mode := a.info.mode
	samplesPerTex := wavetypes.SamplesPerTexture(mode)
	framesPerCol := wavetypes.FramesPerColumn(mode)
	peaksPerCol := framesPerCol / wavetypes.WfPeakRatio
	if peaksPerCol < 1 {
		peaksPerCol = 1
	}
	startFrame := int64(block) * int64(samplesPerTex)
	startPeak := int(startFrame / wavetypes.WfPeakRatio)
	numCols := wavetypes.WfPeakTextureSize - 2*wavetypes.Border(mode)
	if startPeak >= pf.NumPeaks {
		return false
	}

	key := texcache.Key{Waveform: a.Waveform.ID, Block: block, Class: wavetypes.ResClassForMode(mode)}
	tex, ok := res.TexCache.Lookup(key)
	if !ok {
		data := peakColumns(pf, startPeak, peaksPerCol, numCols, 0)
		tex = res.TexCache.AssignNew(key)
		if mode == wavetypes.Med {
			res.GL.UploadAlpha(tex, numCols, 1, packAlpha(data))
		} else {
			res.GL.Upload1D(tex, data)
		}
	}
	a.Waveform.RenderData(mode, func() any { return true })
	res.GL.DrawColumns(tex, x, float32(numCols), a.colour, a.vzoom)
	return true
}

// peakColumns decimates pf's 256:1 peak array into numCols wider columns,
// each the min/max over peaksPerCol consecutive peak pairs — the same
// windowed min/max reduction the hi-res builder uses one layer down
// (internal/hires.Build), applied here to the coarser peakfile array
// instead of raw audio samples.
func peakColumns(pf *peakfile.File, startPeak, peaksPerCol, numCols, ch int) []int16 {
	out := make([]int16, numCols*2)
	for col := 0; col < numCols; col++ {
		base := startPeak + col*peaksPerCol
		var max, min int16
		seen := false
		for i := 0; i < peaksPerCol; i++ {
			idx := base + i
			if idx < 0 || idx >= pf.NumPeaks {
				continue
			}
			mx, mn := pf.MaxMin(ch, idx)
			if !seen {
				max, min, seen = mx, mn, true
				continue
			}
			if mx > max {
				max = mx
			}
			if mn < min {
				min = mn
			}
		}
		out[col*2] = max
		out[col*2+1] = min
	}
	return out
}

// --- HI / V_HI: asynchronous, audio-block + hi-res-peakbuf-backed ---------

// hiresLoadBlock enqueues a worker job that decodes the audio block (if not
// already cached), downsamples it into a Peakbuf at the tier the mode
// needs, and fires the waveform's hires-ready subscribers (spec.md §4.3,
// §4.4, §5).
func hiresLoadBlock(res *Resources, a *Actor, block int) {
	mode := a.info.mode
	tier := wavetypes.TierForMode(mode)
	wf := a.Waveform

	if pb, ok := wf.HiresPeak(block); ok && hires.Satisfies(pb, tier) {
		return
	}

	dedup := hiresJobKey{wf: wf.ID, block: block, tier: tier}
	weak := res.weakFor(wf)
	res.Worker.PushJob(wf.ID, weak, dedup,
		func(v *waveform.Waveform) {
			blk, ok := res.AudioCache.Get(v.ID, block)
			if !ok {
				built, err := loadAudioBlock(v, block)
				if err != nil {
					res.Logger.Warn().Err(err).Str("file", v.Filename).Int("block", block).Msg("audio block load failed")
					return
				}
				blk = built
				res.AudioCache.Insert(v.ID, block, blk)
			}
			pb := hires.Build(blk, block, tier)
			v.SetHiresPeak(block, pb)
		},
		func(v *waveform.Waveform) {
			v.NotifyHiresReady(block)
		},
		nil,
	)
}

// loadAudioBlock decodes the 65536-frame block at blockIndex from the
// waveform's underlying audio file (spec.md §4.2), trying the split-stereo
// sibling convention before a plain open.
func loadAudioBlock(wf *waveform.Waveform, blockIndex int) (*wavetypes.AudioBlock, error) {
	facade, err := decoder.OpenSplitStereo(wf.Filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", wf.Filename, err)
	}
	offset := int64(blockIndex) * wavetypes.WfPeakBlockSize
	channels := facade.ReadFrames(offset, wavetypes.WfPeakBlockSize)
	return &wavetypes.AudioBlock{Channels: channels}, nil
}

func hiresPreRender(res *Resources, a *Actor) {
	// Nothing to prepare ahead of RenderBlock beyond the per-block texture
	// lookups below.
}

// hiresRenderBlock draws one block's texture from its cached Peakbuf,
// falling back (returning false) if the block has not been downsampled at
// a satisfying resolution yet.
func hiresRenderBlock(res *Resources, a *Actor, block int, isFirst, isLast bool, x float32) bool {
	mode := a.info.mode
	tier := wavetypes.TierForMode(mode)
	pb, ok := a.Waveform.HiresPeak(block)
	if !ok || !hires.Satisfies(pb, tier) {
		return false
	}

	key := texcache.Key{Waveform: a.Waveform.ID, Block: block, Class: wavetypes.ResClassForMode(mode)}
	tex, ok := res.TexCache.Lookup(key)
	if !ok {
		ch := 0
		if ch >= len(pb.Channels) {
			return false
		}
		tex = res.TexCache.AssignNew(key)
		res.GL.UploadAlpha(tex, pb.Size()/2, 1, packAlpha(pb.Channels[ch]))
	}
	a.Waveform.RenderData(mode, func() any { return true })
	res.GL.DrawColumns(tex, x, float32(pb.Size()/2), a.colour, a.vzoom)
	return true
}

// packAlpha compresses interleaved (max,min) int16 pairs into a one-byte-
// per-pair alpha column the shader's rasteriser expands, normalising each
// pair's span to the 0-255 range.
func packAlpha(pairs []int16) []byte {
	out := make([]byte, len(pairs)/2)
	for i := range out {
		max, min := pairs[i*2], pairs[i*2+1]
		span := int32(max) - int32(min)
		if span < 0 {
			span = -span
		}
		out[i] = byte(span * 255 / 65535)
	}
	return out
}
