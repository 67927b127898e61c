// Package runtime assembles the library's shared subsystems into one
// explicit Runtime value (spec.md Design Notes: an explicit dependency
// bundle rather than the reference implementation's process-global `wf`
// singleton, so multiple independent instances — e.g. in tests — never
// share state by accident).
package runtime

import (
	"github.com/rs/zerolog"

	"github.com/ayyi/libwaveform-sub002/internal/actor"
	"github.com/ayyi/libwaveform-sub002/internal/audiocache"
	"github.com/ayyi/libwaveform-sub002/internal/decoder"
	"github.com/ayyi/libwaveform-sub002/internal/peakcache"
	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/texcache"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
	"github.com/ayyi/libwaveform-sub002/internal/wfcontext"
	"github.com/ayyi/libwaveform-sub002/internal/wfref"
	"github.com/ayyi/libwaveform-sub002/internal/worker"
)

// Options configures a Runtime at construction time.
type Options struct {
	Logger          zerolog.Logger
	GL              actor.GLBackend
	TextureHandles  []texcache.TextureID // one per texcache slot, per resolution class total
	AudioCacheShort int                  // 0 uses wavetypes.AudioCacheMaxShorts
	WorkerQueue     int                  // 0 uses a default of 256
	Dispatch        worker.Dispatcher    // nil uses worker.RunInline
}

// Runtime owns every shared subsystem a host application needs to load
// waveforms and create actors against them (spec.md §6 "Render context
// interface produced by the core").
type Runtime struct {
	logger zerolog.Logger

	PeakCache  *peakcache.Cache
	AudioCache *audiocache.Cache
	TexCache   *texcache.Cache
	Worker     *worker.Worker[*waveform.Waveform]
	Registry   *wfref.Registry[*waveform.Waveform]
	Context    *wfcontext.Context

	res *actor.Resources
}

// New constructs a Runtime. sampleRate/samplesPerPixel seed the shared
// Context (spec.md §3, C11).
func New(opts Options, sampleRate uint32, samplesPerPixel float32) (*Runtime, error) {
	if opts.AudioCacheShort == 0 {
		opts.AudioCacheShort = wavetypes.AudioCacheMaxShorts
	}
	if opts.WorkerQueue == 0 {
		opts.WorkerQueue = 256
	}
	if opts.Dispatch == nil {
		opts.Dispatch = worker.RunInline
	}

	w := worker.New[*waveform.Waveform](opts.Dispatch, opts.Logger, opts.WorkerQueue)

	peakCache, err := peakcache.New(opts.Logger, w)
	if err != nil {
		w.Shutdown()
		return nil, err
	}

	r := &Runtime{
		logger:     opts.Logger,
		PeakCache:  peakCache,
		AudioCache: audiocache.New(opts.AudioCacheShort, opts.Logger),
		TexCache:   texcache.New(opts.TextureHandles, nil),
		Worker:     w,
		Registry:   wfref.NewRegistry[*waveform.Waveform](),
		Context:    wfcontext.New(sampleRate, samplesPerPixel),
	}
	r.res = &actor.Resources{
		PeakCache:  r.PeakCache,
		AudioCache: r.AudioCache,
		TexCache:   r.TexCache,
		Worker:     r.Worker,
		Registry:   r.Registry,
		GL:         opts.GL,
		Logger:     opts.Logger,
	}
	return r, nil
}

// Load decodes path in full through the decoder facade to learn its frame
// count, channel count and sample rate, and returns a new Waveform identity
// for it; the decoded samples are not kept. On any open or decode error the
// waveform is returned marked offline and not renderable, together with the
// error. Peak data loads lazily on first actor draw (spec.md §3 Lifecycle).
func (r *Runtime) Load(path string) (*waveform.Waveform, error) {
	facade, err := decoder.OpenSplitStereo(path)
	if err != nil {
		wf := waveform.New(path)
		wf.SetOffline(true)
		wf.SetRenderable(false)
		return wf, err
	}
	wf := waveform.New(path)
	wf.SetAudioInfo(facade.NFrames, facade.NChannels, facade.SampleRate)
	return wf, nil
}

// NewActor creates an actor viewing wf, wired to this Runtime's shared
// subsystems (spec.md §3, C10).
func (r *Runtime) NewActor(wf *waveform.Waveform) *actor.Actor {
	return actor.New(r.res, wf, r.Context)
}

// PreloadPeaks explicitly requests peakfile loading/generation for wf
// ahead of the first draw, matching spec.md §6's "peakfile loading is
// requested explicitly" path. The loaded peakfile is installed on wf, or
// the failure reported through its peaks promise, from a completion
// callback that runs on the dispatcher supplied at construction.
func (r *Runtime) PreloadPeaks(wf *waveform.Waveform) {
	weak := r.Registry.Weak(wf.ID)
	r.Registry.Register(wf.ID, wf)
	r.PeakCache.EnsureAsync(wf.Filename, wf.NFrames(), wf.NChannels(), func(path string, err error) {
		v, ok := weak.Resolve()
		if !ok {
			return
		}
		if err != nil {
			v.SetRenderable(false)
			v.NotifyPeaksError(err)
			return
		}
		pf, err := peakfile.ReadFile(path, v.NFrames())
		if err != nil {
			v.SetRenderable(false)
			v.NotifyPeaksError(err)
			return
		}
		v.SetPeak(pf)
	})
}

// OnContextLost propagates a GL context loss to the texture cache, dropping
// every slot binding without touching the underlying handles so a fresh
// context can reuse them.
func (r *Runtime) OnContextLost() {
	r.TexCache.InvalidateAll()
}

// Shutdown stops the background worker goroutine.
func (r *Runtime) Shutdown() {
	r.Worker.Shutdown()
}
