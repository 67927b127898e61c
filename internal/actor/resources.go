// Package actor implements the waveform actor (spec.md §3, §4.8, §4.9,
// §4.10, C10): per-view state plus the per-mode renderer hooks
// (load_block/pre_render/render_block/free) the draw loop dispatches
// through, falling back to a coarser mode per block when data is not
// ready. There is no separate "new" hook: a mode's render data is allocated
// by its RenderBlock on first successful render.
package actor

import (
	"github.com/rs/zerolog"

	"github.com/ayyi/libwaveform-sub002/internal/audiocache"
	"github.com/ayyi/libwaveform-sub002/internal/peakcache"
	"github.com/ayyi/libwaveform-sub002/internal/texcache"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
	"github.com/ayyi/libwaveform-sub002/internal/wfref"
	"github.com/ayyi/libwaveform-sub002/internal/worker"
)

// GLBackend is the external GL collaborator the core treats as a black box
// (spec.md §1 Non-goals: "Shader programs and the specific vertex/uniform
// layouts; treat them as black boxes invoked by mode"). A real host
// application supplies a GL-backed implementation; tests use a recording
// fake.
type GLBackend interface {
	// UploadAlpha loads a 2D alpha map (MED/HI/V_HI modes) produced by
	// rasterising min/max peaks into columns, one column per peak pair.
	UploadAlpha(tex texcache.TextureID, width, height int, data []byte)
	// Upload1D loads raw min/max values (LOW/V_LOW in shader mode) that the
	// shader expands into geometry.
	Upload1D(tex texcache.TextureID, data []int16)
	// DrawColumns emits the actual draw call for one block's texture.
	DrawColumns(tex texcache.TextureID, x, width float32, colour uint32, vzoom float32)
}

// Resources is the set of shared subsystems an Actor's renderers draw on —
// the explicit Runtime dependency SPEC_FULL.md's Design Notes call for in
// place of the reference implementation's global `wf` singleton.
type Resources struct {
	PeakCache  *peakcache.Cache
	AudioCache *audiocache.Cache
	TexCache   *texcache.Cache
	Worker     *worker.Worker[*waveform.Waveform]
	Registry   *wfref.Registry[*waveform.Waveform]
	GL         GLBackend
	Logger     zerolog.Logger
}

// weakFor mints a weak reference to wf through this Resources' registry.
func (r *Resources) weakFor(wf *waveform.Waveform) wfref.WeakRef[*waveform.Waveform] {
	return r.Registry.Weak(wf.ID)
}

// hiresJobKey is the dedup key the worker scans pending jobs for (spec.md
// §5: "before enqueuing a (waveform, block) hi-res job, the queue is
// scanned").
type hiresJobKey struct {
	wf    wavetypes.WaveformID
	block int
	tier  wavetypes.Tier
}
