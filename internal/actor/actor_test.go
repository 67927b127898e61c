package actor

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/ayyi/libwaveform-sub002/internal/audiocache"
	"github.com/ayyi/libwaveform-sub002/internal/blockrange"
	"github.com/ayyi/libwaveform-sub002/internal/peakcache"
	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/texcache"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
	"github.com/ayyi/libwaveform-sub002/internal/wfref"
	"github.com/ayyi/libwaveform-sub002/internal/worker"
)

// fakeGL records draw calls instead of touching a real GL context.
type fakeGL struct {
	uploads1D   int
	uploadsA    int
	drawColumns int
}

func (f *fakeGL) UploadAlpha(tex texcache.TextureID, width, height int, data []byte) {
	f.uploadsA++
}
func (f *fakeGL) Upload1D(tex texcache.TextureID, data []int16) { f.uploads1D++ }
func (f *fakeGL) DrawColumns(tex texcache.TextureID, x, width float32, colour uint32, vzoom float32) {
	f.drawColumns++
}

func newTestResources(t *testing.T, gl *fakeGL) *Resources {
	t.Helper()
	w := worker.New[*waveform.Waveform](worker.RunInline, zerolog.Nop(), 8)
	pc, err := peakcache.New(zerolog.Nop(), w)
	if err != nil {
		t.Fatalf("peakcache.New: %v", err)
	}
	return &Resources{
		PeakCache:  pc,
		AudioCache: audiocache.New(1 << 20, zerolog.Nop()),
		TexCache:   texcache.New([]texcache.TextureID{1, 2, 3, 4}, nil),
		Worker:     w,
		Registry:   wfref.NewRegistry[*waveform.Waveform](),
		GL:         gl,
		Logger:     zerolog.Nop(),
	}
}

// medRegionFor returns a region/rect/viewport that spans exactly numBlocks
// blocks at wavetypes.Med.
func medRegionFor(numBlocks int) (blockrange.Region, blockrange.Rect, blockrange.Viewport) {
	samplesPerTex := int64(wavetypes.SamplesPerTexture(wavetypes.Med))
	region := blockrange.Region{Start: 0, Len: samplesPerTex * int64(numBlocks)}
	width := float32(100 * numBlocks)
	rect := blockrange.Rect{Left: 0, Top: 0, Len: width, Height: 50}
	vp := blockrange.Viewport{Left: 0, Top: 0, Right: width, Bottom: 50}
	return region, rect, vp
}

func TestDrawRendersSuccessfullyWhenPeakDataIsResident(t *testing.T) {
	gl := &fakeGL{}
	res := newTestResources(t, gl)

	wf := waveform.New("/nonexistent/test.wav")
	samplesPerTex := int64(wavetypes.SamplesPerTexture(wavetypes.Med))
	wf.SetAudioInfo(samplesPerTex, 1, 44100)
	wf.SetPeak(&peakfile.File{NChannels: 1, NumPeaks: 100000, Peaks: make([]int16, 100000*2)})

	a := New(res, wf, nil)
	defer a.Clear()
	region, rect, vp := medRegionFor(1)
	a.SetRegion(region.Start, region.Len)
	a.SetRect(rect.Left, rect.Top, rect.Len, rect.Height)

	fellThrough := a.Draw(vp)
	if fellThrough != 0 {
		t.Fatalf("fellThrough = %d, want 0 when peak data is resident", fellThrough)
	}
	if gl.drawColumns == 0 {
		t.Fatal("expected at least one DrawColumns call")
	}
}

func TestDrawFallsThroughLoresModesWhenPeakDataIsMissing(t *testing.T) {
	gl := &fakeGL{}
	res := newTestResources(t, gl)

	wf := waveform.New("/nonexistent/test.wav")
	samplesPerTex := int64(wavetypes.SamplesPerTexture(wavetypes.Med))
	wf.SetAudioInfo(samplesPerTex, 1, 44100)
	// No peakfile installed: every lores mode's RenderBlock must fail.

	a := New(res, wf, nil)
	defer a.Clear()
	region, rect, vp := medRegionFor(1)
	a.SetRegion(region.Start, region.Len)
	a.SetRect(rect.Left, rect.Top, rect.Len, rect.Height)

	fellThrough := a.Draw(vp)
	// Starting at MED with no coarer limit beyond V_LOW: MED, LOW, V_LOW
	// each fail once before the loop gives up at V_LOW (no coarser mode).
	if fellThrough != 3 {
		t.Fatalf("fellThrough = %d, want 3 (MED, LOW, V_LOW each failing once)", fellThrough)
	}
	if gl.drawColumns != 0 {
		t.Fatalf("expected no successful draw calls, got %d", gl.drawColumns)
	}
}

func TestDrawIsNoOpWhenNotRenderable(t *testing.T) {
	gl := &fakeGL{}
	res := newTestResources(t, gl)

	wf := waveform.New("/nonexistent/test.wav")
	wf.SetRenderable(false)

	a := New(res, wf, nil)
	defer a.Clear()
	region, rect, vp := medRegionFor(1)
	a.SetRegion(region.Start, region.Len)
	a.SetRect(rect.Left, rect.Top, rect.Len, rect.Height)

	if n := a.Draw(vp); n != 0 {
		t.Fatalf("Draw on a non-renderable waveform returned %d, want 0", n)
	}
	if gl.drawColumns != 0 {
		t.Fatal("a non-renderable waveform should never reach a render hook")
	}
}

func TestClearReleasesLastReferenceAndSweepsCaches(t *testing.T) {
	gl := &fakeGL{}
	res := newTestResources(t, gl)

	wf := waveform.New("/nonexistent/test.wav")
	a := New(res, wf, nil)
	id := wf.ID

	if _, ok := res.Registry.Resolve(id); !ok {
		t.Fatal("New should register the waveform with the registry")
	}
	key := texcache.Key{Waveform: id, Block: 0, Class: wavetypes.ResClassForMode(wavetypes.Med)}
	res.TexCache.AssignNew(key)
	res.AudioCache.Insert(id, 0, &wavetypes.AudioBlock{Channels: [][]int16{make([]int16, 16)}})

	a.Clear()
	if _, ok := res.Registry.Resolve(id); ok {
		t.Fatal("Clear should unregister the waveform once the last reference drops")
	}
	if _, ok := res.TexCache.Lookup(key); ok {
		t.Fatal("Clear should sweep the waveform's texture-cache slots")
	}
	if res.AudioCache.Has(id, 0) {
		t.Fatal("Clear should sweep the waveform's audio-cache blocks")
	}
	if a.Waveform != nil {
		t.Fatal("Clear should detach the actor's waveform pointer")
	}
}

func TestOnContextLostInvalidatesTextureCacheAndRenderData(t *testing.T) {
	gl := &fakeGL{}
	res := newTestResources(t, gl)

	wf := waveform.New("/nonexistent/test.wav")
	a := New(res, wf, nil)
	defer a.Clear()

	key := texcache.Key{Waveform: wf.ID, Block: 0, Class: wavetypes.ResClassForMode(wavetypes.Med)}
	tex := res.TexCache.AssignNew(key)
	_ = tex
	wf.RenderData(wavetypes.Med, func() any { return true })

	a.OnContextLost()

	if _, ok := res.TexCache.Lookup(key); ok {
		t.Fatal("OnContextLost should invalidate every texture-cache slot")
	}
	reallocated := false
	wf.RenderData(wavetypes.Med, func() any { reallocated = true; return true })
	if !reallocated {
		t.Fatal("OnContextLost should clear the waveform's render data")
	}
}
