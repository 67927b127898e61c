package blockrange

import (
	"testing"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

func TestCalculateNotVisibleWhenOffscreen(t *testing.T) {
	region := Region{Start: 0, Len: 1000}
	rect := Rect{Left: 0, Top: 0, Len: 100, Height: 50}
	vp := Viewport{Left: 200, Top: 0, Right: 300, Bottom: 50}
	r := Calculate(region, rect, vp, wavetypes.Med, 10)
	if r.Visible {
		t.Fatalf("expected NotVisible, got %+v", r)
	}
}

func TestCalculateVisibleCoversWholeRegion(t *testing.T) {
	region := Region{Start: 0, Len: int64(wavetypes.SamplesPerTexture(wavetypes.Med)) * 4}
	rect := Rect{Left: 0, Top: 0, Len: 400, Height: 50}
	vp := Viewport{Left: 0, Top: 0, Right: 400, Bottom: 50}
	r := Calculate(region, rect, vp, wavetypes.Med, 4)
	if !r.Visible {
		t.Fatal("expected visible range")
	}
	if r.First != 0 || r.Last != 3 {
		t.Errorf("expected full block range [0,3], got [%d,%d]", r.First, r.Last)
	}
}

func TestCalculateClipsToMaxBlockRange(t *testing.T) {
	numBlocks := wavetypes.MaxBlockRange * 2
	region := Region{Start: 0, Len: int64(wavetypes.SamplesPerTexture(wavetypes.Med)) * int64(numBlocks)}
	rect := Rect{Left: 0, Top: 0, Len: float32(numBlocks), Height: 50}
	vp := Viewport{Left: 0, Top: 0, Right: float32(numBlocks), Bottom: 50}
	r := Calculate(region, rect, vp, wavetypes.Med, numBlocks)
	if !r.Visible {
		t.Fatal("expected visible range")
	}
	if !r.Clipped {
		t.Error("expected Clipped to be true for an oversized range")
	}
	if r.Last-r.First+1 != wavetypes.MaxBlockRange {
		t.Errorf("clipped range should be exactly MaxBlockRange wide, got %d", r.Last-r.First+1)
	}
}

func TestCalculateDegenerateInputs(t *testing.T) {
	vp := Viewport{Left: 0, Top: 0, Right: 100, Bottom: 50}
	if r := Calculate(Region{}, Rect{Len: 100}, vp, wavetypes.Med, 10); r.Visible {
		t.Error("zero-length region should not be visible")
	}
	if r := Calculate(Region{Len: 100}, Rect{}, vp, wavetypes.Med, 10); r.Visible {
		t.Error("zero-length rect should not be visible")
	}
	if r := Calculate(Region{Len: 100}, Rect{Len: 100}, vp, wavetypes.Med, 0); r.Visible {
		t.Error("zero block count should not be visible")
	}
}

func TestPixelXMonotonicWithBlock(t *testing.T) {
	region := Region{Start: 0, Len: 100000}
	rect := Rect{Left: 10, Top: 0, Len: 1000, Height: 50}
	x0 := PixelX(region, rect, wavetypes.Med, 0)
	x1 := PixelX(region, rect, wavetypes.Med, 1)
	if x1 <= x0 {
		t.Errorf("PixelX should increase with block index: x0=%v x1=%v", x0, x1)
	}
}
