// Package blockrange implements the block-range calculator (spec.md §4.7,
// C9): given a region, rectangle, viewport and mode, it resolves which
// blocks need to be drawn this frame.
package blockrange

import "github.com/ayyi/libwaveform-sub002/internal/wavetypes"

// NotVisible is the sentinel Range returned when the region lies entirely
// outside the viewport.
var NotVisible = Range{First: -1, Last: -1, Visible: false}

// Range is an inclusive [First, Last] block index span, or the NotVisible
// sentinel.
type Range struct {
	First, Last int
	Visible     bool
	// Clipped reports whether the true range exceeded MaxBlockRange and was
	// truncated (spec.md §4.7: "the renderer draws only the first 512 and
	// leaves the rest blank").
	Clipped bool
}

// Region is the sample span a view currently maps to its rectangle
// (spec.md §3).
type Region struct {
	Start, Len int64
}

// Rect is the screen rectangle a view draws into (spec.md §3).
type Rect struct {
	Left, Top, Len, Height float32
}

// Viewport is the visible pixel window blocks are clipped against
// (spec.md GLOSSARY).
type Viewport struct {
	Left, Top, Right, Bottom float32
}

// Calculate resolves the first/last block index to draw for mode m, given
// the region/rect mapping and the viewport, clipped to MaxBlockRange.
// numBlocks is the total block count for the active mode (derived from the
// waveform's peak/hires data per spec.md §3).
func Calculate(region Region, rect Rect, vp Viewport, m wavetypes.Mode, numBlocks int) Range {
	if numBlocks <= 0 || region.Len <= 0 || rect.Len <= 0 {
		return NotVisible
	}

	// Project the region onto rect-space, then intersect with the viewport.
	pxPerFrame := rect.Len / float32(region.Len)
	regionLeftPx := rect.Left
	regionRightPx := rect.Left + rect.Len

	visLeft := regionLeftPx
	if vp.Left > visLeft {
		visLeft = vp.Left
	}
	visRight := regionRightPx
	if vp.Right < visRight {
		visRight = vp.Right
	}
	if visLeft >= visRight {
		return NotVisible
	}

	samplesPerTex := wavetypes.SamplesPerTexture(m)
	if samplesPerTex <= 0 {
		return NotVisible
	}
	pxPerTexture := pxPerFrame * float32(samplesPerTex)
	if pxPerTexture <= 0 {
		return NotVisible
	}

	// Frame offsets of the visible pixel span, relative to region.Start.
	firstFrameOffset := (visLeft - regionLeftPx) / pxPerFrame
	lastFrameOffset := (visRight - regionLeftPx) / pxPerFrame

	first := int((float32(region.Start) + firstFrameOffset) / float32(samplesPerTex))
	last := int((float32(region.Start) + lastFrameOffset) / float32(samplesPerTex))
	if first < 0 {
		first = 0
	}
	if last >= numBlocks {
		last = numBlocks - 1
	}
	if first > last {
		return NotVisible
	}

	clipped := false
	if last-first+1 > wavetypes.MaxBlockRange {
		last = first + wavetypes.MaxBlockRange - 1
		clipped = true
	}

	return Range{First: first, Last: last, Visible: true, Clipped: clipped}
}

// PixelX returns the x coordinate, in rect-space, of the left edge of
// block index relative to the region/rect mapping for mode m.
func PixelX(region Region, rect Rect, m wavetypes.Mode, block int) float32 {
	samplesPerTex := wavetypes.SamplesPerTexture(m)
	pxPerFrame := rect.Len / float32(region.Len)
	blockStartFrame := int64(block) * int64(samplesPerTex)
	return rect.Left + float32(blockStartFrame-region.Start)*pxPerFrame
}
