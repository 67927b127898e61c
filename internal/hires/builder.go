// Package hires implements the hi-res peak builder (spec.md §4.3, C5): it
// downsamples a loaded audio block into a higher-resolution-than-peakfile
// Peakbuf.
//
// Generalises a min/max-over-window reduction from "N buckets over the
// whole file" to "one (max,min) pair per `resolution` frames over one
// block".
package hires

import (
	"math"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

// validResolutions are the only resolutions the builder will construct,
// per spec.md §3 ("resolution is a power of two <= 256") restricted to the
// hires (finer-than-peakfile) range named in spec.md §4.3.
var validResolutions = []int{1, 2, 4, 8, 16}

// ResolutionForRequest chooses the coarsest buildable resolution that still
// satisfies tier t: the largest frames-per-pair value among 1, 2, 4, 8 and
// 16 that is not above the tier's ratio (spec.md §4.3: "typically 16:1 for
// HI mode, 1:1 for V_HI").
func ResolutionForRequest(t wavetypes.Tier) int {
	want := wavetypes.ResolutionForTier(t)
	best := validResolutions[0]
	for _, r := range validResolutions {
		if r <= want {
			best = r
		}
	}
	return best
}

// Build downsamples one loaded audio block into a Peakbuf at the resolution
// ResolutionForRequest picks for tier t. The resulting buffer is sized
// (65536/resolution)*2 shorts per channel (spec.md §3, §4.3).
func Build(block *wavetypes.AudioBlock, blockIndex int, t wavetypes.Tier) *wavetypes.Peakbuf {
	resolution := ResolutionForRequest(t)
	pairsPerChannel := wavetypes.WfPeakBlockSize / resolution

	pb := &wavetypes.Peakbuf{
		Block:      blockIndex,
		Resolution: resolution,
		Channels:   make([][]int16, len(block.Channels)),
	}

	var peakLevel int32
	for c, samples := range block.Channels {
		buf := make([]int16, pairsPerChannel*2)
		for i := 0; i < pairsPerChannel; i++ {
			start := i * resolution
			end := start + resolution
			if start >= len(samples) {
				break
			}
			if end > len(samples) {
				end = len(samples)
			}
			max, min := minMax(samples[start:end])
			buf[i*2] = max
			buf[i*2+1] = min
			if a := abs16(max); a > peakLevel {
				peakLevel = a
			}
			if a := abs16(min); a > peakLevel {
				peakLevel = a
			}
		}
		pb.Channels[c] = buf
	}
	if peakLevel > math.MaxInt16 {
		peakLevel = math.MaxInt16
	}
	pb.PeakLevel = int16(peakLevel)
	return pb
}

// Satisfies reports whether a Peakbuf already built at its own resolution
// can answer a request for tier t without rebuilding: "higher-resolution
// Peakbufs may satisfy lower-resolution requests without regeneration"
// (spec.md §4.3) — a smaller Resolution value is higher resolution.
func Satisfies(pb *wavetypes.Peakbuf, t wavetypes.Tier) bool {
	return pb.Resolution <= ResolutionForRequest(t)
}

func minMax(samples []int16) (max, min int16) {
	max, min = samples[0], samples[0]
	for _, s := range samples[1:] {
		if s > max {
			max = s
		}
		if s < min {
			min = s
		}
	}
	return max, min
}

// abs16 widens to int32 before negating: int16's two's-complement range has
// no positive counterpart for math.MinInt16, so abs(-32768) must not be
// computed in int16 or it wraps back to -32768 instead of 32768.
func abs16(v int16) int32 {
	w := int32(v)
	if w < 0 {
		return -w
	}
	return w
}
