// Package wfmode implements the render-mode selector (spec.md §4.6, C8): it
// maps pixels-per-sample to one of five discrete resolution regimes.
package wfmode

import "github.com/ayyi/libwaveform-sub002/internal/wavetypes"

// Threshold zoom values (pixels-per-sample). Each is the upper (inclusive)
// bound of the mode below it, per the table in spec.md §4.6.
const (
	ThresholdVHi = 1.0 / 16.0
	ThresholdHi  = 1.0 / 256.0
	ThresholdMed = 1.0 / 4096.0
	ThresholdLow = 1.0 / 65536.0
)

// Select returns the mode for a given pixels-per-sample value z, following
// the "inclusive on the upper side" rule in spec.md §4.6: z > threshold
// moves up a mode, so a z exactly on a threshold selects the coarser (lower)
// mode it bounds.
func Select(z float32) wavetypes.Mode {
	switch {
	case z > ThresholdVHi:
		return wavetypes.VHi
	case z > ThresholdHi:
		return wavetypes.Hi
	case z > ThresholdMed:
		return wavetypes.Med
	case z > ThresholdLow:
		return wavetypes.Low
	default:
		return wavetypes.VLow
	}
}

// ZoomForRect derives pixels-per-sample from a rectangle width and a region
// length in frames (spec.md §4.6: "z... derived from rectangle width
// divided by region length").
func ZoomForRect(rectWidth float32, regionLen int64) float32 {
	if regionLen <= 0 {
		return 0
	}
	return rectWidth / float32(regionLen)
}

// Range returns every mode between two endpoints inclusive, ordered from
// coarsest to finest. Used to pre-warm the full span of modes an animation
// will pass through (spec.md §4.6: "the range of modes is pre-warmed").
func Range(a, b wavetypes.Mode) []wavetypes.Mode {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	modes := make([]wavetypes.Mode, 0, int(hi-lo)+1)
	for m := lo; m <= hi; m++ {
		modes = append(modes, m)
	}
	return modes
}
