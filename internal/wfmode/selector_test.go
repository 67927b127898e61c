package wfmode

import (
	"testing"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

func TestSelectThresholds(t *testing.T) {
	cases := []struct {
		z    float32
		want wavetypes.Mode
	}{
		{0, wavetypes.VLow},
		{ThresholdLow, wavetypes.VLow},
		{ThresholdLow + 0.0000001, wavetypes.Low},
		{ThresholdMed, wavetypes.Low},
		{ThresholdMed + 0.0000001, wavetypes.Med},
		{ThresholdHi, wavetypes.Med},
		{ThresholdHi + 0.0000001, wavetypes.Hi},
		{ThresholdVHi, wavetypes.Hi},
		{ThresholdVHi + 0.0001, wavetypes.VHi},
		{1000, wavetypes.VHi},
	}
	for _, c := range cases {
		got := Select(c.z)
		if got != c.want {
			t.Errorf("Select(%v) = %v, want %v", c.z, got, c.want)
		}
	}
}

func TestSelectMonotonic(t *testing.T) {
	prev := Select(0)
	for _, z := range []float32{0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10} {
		cur := Select(z)
		if cur < prev {
			t.Errorf("mode regressed as z increased: Select(%v) = %v after %v", z, cur, prev)
		}
		prev = cur
	}
}

func TestZoomForRect(t *testing.T) {
	if z := ZoomForRect(100, 0); z != 0 {
		t.Errorf("ZoomForRect with zero region should be 0, got %v", z)
	}
	if z := ZoomForRect(200, 100); z != 2 {
		t.Errorf("ZoomForRect(200, 100) = %v, want 2", z)
	}
}

func TestRangeOrdering(t *testing.T) {
	modes := Range(wavetypes.Hi, wavetypes.VLow)
	if len(modes) != 5 {
		t.Fatalf("Range should cover all 5 modes, got %d", len(modes))
	}
	for i := 1; i < len(modes); i++ {
		if modes[i] <= modes[i-1] {
			t.Errorf("Range not ascending at index %d: %v <= %v", i, modes[i], modes[i-1])
		}
	}
}
