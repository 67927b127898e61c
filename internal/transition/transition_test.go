package transition

import (
	"testing"
	"time"
)

func TestSetWithZeroDurationJumpsImmediately(t *testing.T) {
	var a Animatable
	now := time.Now()
	a.Set(0, 10, 0, now)
	if !a.Done(now) {
		t.Fatal("a zero-duration Set should be immediately Done")
	}
	if v := a.Value(now); v != 10 {
		t.Fatalf("Value = %v, want 10", v)
	}
}

func TestValueInterpolatesMidway(t *testing.T) {
	var a Animatable
	now := time.Now()
	a.Set(0, 100, time.Second, now)
	mid := now.Add(500 * time.Millisecond)
	v := a.Value(mid)
	if v < 45 || v > 55 {
		t.Fatalf("Value at midpoint = %v, want ~50", v)
	}
	if a.Done(mid) {
		t.Fatal("animation should not be done at the midpoint")
	}
}

func TestValueClampsToEndAfterDuration(t *testing.T) {
	var a Animatable
	now := time.Now()
	a.Set(0, 100, time.Second, now)
	later := now.Add(2 * time.Second)
	if v := a.Value(later); v != 100 {
		t.Fatalf("Value after duration = %v, want 100", v)
	}
	if !a.Done(later) {
		t.Fatal("animation should be done once elapsed >= duration")
	}
}

func TestTargetReflectsEndMidFlight(t *testing.T) {
	var a Animatable
	now := time.Now()
	a.Set(0, 42, time.Second, now)
	if a.Target() != 42 {
		t.Fatalf("Target = %v, want 42", a.Target())
	}
}

func TestPreviewStepsCoversEndpoints(t *testing.T) {
	var a Animatable
	now := time.Now()
	a.Set(0, 10, time.Second, now)

	var got []float32
	a.PreviewSteps(3, func(v float32) { got = append(got, v) })

	if len(got) != 3 {
		t.Fatalf("got %d steps, want 3", len(got))
	}
	if got[0] != 0 {
		t.Errorf("first step = %v, want 0", got[0])
	}
	if got[2] != 10 {
		t.Errorf("last step = %v, want 10", got[2])
	}
}

func TestPreviewStepsSingleVisitsEnd(t *testing.T) {
	var a Animatable
	a.Set(0, 10, time.Second, time.Now())
	var got float32 = -1
	a.PreviewSteps(1, func(v float32) { got = v })
	if got != 10 {
		t.Fatalf("single preview step = %v, want end value 10", got)
	}
}

func TestPreviewStepsZeroIsNoOp(t *testing.T) {
	var a Animatable
	a.Set(0, 10, time.Second, time.Now())
	called := false
	a.PreviewSteps(0, func(v float32) { called = true })
	if called {
		t.Fatal("PreviewSteps(0, ...) should not invoke visit")
	}
}

func TestDoneWithoutSetIsTrue(t *testing.T) {
	var a Animatable
	if !a.Done(time.Now()) {
		t.Fatal("a never-Set Animatable should report Done")
	}
}
