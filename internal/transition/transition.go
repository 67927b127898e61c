// Package transition implements the minimal animatable-property plumbing
// the actor uses to interpolate region/rect/opacity/z (spec.md §3 Context,
// §4.9, C12), grounded on
// original_source/waveform/transition_behaviour.c/.h's
// TransitionBehaviour/WfAnimatable pair: an animatable float32 value
// with a target, a duration, and a per-frame-sample preview hook
// used to pre-load blocks before the transition reaches them.
package transition

import "time"

// Animatable is one interpolated scalar value (float32), matching
// WfAnimatable's "animatable property" role (region/rect/opacity/z are
// each one or more Animatables in the actor).
type Animatable struct {
	start, end float32
	startedAt  time.Time
	duration   time.Duration
	active     bool
}

// Set starts an animation from the current value to target over d. Passing d<=0 jumps immediately (spec.md §4.9:
// "invalidates... and — if animations are enabled... schedules a
// transition rather than jumping").
func (a *Animatable) Set(current, target float32, d time.Duration, now time.Time) {
	if d <= 0 {
		a.start, a.end = target, target
		a.active = false
		return
	}
	a.start = current
	a.end = target
	a.startedAt = now
	a.duration = d
	a.active = true
}

// Value returns the interpolated value at now, clamped to [start, end]
// once the duration elapses.
func (a *Animatable) Value(now time.Time) float32 {
	if !a.active {
		return a.end
	}
	elapsed := now.Sub(a.startedAt)
	if elapsed >= a.duration {
		a.active = false
		return a.end
	}
	t := float32(elapsed) / float32(a.duration)
	return a.start + (a.end-a.start)*t
}

// Done reports whether the animation has finished (or was never started).
func (a *Animatable) Done(now time.Time) bool {
	if !a.active {
		return true
	}
	return now.Sub(a.startedAt) >= a.duration
}

// Target returns the value the animation is heading to, even mid-flight —
// used to resolve the "target animation endpoint" prefetch pass (spec.md
// §4.9).
func (a *Animatable) Target() float32 {
	return a.end
}

// PreviewSteps walks n evenly spaced sample points between an animation's
// start and end values and calls visit with each, modelling the "call a
// function at each animation frame sample point during a transition to
// pre-load blocks" pattern (spec.md SPEC_FULL.md Design Notes). The walk
// is pure and non-blocking: visit should only enqueue prefetch work, never
// block.
func (a *Animatable) PreviewSteps(n int, visit func(value float32)) {
	if n <= 0 {
		return
	}
	if n == 1 {
		visit(a.end)
		return
	}
	for i := 0; i < n; i++ {
		t := float32(i) / float32(n-1)
		visit(a.start + (a.end-a.start)*t)
	}
}
