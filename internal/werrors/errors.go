// Package werrors defines the error kinds the core distinguishes, shared
// across the peakfile, cache and decoder layers.
package werrors

import "errors"

// Sentinel error kinds. Wrap with fmt.Errorf("...: %w", Err*) for context
// and unwrap with errors.Is.
var (
	// ErrFileMissing means the audio file does not exist. Runtime.Load
	// marks such a waveform offline and not renderable; a pre-existing
	// peakfile is not used to render it.
	ErrFileMissing = errors.New("audio file missing")

	// ErrDecode means the decoder rejected the file outright. Fatal for
	// that waveform.
	ErrDecode = errors.New("decode error")

	// ErrPeakfileCorrupt means the peakfile is shorter than expected given
	// the audio length. The waveform is marked non-renderable; a
	// regeneration may be attempted on next load.
	ErrPeakfileCorrupt = errors.New("peakfile corrupt")

	// ErrIO covers filesystem errors during peakfile generation. Surfaced
	// to the caller, never retried automatically.
	ErrIO = errors.New("io error")

	// ErrCacheFull is transient: eviction should always make room, so this
	// is logged as a warning rather than returned to callers.
	ErrCacheFull = errors.New("cache full")
)

// NotReady is deliberately not an error kind (see spec.md §7): a missing
// block in flight drives mode fall-through and is represented as a plain
// bool/ok-style return, not a wrapped error.
