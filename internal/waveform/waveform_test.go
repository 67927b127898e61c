package waveform

import (
	"errors"
	"testing"

	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

func TestRetainReleaseRefcounting(t *testing.T) {
	w := New("a.wav")
	w.Retain()
	w.Retain()
	if w.RefCount() != 2 {
		t.Fatalf("RefCount = %d, want 2", w.RefCount())
	}
	if w.Release() {
		t.Fatal("Release should report false while a reference remains")
	}
	if !w.Release() {
		t.Fatal("Release should report true on the last reference")
	}
}

func TestNumPeaksZeroWithoutPeakfile(t *testing.T) {
	w := New("a.wav")
	if w.NumPeaks() != 0 {
		t.Fatalf("NumPeaks = %d, want 0 before any peakfile is set", w.NumPeaks())
	}
}

func TestSetPeakFiresOnPeaksReady(t *testing.T) {
	w := New("a.wav")
	var gotErr error
	called := false
	w.OnPeaksReady(func(err error) {
		called = true
		gotErr = err
	})

	pf := &peakfile.File{NChannels: 1, NumPeaks: 10}
	w.SetPeak(pf)

	if !called {
		t.Fatal("OnPeaksReady callback never fired")
	}
	if gotErr != nil {
		t.Fatalf("expected nil error on success, got %v", gotErr)
	}
	if w.NumPeaks() != 10 {
		t.Fatalf("NumPeaks = %d, want 10", w.NumPeaks())
	}
}

func TestNotifyPeaksErrorDoesNotInstallData(t *testing.T) {
	w := New("a.wav")
	wantErr := errors.New("boom")
	var gotErr error
	w.OnPeaksReady(func(err error) { gotErr = err })

	w.NotifyPeaksError(wantErr)

	if gotErr != wantErr {
		t.Fatalf("gotErr = %v, want %v", gotErr, wantErr)
	}
	if w.Peak() != nil {
		t.Fatal("peak should remain nil after an error notification")
	}
}

func TestRenderDataAllocatesOnceAndIsCleared(t *testing.T) {
	w := New("a.wav")
	calls := 0
	newFn := func() any { calls++; return "handle" }

	h1 := w.RenderData(wavetypes.Med, newFn)
	h2 := w.RenderData(wavetypes.Med, newFn)
	if calls != 1 {
		t.Fatalf("newFn called %d times, want 1", calls)
	}
	if h1 != h2 {
		t.Fatal("RenderData should return the same handle once allocated")
	}

	freed := false
	w.ClearRenderData(wavetypes.Med, func(any) { freed = true })
	if !freed {
		t.Fatal("ClearRenderData should invoke freeFn on an existing handle")
	}

	h3 := w.RenderData(wavetypes.Med, newFn)
	if calls != 2 {
		t.Fatalf("newFn called %d times after clear, want 2", calls)
	}
	_ = h3
}

func TestClearAllRenderDataSweepsEveryMode(t *testing.T) {
	w := New("a.wav")
	for m := 0; m < wavetypes.NumModes; m++ {
		w.RenderData(wavetypes.Mode(m), func() any { return struct{}{} })
	}
	freedModes := 0
	w.ClearAllRenderData(func(m wavetypes.Mode, v any) { freedModes++ })
	if freedModes != wavetypes.NumModes {
		t.Fatalf("freed %d modes, want %d", freedModes, wavetypes.NumModes)
	}
}

func TestHiresPeaksLifecycle(t *testing.T) {
	w := New("a.wav")
	if w.NumHiresPeaks() != 0 {
		t.Fatal("expected zero hires peaks for a fresh waveform")
	}
	w.SetHiresPeak(3, &wavetypes.Peakbuf{Block: 3})
	if w.NumHiresPeaks() != 1 {
		t.Fatalf("NumHiresPeaks = %d, want 1", w.NumHiresPeaks())
	}
	pb, ok := w.HiresPeak(3)
	if !ok || pb.Block != 3 {
		t.Fatalf("HiresPeak(3) = (%+v, %v)", pb, ok)
	}
	w.ClearHiresPeaks()
	if w.NumHiresPeaks() != 0 {
		t.Fatal("ClearHiresPeaks should drop every cached block")
	}
}

func TestNotifyHiresReadyFiresSubscribers(t *testing.T) {
	w := New("a.wav")
	var got int
	w.OnHiresReady(func(block int) { got = block })
	w.NotifyHiresReady(5)
	if got != 5 {
		t.Fatalf("got block %d, want 5", got)
	}
}

func TestNumBlocksForModeZeroWithoutAudioInfo(t *testing.T) {
	w := New("a.wav")
	if n := w.NumBlocksForMode(wavetypes.Med); n != 0 {
		t.Fatalf("NumBlocksForMode = %d, want 0 before SetAudioInfo", n)
	}
}

func TestNumBlocksForModeDerivesFromFrameCount(t *testing.T) {
	w := New("a.wav")
	spt := int64(wavetypes.SamplesPerTexture(wavetypes.Med))
	w.SetAudioInfo(spt*3+1, 2, 44100)
	if n := w.NumBlocksForMode(wavetypes.Med); n != 4 {
		t.Fatalf("NumBlocksForMode = %d, want 4 for a partial final block", n)
	}
}
