package wfref

import (
	"testing"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

func TestResolveAfterRegister(t *testing.T) {
	r := NewRegistry[string]()
	id := wavetypes.NewWaveformID()
	r.Register(id, "hello")

	got, ok := r.Resolve(id)
	if !ok || got != "hello" {
		t.Fatalf("Resolve = (%q, %v), want (\"hello\", true)", got, ok)
	}
}

func TestResolveMissingIsFalse(t *testing.T) {
	r := NewRegistry[string]()
	_, ok := r.Resolve(wavetypes.NewWaveformID())
	if ok {
		t.Fatal("expected ok=false for an unregistered id")
	}
}

func TestWeakRefFailsAfterUnregister(t *testing.T) {
	r := NewRegistry[string]()
	id := wavetypes.NewWaveformID()
	r.Register(id, "value")

	weak := r.Weak(id)
	if _, ok := weak.Resolve(); !ok {
		t.Fatal("weak ref should resolve while the owner is registered")
	}

	r.Unregister(id)
	if _, ok := weak.Resolve(); ok {
		t.Fatal("weak ref should fail to resolve once the owner is unregistered")
	}
}

func TestWeakRefIDIsStable(t *testing.T) {
	r := NewRegistry[string]()
	id := wavetypes.NewWaveformID()
	weak := r.Weak(id)
	if weak.ID() != id {
		t.Fatalf("ID() = %v, want %v", weak.ID(), id)
	}
}

func TestRegisterOverwritesPriorEntry(t *testing.T) {
	r := NewRegistry[int]()
	id := wavetypes.NewWaveformID()
	r.Register(id, 1)
	r.Register(id, 2)

	got, ok := r.Resolve(id)
	if !ok || got != 2 {
		t.Fatalf("Resolve = (%d, %v), want (2, true)", got, ok)
	}
}
