// Package wfref implements the weak-reference mechanism the worker (C6)
// relies on (spec.md §4.4, §5, Design Notes "Weak references across thread
// boundary"): a registered strong owner is resolvable by identity; once
// unregistered, resolution yields nothing, exactly like GWeakRef in the
// original C implementation.
//
// This sidesteps Go's lack of a stable, GC-integrated weak-pointer type at
// the language level (spec.md's design note calls for "any atomic-refcount
// scheme"): registration/unregistration is the explicit stand-in for
// refcount-reaching-zero, guarded by a mutex so resolve-vs-unregister race
// the same way GWeakRef's internal lock does.
package wfref

import (
	"sync"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
)

// Registry holds the live strong owners, keyed by WaveformID.
type Registry[T any] struct {
	mu sync.RWMutex
	m  map[wavetypes.WaveformID]T
}

// NewRegistry constructs an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{m: make(map[wavetypes.WaveformID]T)}
}

// Register installs v as the strong owner for id, overwriting any prior
// entry.
func (r *Registry[T]) Register(id wavetypes.WaveformID, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = v
}

// Unregister removes id, causing future WeakRef.Resolve calls for it to
// fail. Mirrors the moment a Waveform's last strong reference is dropped
// (spec.md §3 Lifecycle).
func (r *Registry[T]) Unregister(id wavetypes.WaveformID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

// Resolve looks up id, returning ok=false if it is not currently
// registered.
func (r *Registry[T]) Resolve(id wavetypes.WaveformID) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[id]
	return v, ok
}

// Weak mints a WeakRef bound to this registry for id.
func (r *Registry[T]) Weak(id wavetypes.WaveformID) WeakRef[T] {
	return WeakRef[T]{id: id, reg: r}
}

// WeakRef is a non-owning reference to a registered value, resolvable only
// while the owner remains registered.
type WeakRef[T any] struct {
	id  wavetypes.WaveformID
	reg *Registry[T]
}

// Resolve attempts to recover the strong value. ok is false if the owner
// has been unregistered (e.g. the Waveform was freed).
func (w WeakRef[T]) Resolve() (T, bool) {
	return w.reg.Resolve(w.id)
}

// ID returns the identity this weak reference targets, independent of
// whether it currently resolves.
func (w WeakRef[T]) ID() wavetypes.WaveformID {
	return w.id
}
