// Package worker implements the single background worker thread (spec.md
// §4.4, §5, C6): one goroutine drains a FIFO job queue against weak
// references to waveforms, so a waveform destroyed mid-flight makes its
// pending jobs silent no-ops instead of keeping memory alive.
//
// Grounded directly on original_source/waveform/worker.c: work() runs on
// the worker goroutine only if the weak ref still resolves and the job was
// not cancelled; done() is always posted back via the Dispatcher (the
// "main thread" stand-in — g_timeout_add/g_idle_add in the original) even
// when the waveform is gone, exactly mirroring worker_post's behaviour of
// skipping only the callback, never the queue bookkeeping.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/wfref"
)

// Dispatcher schedules fn to run on the "main thread". The host
// application supplies a real implementation (e.g. posting to its GL/UI
// event loop); tests may use RunInline for synchronous execution.
type Dispatcher func(fn func())

// RunInline is a Dispatcher that runs fn immediately, for tests and
// headless tools that have no event loop of their own.
func RunInline(fn func()) { fn() }

type job[T any] struct {
	id        wavetypes.WaveformID
	ref       wfref.WeakRef[T]
	dedupKey  any
	work      func(T)
	done      func(T)
	free      func()
	cancelled atomic.Bool
}

// Worker is the single-thread FIFO job runner, generic over the strong
// waveform-like type T it resolves weak references to.
type Worker[T any] struct {
	queue      chan *job[T]
	dispatch   Dispatcher
	logger     zerolog.Logger
	mu         sync.Mutex
	pending    []*job[T]
	shutdownCh chan struct{}
}

// New starts the worker goroutine. queueDepth bounds how many jobs may be
// buffered before PushJob blocks (the original uses an unbounded
// GAsyncQueue; a bound is the idiomatic Go equivalent and only matters
// under pathological backlog).
func New[T any](dispatch Dispatcher, logger zerolog.Logger, queueDepth int) *Worker[T] {
	w := &Worker[T]{
		queue:      make(chan *job[T], queueDepth),
		dispatch:   dispatch,
		logger:     logger.With().Str("component", "worker").Logger(),
		shutdownCh: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker[T]) run() {
	for {
		select {
		case j, ok := <-w.queue:
			if !ok {
				return
			}
			w.runJob(j)
		case <-w.shutdownCh:
			for {
				select {
				case j := <-w.queue:
					w.runJob(j)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker[T]) runJob(j *job[T]) {
	if !j.cancelled.Load() {
		if v, ok := j.ref.Resolve(); ok {
			j.work(v)
		}
	}
	// Completion is always posted to the main thread, including the
	// cancelled/dead-waveform case; the dispatched closure itself decides
	// whether done fires (spec.md §4.4, §5).
	w.dispatch(func() {
		w.finish(j)
	})
}

func (w *Worker[T]) finish(j *job[T]) {
	if !j.cancelled.Load() {
		if v, ok := j.ref.Resolve(); ok {
			j.done(v)
		}
	}
	if j.free != nil {
		j.free()
	}
	w.mu.Lock()
	for i, p := range w.pending {
		if p == j {
			w.pending = append(w.pending[:i], w.pending[i+1:]...)
			break
		}
	}
	w.mu.Unlock()
}

// PushJob enqueues work/done/free against ref, identified by id for
// cancellation. dedupKey, if non-nil, is compared against pending jobs'
// dedup keys (via ==); if a non-cancelled job with an equal key already
// exists, no job is pushed and ok is false (spec.md §5 "before enqueuing a
// (waveform, block) hi-res job, the queue is scanned").
func (w *Worker[T]) PushJob(id wavetypes.WaveformID, ref wfref.WeakRef[T], dedupKey any, work, done func(T), free func()) bool {
	w.mu.Lock()
	if dedupKey != nil {
		for _, p := range w.pending {
			if !p.cancelled.Load() && p.dedupKey == dedupKey {
				w.mu.Unlock()
				return false
			}
		}
	}
	j := &job[T]{id: id, ref: ref, dedupKey: dedupKey, work: work, done: done, free: free}
	w.pending = append(w.pending, j)
	w.mu.Unlock()

	w.queue <- j
	return true
}

// CancelJobs marks every pending job belonging to id cancelled. Jobs
// already running are not interrupted, but their done step is skipped
// (spec.md §4.4, §5).
func (w *Worker[T]) CancelJobs(id wavetypes.WaveformID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.pending {
		if p.id == id {
			p.cancelled.Store(true)
		}
	}
}

// PendingCount reports the number of jobs not yet finished, for tests.
func (w *Worker[T]) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Shutdown stops the worker goroutine after draining jobs already queued.
func (w *Worker[T]) Shutdown() {
	close(w.shutdownCh)
}
