package worker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/wfref"
)

func TestPushJobRunsWorkAndDoneInOrder(t *testing.T) {
	reg := wfref.NewRegistry[int]()
	id := wavetypes.NewWaveformID()
	reg.Register(id, 7)

	w := New[int](RunInline, zerolog.Nop(), 8)
	t.Cleanup(w.Shutdown)

	doneCh := make(chan int, 1)
	ok := w.PushJob(id, reg.Weak(id), nil,
		func(v int) {},
		func(v int) { doneCh <- v },
		nil,
	)
	require.True(t, ok)

	select {
	case v := <-doneCh:
		require.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("done callback never fired")
	}
}

func TestPushJobDedupRejectsSecondJobWithSameKey(t *testing.T) {
	reg := wfref.NewRegistry[int]()
	id := wavetypes.NewWaveformID()
	reg.Register(id, 1)

	block := make(chan struct{})
	w := New[int](RunInline, zerolog.Nop(), 8)
	t.Cleanup(w.Shutdown)

	ok1 := w.PushJob(id, reg.Weak(id), "dedup-key",
		func(v int) { <-block },
		func(v int) {},
		nil,
	)
	require.True(t, ok1)

	ok2 := w.PushJob(id, reg.Weak(id), "dedup-key",
		func(v int) {},
		func(v int) {},
		nil,
	)
	require.False(t, ok2, "a second job with the same dedup key should be rejected while the first is pending")

	close(block)
}

func TestCancelJobsSkipsDoneCallback(t *testing.T) {
	reg := wfref.NewRegistry[int]()
	id := wavetypes.NewWaveformID()
	reg.Register(id, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	w := New[int](RunInline, zerolog.Nop(), 8)
	t.Cleanup(w.Shutdown)

	doneFired := make(chan struct{}, 1)
	ok := w.PushJob(id, reg.Weak(id), nil,
		func(v int) {
			close(started)
			<-release
		},
		func(v int) { doneFired <- struct{}{} },
		nil,
	)
	require.True(t, ok)

	<-started
	w.CancelJobs(id)
	close(release)

	select {
	case <-doneFired:
		t.Fatal("done callback should be skipped for a cancelled job")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPushJobIsNoOpWhenWaveformGone(t *testing.T) {
	reg := wfref.NewRegistry[int]()
	id := wavetypes.NewWaveformID()
	reg.Register(id, 1)

	w := New[int](RunInline, zerolog.Nop(), 8)
	t.Cleanup(w.Shutdown)

	workRan := false
	freeCh := make(chan struct{}, 1)
	reg.Unregister(id) // simulate the waveform being destroyed before the job runs

	ok := w.PushJob(id, reg.Weak(id), nil,
		func(v int) { workRan = true },
		func(v int) {},
		func() { freeCh <- struct{}{} },
	)
	require.True(t, ok)

	select {
	case <-freeCh:
	case <-time.After(time.Second):
		t.Fatal("free callback never fired")
	}
	require.False(t, workRan, "work should not run once the weak reference no longer resolves")
}

func TestPendingCountDropsAfterCompletion(t *testing.T) {
	reg := wfref.NewRegistry[int]()
	id := wavetypes.NewWaveformID()
	reg.Register(id, 1)

	w := New[int](RunInline, zerolog.Nop(), 8)
	t.Cleanup(w.Shutdown)

	doneCh := make(chan struct{}, 1)
	w.PushJob(id, reg.Weak(id), nil,
		func(v int) {},
		func(v int) { doneCh <- struct{}{} },
		nil,
	)
	<-doneCh

	require.Eventually(t, func() bool {
		return w.PendingCount() == 0
	}, time.Second, time.Millisecond)
}
