// Package peakcache implements the peakfile cache manager (spec.md §4.1,
// §6, C3): it maps an audio-file identity to its peakfile path, generates
// missing peakfiles asynchronously, and expires stale entries.
//
// Cache directory resolution follows the pack's idiomatic XDG lookup
// (github.com/adrg/xdg, as used in go-musicfox) rather than a hand-rolled
// os.Getenv("XDG_CACHE_HOME") check.
//
// spec.md line 159 is explicit that "exactly one worker thread" services a
// FIFO job queue and that peakfile generation is named as worker-thread-only
// work, so generation and the idle sweep below are dispatched onto the same
// shared internal/worker.Worker the rest of the system (internal/hires,
// internal/actor) serializes hi-res decode work through, rather than a
// parallel set of ad-hoc goroutines.
package peakcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/wavetypes"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
	"github.com/ayyi/libwaveform-sub002/internal/werrors"
	"github.com/ayyi/libwaveform-sub002/internal/wfref"
	"github.com/ayyi/libwaveform-sub002/internal/worker"
)

// StaleAge is how old an entry must be, with no access, before the idle
// sweep prunes it (spec.md §4.1: "90 days").
const StaleAge = 90 * 24 * time.Hour

// Cache manages the on-disk peakfile directory.
type Cache struct {
	dir    string
	logger zerolog.Logger

	worker *worker.Worker[*waveform.Waveform]

	// anchor is a private, never-exposed waveform identity the cache
	// registers itself against so its worker jobs resolve (and are never
	// cancelled by an actor clearing some unrelated waveform) for as long as
	// the cache itself is alive.
	registry   *wfref.Registry[*waveform.Waveform]
	anchorID   wavetypes.WaveformID
	anchorWeak wfref.WeakRef[*waveform.Waveform]

	sweepMu      sync.Mutex
	sweepPending bool
}

// New constructs a Cache rooted at $XDG_CACHE_HOME/peak (fallback
// ~/.cache/peak per spec.md §4.1), creating the directory if needed. w is
// the shared worker peakfile generation and idle sweeps are dispatched
// through.
func New(logger zerolog.Logger, w *worker.Worker[*waveform.Waveform]) (*Cache, error) {
	dir, err := xdg.CacheFile(filepath.Join("peak", ".keep"))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve cache dir: %v", werrors.ErrIO, err)
	}
	dir = filepath.Dir(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}

	reg := wfref.NewRegistry[*waveform.Waveform]()
	anchor := waveform.New("")
	reg.Register(anchor.ID, anchor)

	return &Cache{
		dir:        dir,
		logger:     logger.With().Str("component", "peakcache").Logger(),
		worker:     w,
		registry:   reg,
		anchorID:   anchor.ID,
		anchorWeak: reg.Weak(anchor.ID),
	}, nil
}

// EntryPath returns the peakfile path for audioPath: hex MD5 of the
// absolute file URI, ".peak" extension (spec.md §4.1, §6).
func (c *Cache) EntryPath(audioPath string) (string, error) {
	abs, err := filepath.Abs(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	uri := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	sum := md5.Sum([]byte(uri))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".peak"), nil
}

// freshnessPolicy decides whether an existing peakfile is current relative
// to its audio file: mtime plus size, not mtime alone (too weak a signal on
// its own) and not a full content hash (too costly for multi-hour files
// checked on every load).
func freshnessPolicy(audioInfo, peakInfo os.FileInfo) bool {
	if !peakInfo.ModTime().Before(audioInfo.ModTime()) {
		// mtime check passes; size is an auxiliary signal recorded at
		// generation time via the peakfile's own payload length, checked by
		// the caller against the current audio file length, not here — this
		// function only owns the mtime half of the policy.
		return true
	}
	return false
}

// IsCurrent reports whether the peakfile at peakPath is current for the
// audio file at audioPath under the mtime+size policy (SPEC_FULL.md).
func (c *Cache) IsCurrent(audioPath, peakPath string, audioFrames int64, nChannels int) bool {
	audioInfo, err := os.Stat(audioPath)
	if err != nil {
		return false
	}
	peakInfo, err := os.Stat(peakPath)
	if err != nil {
		return false
	}
	if !freshnessPolicy(audioInfo, peakInfo) {
		return false
	}
	return peakInfo.Size() >= peakfile.PayloadSize(audioFrames, nChannels)
}

// Touch updates the peakfile's access time so the idle sweep treats it as
// recently used.
func (c *Cache) Touch(peakPath string) {
	now := time.Now()
	_ = os.Chtimes(peakPath, now, now)
}

// genJobKey dedups concurrent generation requests for the same destination
// peakfile onto a single worker job, the same idiom hiresJobKey uses in
// internal/actor.
type genJobKey struct {
	dest string
}

// EnsureAsync resolves the peakfile for audioPath, generating it on the
// worker thread if missing or stale, and invokes done with the resolved
// path (or an error) once ready. A generation request already queued for
// the same destination absorbs this call silently (done is not invoked a
// second time); the caller's own retry-next-frame loop (spec.md §4.8, §4.9)
// picks the result up once the in-flight job lands and IsCurrent starts
// reporting true.
func (c *Cache) EnsureAsync(audioPath string, audioFrames int64, nChannels int, done func(path string, err error)) {
	destPath, err := c.EntryPath(audioPath)
	if err != nil {
		done("", err)
		return
	}

	if c.IsCurrent(audioPath, destPath, audioFrames, nChannels) {
		c.Touch(destPath)
		done(destPath, nil)
		return
	}

	var genErr error
	c.worker.PushJob(c.anchorID, c.anchorWeak, genJobKey{dest: destPath},
		func(*waveform.Waveform) {
			c.logger.Debug().Str("audio", audioPath).Str("dest", destPath).Msg("generating peakfile")
			genErr = peakfile.Generate(audioPath, destPath)
		},
		func(*waveform.Waveform) {
			if genErr != nil {
				c.logger.Error().Err(genErr).Str("audio", audioPath).Msg("peakfile generation failed")
				done("", genErr)
				return
			}
			done(destPath, nil)
			c.triggerIdleSweep()
		},
		nil,
	)
}

// sweepJobKey dedups idle-sweep requests: only one PruneStale pass needs to
// be pending at a time.
type sweepJobKey struct{}

// triggerIdleSweep queues a PruneStale pass on the worker thread after a
// successful generation (spec.md §4.1), collapsing concurrent triggers so a
// burst of generations only sweeps once.
func (c *Cache) triggerIdleSweep() {
	c.sweepMu.Lock()
	if c.sweepPending {
		c.sweepMu.Unlock()
		return
	}
	c.sweepPending = true
	c.sweepMu.Unlock()

	var n int
	var err error
	c.worker.PushJob(c.anchorID, c.anchorWeak, sweepJobKey{},
		func(*waveform.Waveform) {
			n, err = c.PruneStale(time.Now())
		},
		func(*waveform.Waveform) {
			c.sweepMu.Lock()
			c.sweepPending = false
			c.sweepMu.Unlock()
			if err != nil {
				c.logger.Warn().Err(err).Msg("idle sweep failed")
			} else if n > 0 {
				c.logger.Debug().Int("pruned", n).Msg("idle sweep pruned stale peakfiles")
			}
		},
		nil,
	)
}

// PruneStale removes entries whose mtime is older than StaleAge relative
// to now, returning the count removed.
func (c *Cache) PruneStale(now time.Time) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".peak" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > StaleAge {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
