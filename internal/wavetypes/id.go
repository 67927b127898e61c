package wavetypes

import "github.com/google/uuid"

// WaveformID is a stable identity for a Waveform, used as a cache/weak-ref
// registry key (SPEC_FULL.md domain stack: google/uuid keeps keys stable
// across pointer moves in tests, unlike using the Waveform's address).
type WaveformID uuid.UUID

// NewWaveformID mints a fresh identity.
func NewWaveformID() WaveformID {
	return WaveformID(uuid.New())
}

func (id WaveformID) String() string {
	return uuid.UUID(id).String()
}

// AudioBlock is WfBuf16 (spec.md §3): up to two equal-length 16-bit channel
// buffers for one 65536-frame block, plus an LRU stamp.
type AudioBlock struct {
	Channels [][]int16 // length 1 (mono) or 2 (stereo)
	Stamp    int64
}

// Shorts returns the total int16 count across all channel buffers, the
// unit the audio cache's capacity is counted in (spec.md §4.2).
func (b *AudioBlock) Shorts() int {
	n := 0
	for _, c := range b.Channels {
		n += len(c)
	}
	return n
}

// Peakbuf is a hi-res peak block (spec.md §3): block index, resolution
// (audio frames per max/min pair, a power of two <= 256), per-channel
// interleaved (max, min) buffer, and the retained peak level.
type Peakbuf struct {
	Block      int
	Resolution int // frames per peak pair: 1, 2, 4, 8 or 16
	// Channels[c] has length (WfPeakBlockSize/Resolution)*2, laid out
	// [max0, min0, max1, min1, ...].
	Channels  [][]int16
	PeakLevel int16
}

// Size returns the per-channel buffer length in shorts: (65536/resolution)*2
// (spec.md §3 invariant).
func (p *Peakbuf) Size() int {
	return (WfPeakBlockSize / p.Resolution) * 2
}
