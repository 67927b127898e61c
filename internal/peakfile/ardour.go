package peakfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ayyi/libwaveform-sub002/internal/werrors"
)

// Ardour peakfiles (SPEC_FULL.md "Supplemented features") store a flat
// array of 32-bit IEEE-754 float (max, min) pairs, one pair per 256 frames
// per channel, with no header at all — one file per channel, named
// "<audio file>.peaks" conventionally. This is the "alternate format
// variant" noted as optional in spec.md §4.1/§6.
//
// Because there is no magic to sniff from a header (Ardour peakfiles have
// none), selection between native and Ardour variants is done by the
// caller based on file size against the expected frame count, not by
// reading this package's file directly as if it were native.
type AppearsArdour struct {
	SampleFrames int64
}

// ReadArdour parses an Ardour-format single-channel peakfile.
func ReadArdour(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	payload, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("%w: ardour payload not aligned to float pair", werrors.ErrPeakfileCorrupt)
	}
	numPeaks := len(payload) / 8
	peaks := make([]int16, numPeaks*2)
	for i := 0; i < numPeaks; i++ {
		maxF := math.Float32frombits(binary.LittleEndian.Uint32(payload[i*8:]))
		minF := math.Float32frombits(binary.LittleEndian.Uint32(payload[i*8+4:]))
		peaks[i*2] = floatToPCM16(maxF)
		peaks[i*2+1] = floatToPCM16(minF)
	}
	return &File{NChannels: 1, NumPeaks: numPeaks, Peaks: peaks}, nil
}

func floatToPCM16(v float32) int16 {
	s := v * 32767
	if s > 32767 {
		s = 32767
	}
	if s < -32768 {
		s = -32768
	}
	return int16(s)
}

// LooksLikeArdour is a best-effort size-based sniff: an Ardour peakfile for
// nFrames frames has exactly ceil(nFrames/256)*8 bytes and no magic header,
// whereas a native peakfile begins with Magic. Callers should check Magic
// first and only fall back to this for files that fail that check but
// still need to load.
func LooksLikeArdour(payloadLen int, nFrames int64) bool {
	expected := ((nFrames + 255) / 256) * 8
	return int64(payloadLen) == expected
}
