// Package peakfile implements the peakfile codec (spec.md §4.1, §6, C2): a
// binary RIFF-style file whose payload is an array of 16-bit signed
// (max, min) pairs, one pair per 256 audio frames per channel, interleaved
// channel-major within the pair. Little-endian throughout.
//
// Generalises a one-value-per-bar peak-drawing data shape into a (max,min)
// int16 pair layout, matching the on-disk contract original_source/
// waveform/peak.c describes.
package peakfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ayyi/libwaveform-sub002/internal/werrors"
)

// Magic identifies a native peakfile. 4 bytes, matching the RIFF-style
// "identify it as a peakfile; no variable-length metadata" requirement.
var Magic = [4]byte{'P', 'E', 'A', 'K'}

const (
	headerSize   = 8 // magic(4) + version(1) + channels(1) + reserved(2)
	formatVer    = 1
	bytesPerPair = 4 // 2 channels worth of int16 max/min is handled per-channel below; this is per-channel pair size
)

// File is a fully decoded peakfile: one (max, min) pair per 256 frames, per
// channel, interleaved channel-major.
type File struct {
	NChannels int
	NumPeaks  int
	// Peaks has length NumPeaks*NChannels*2, laid out
	// [peak0_maxL, peak0_minL, peak0_maxR, peak0_minR, peak1_maxL, ...].
	Peaks []int16
}

// PayloadSize returns the expected payload size in bytes for nFrames audio
// frames and nChannels channels, per spec.md §8 scenario 1.
func PayloadSize(nFrames int64, nChannels int) int64 {
	numPeaks := (nFrames + 255) / 256
	return numPeaks * int64(nChannels) * 2 * 2 // 2 values (max,min) * 2 bytes
}

// Write serialises f to w in the native RIFF-style format.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(Magic[:]); err != nil {
		return fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	header := []byte{formatVer, byte(f.NChannels), 0, 0}
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	for _, v := range f.Peaks {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", werrors.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	return nil
}

// Read parses a peakfile from r. If the header magic is wrong, or the
// payload length is not a whole multiple of one peak position (a (max, min)
// pair for every channel), returns
// werrors.ErrPeakfileCorrupt.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", werrors.ErrPeakfileCorrupt, err)
	}
	if string(header[:4]) != string(Magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", werrors.ErrPeakfileCorrupt)
	}
	nChannels := int(header[5])
	if nChannels != 1 && nChannels != 2 {
		return nil, fmt.Errorf("%w: invalid channel count %d", werrors.ErrPeakfileCorrupt, nChannels)
	}

	payload, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	valuesPerPeak := nChannels * 2
	if len(payload)%(valuesPerPeak*2) != 0 {
		return nil, fmt.Errorf("%w: payload not aligned to pair size", werrors.ErrPeakfileCorrupt)
	}
	numPeaks := len(payload) / (valuesPerPeak * 2)
	peaks := make([]int16, numPeaks*valuesPerPeak)
	for i := range peaks {
		peaks[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}

	return &File{NChannels: nChannels, NumPeaks: numPeaks, Peaks: peaks}, nil
}

// ReadFile opens and parses path, additionally checking the payload is at
// least as long as expectedFrames implies (spec.md §7: PeakfileCorrupt is
// "shorter than expected given the audio length").
func ReadFile(path string, expectedFrames int64) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, werrors.ErrFileMissing)
		}
		return nil, fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	defer f.Close()

	pf, err := Read(f)
	if err != nil {
		return nil, err
	}
	if expectedFrames > 0 {
		expectedPeaks := int((expectedFrames + 255) / 256)
		if pf.NumPeaks < expectedPeaks {
			return nil, fmt.Errorf("%w: have %d peaks, want >= %d", werrors.ErrPeakfileCorrupt, pf.NumPeaks, expectedPeaks)
		}
	}
	return pf, nil
}

// MaxMin returns the (max, min) pair for channel ch at peak index idx.
func (f *File) MaxMin(ch, idx int) (int16, int16) {
	base := idx*f.NChannels*2 + ch*2
	return f.Peaks[base], f.Peaks[base+1]
}
