package peakfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayyi/libwaveform-sub002/internal/decoder"
	"github.com/ayyi/libwaveform-sub002/internal/werrors"
)

// batchChunks is N in "256*N" batch reads during generation (spec.md §4.1:
// "N=8 is a reasonable batch").
const batchChunks = 8
const batchFrames = 256 * batchChunks

// Generate decodes audioPath in full (honouring the split-stereo sibling
// convention, SPEC_FULL.md) and writes a peakfile to destPath, via a
// temporary file in the same directory renamed atomically into place
// (spec.md §4.1).
func Generate(audioPath, destPath string) error {
	facade, err := decoder.OpenSplitStereo(audioPath)
	if err != nil {
		return err
	}

	nChannels := facade.NChannels
	numPeaks := int((facade.NFrames + 255) / 256)
	peaks := make([]int16, numPeaks*nChannels*2)

	for chunkStart := int64(0); chunkStart < facade.NFrames || numPeaks == 0; chunkStart += batchFrames {
		if chunkStart >= facade.NFrames {
			break
		}
		n := batchFrames
		if chunkStart+int64(n) > facade.NFrames {
			n = int(facade.NFrames - chunkStart)
		}
		chunk := facade.ReadFrames(chunkStart, n)

		// Each batch covers up to batchChunks peak positions.
		for sub := 0; sub*256 < n; sub++ {
			peakIdx := int(chunkStart)/256 + sub
			if peakIdx >= numPeaks {
				break
			}
			subStart := sub * 256
			subEnd := subStart + 256
			if subEnd > n {
				subEnd = n
			}
			for c := 0; c < nChannels; c++ {
				max, min := minMax(chunk[c][subStart:subEnd])
				base := peakIdx*nChannels*2 + c*2
				peaks[base] = max
				peaks[base+1] = min
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".peakgen-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	pf := &File{NChannels: nChannels, NumPeaks: numPeaks, Peaks: peaks}
	if err := Write(tmp, pf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", werrors.ErrIO, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: rename: %v", werrors.ErrIO, err)
	}
	return nil
}

func minMax(samples []int16) (max, min int16) {
	if len(samples) == 0 {
		return 0, 0
	}
	max, min = samples[0], samples[0]
	for _, s := range samples[1:] {
		if s > max {
			max = s
		}
		if s < min {
			min = s
		}
	}
	return max, min
}
