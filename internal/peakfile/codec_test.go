package peakfile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ayyi/libwaveform-sub002/internal/werrors"
)

func TestWriteReadRoundTrip(t *testing.T) {
	f := &File{
		NChannels: 2,
		NumPeaks:  3,
		Peaks:     []int16{100, -100, 200, -50, 50, -200, 10, -10, 0, 0, 1, -1},
	}
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.NChannels != f.NChannels || got.NumPeaks != f.NumPeaks {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
	for i, v := range f.Peaks {
		if got.Peaks[i] != v {
			t.Errorf("peak[%d] = %d, want %d", i, got.Peaks[i], v)
		}
	}
}

func TestReadBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("XXXX\x01\x02\x00\x00")
	_, err := Read(buf)
	if !errors.Is(err, werrors.ErrPeakfileCorrupt) {
		t.Fatalf("expected ErrPeakfileCorrupt, got %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("/nonexistent/path/to/a.peak", 0)
	if !errors.Is(err, werrors.ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}
}

func TestPayloadSizeMatchesWrittenLength(t *testing.T) {
	f := &File{NChannels: 2, NumPeaks: 10, Peaks: make([]int16, 10*2*2)}
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	nFrames := int64(10) * 256
	want := PayloadSize(nFrames, 2)
	got := int64(buf.Len() - headerSize)
	if got != want {
		t.Errorf("PayloadSize(%d, 2) = %d, actual payload = %d", nFrames, want, got)
	}
}

func TestMaxMinIndexesCorrectChannel(t *testing.T) {
	f := &File{
		NChannels: 2,
		NumPeaks:  2,
		Peaks:     []int16{1, -1, 2, -2, 3, -3, 4, -4},
	}
	max, min := f.MaxMin(1, 0)
	if max != 2 || min != -2 {
		t.Errorf("MaxMin(1, 0) = (%d, %d), want (2, -2)", max, min)
	}
	max, min = f.MaxMin(0, 1)
	if max != 3 || min != -3 {
		t.Errorf("MaxMin(0, 1) = (%d, %d), want (3, -3)", max, min)
	}
}
