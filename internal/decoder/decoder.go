// Package decoder is the decoder facade (spec.md §4, §6, C1): it opens an
// audio file and exposes a pull interface yielding 16-bit PCM frames by
// absolute frame offset, planar per channel (up to stereo — inputs with
// more channels are down-mixed/truncated per spec.md §1 Non-goals).
//
// Each concrete format reader generalises a stream-to-end read loop into a
// frame-addressable facade: the whole file is decoded once into planar
// buffers at Open time, then ReadFrames slices that buffer. This keeps the
// pull-by-offset contract without reimplementing seek support inside codecs
// that do not offer it natively.
package decoder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/pion/opus"

	"github.com/ayyi/libwaveform-sub002/internal/werrors"
)

// Format identifies the container/codec a file was recognised as.
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3
	FormatWAV
	FormatFLAC
	FormatOGG
	FormatAIFF
	FormatOpus
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "MP3"
	case FormatWAV:
		return "WAV"
	case FormatFLAC:
		return "FLAC"
	case FormatOGG:
		return "OGG"
	case FormatAIFF:
		return "AIFF"
	case FormatOpus:
		return "Opus"
	default:
		return "Unknown"
	}
}

// DetectFormat determines the audio format from the file extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return FormatMP3
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	case ".ogg":
		return FormatOGG
	case ".aiff", ".aif":
		return FormatAIFF
	case ".opus":
		return FormatOpus
	default:
		return FormatUnknown
	}
}

// Facade is the decoder facade handle for one open audio file: a fully
// decoded, frame-addressable, planar 16-bit PCM buffer plus the format
// metadata the rest of the pipeline needs.
type Facade struct {
	Format     Format
	SampleRate int
	NChannels  int // 1 or 2, after any down-mix/truncation (§1 Non-goals)
	NFrames    int64

	// channels[c] has length NFrames. Mono files have len(channels) == 1.
	channels [][]int16
}

// Open opens path, decodes it in full and returns a frame-addressable
// facade. If the file does not exist, werrors.ErrFileMissing is returned;
// if the codec rejects the data, werrors.ErrDecode is returned.
func Open(path string) (*Facade, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, werrors.ErrFileMissing)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	format := DetectFormat(path)
	channels, sampleRate, err := decodeToPlanar(path, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	channels = downmixToStereo(channels)

	nFrames := int64(0)
	if len(channels) > 0 {
		nFrames = int64(len(channels[0]))
	}

	return &Facade{
		Format:     format,
		SampleRate: sampleRate,
		NChannels:  len(channels),
		NFrames:    nFrames,
		channels:   channels,
	}, nil
}

// downmixToStereo enforces the "no more than two channels" Non-goal: inputs
// with more channels are down-mixed by averaging the even-indexed channels
// (0, 2, 4, ...) into left and the odd-indexed channels (1, 3, 5, ...) into
// right, not simply truncated, so no audio energy is silently dropped. Two-or-fewer-channel inputs pass through unchanged.
func downmixToStereo(channels [][]int16) [][]int16 {
	if len(channels) <= 2 {
		return channels
	}
	n := len(channels[0])
	left := make([]int16, n)
	right := make([]int16, n)
	for i := 0; i < n; i++ {
		var lsum, rsum int32
		for c := 0; c < len(channels); c += 2 {
			lsum += int32(channels[c][i])
		}
		for c := 1; c < len(channels); c += 2 {
			rsum += int32(channels[c][i])
		}
		left[i] = clampInt16(lsum / int32((len(channels)+1)/2))
		right[i] = clampInt16(rsum / int32(len(channels)/2))
	}
	return [][]int16{left, right}
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// ReadFrames returns the planar channel data for the inclusive-exclusive
// frame range [offset, offset+n), padding with silence if the range runs
// past NFrames. This is the pull-by-absolute-frame-offset interface
// spec.md §6 requires of the decoder facade.
func (f *Facade) ReadFrames(offset int64, n int) [][]int16 {
	out := make([][]int16, f.NChannels)
	for c := range out {
		out[c] = make([]int16, n)
		if offset >= f.NFrames {
			continue
		}
		end := offset + int64(n)
		if end > f.NFrames {
			end = f.NFrames
		}
		copy(out[c], f.channels[c][offset:end])
	}
	return out
}

func decodeToPlanar(path string, format Format) ([][]int16, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	switch format {
	case FormatMP3:
		return decodeMP3(file)
	case FormatWAV:
		return decodeWAV(file)
	case FormatFLAC:
		return decodeFLAC(file)
	case FormatOGG:
		return decodeOGG(file)
	case FormatAIFF:
		return decodeAIFF(file)
	case FormatOpus:
		return decodeOpus(file)
	default:
		return nil, 0, fmt.Errorf("%s: %w", format, werrors.ErrDecode)
	}
}

func decodeMP3(f *os.File) ([][]int16, int, error) {
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
	}
	var left, right []int16
	buf := make([]byte, 32768)
	for {
		n, err := d.Read(buf)
		if n > 0 {
			for i := 0; i+3 < n; i += 4 {
				left = append(left, int16(buf[i])|int16(buf[i+1])<<8)
				right = append(right, int16(buf[i+2])|int16(buf[i+3])<<8)
			}
		}
		if err != nil {
			break
		}
	}
	return [][]int16{left, right}, d.SampleRate(), nil
}

func decodeWAV(f *os.File) ([][]int16, int, error) {
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: invalid WAV file", werrors.ErrDecode)
	}
	d.ReadInfo()
	nch := int(d.NumChans)
	if nch < 1 {
		nch = 1
	}
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: nch, SampleRate: int(d.SampleRate)}, Data: make([]int, 4096)}
	channels := make([][]int16, nch)
	for {
		n, err := d.PCMBuffer(buffer)
		if n == 0 || err != nil {
			if err != nil && err != io.EOF {
				return nil, 0, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
			}
			break
		}
		for i := 0; i < n; i++ {
			c := i % nch
			channels[c] = append(channels[c], int16(buffer.Data[i]))
		}
	}
	return channels, int(d.SampleRate), nil
}

func decodeAIFF(f *os.File) ([][]int16, int, error) {
	d := aiff.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: invalid AIFF file", werrors.ErrDecode)
	}
	nch := int(d.NumChans)
	if nch < 1 {
		nch = 1
	}
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: nch, SampleRate: int(d.SampleRate)}, Data: make([]int, 4096)}
	channels := make([][]int16, nch)
	for {
		n, err := d.PCMBuffer(buffer)
		if n == 0 || err != nil {
			if err != nil && err != io.EOF {
				return nil, 0, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
			}
			break
		}
		for i := 0; i < n; i++ {
			c := i % nch
			channels[c] = append(channels[c], int16(buffer.Data[i]))
		}
	}
	return channels, int(d.SampleRate), nil
}

func decodeFLAC(f *os.File) ([][]int16, int, error) {
	stream, err := flac.Parse(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
	}
	nch := int(stream.Info.NChannels)
	if nch < 1 {
		nch = 1
	}
	channels := make([][]int16, nch)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			break
		}
		for c := 0; c < nch && c < len(frame.Subframes); c++ {
			for _, s := range frame.Subframes[c].Samples {
				channels[c] = append(channels[c], int16(s))
			}
		}
	}
	return channels, int(stream.Info.SampleRate), nil
}

func decodeOGG(f *os.File) ([][]int16, int, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
	}
	nch := reader.Channels()
	if nch < 1 {
		nch = 1
	}
	channels := make([][]int16, nch)
	buf := make([]float32, 4096*nch)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			for i := 0; i < n; i++ {
				c := i % nch
				channels[c] = append(channels[c], floatToInt16(buf[i]))
			}
		}
		if err != nil {
			break
		}
	}
	return channels, reader.SampleRate(), nil
}

func decodeOpus(f *os.File) ([][]int16, int, error) {
	dec := opus.NewDecoder()
	// Opus is natively mono in this facade: full packetisation is out of
	// scope for a peak-generation pull source.
	var mono []int16
	packet := make([]byte, 4096)
	pcmOut := make([]byte, 8192)
	for {
		n, err := f.Read(packet)
		if n > 0 {
			if bw, _, derr := dec.Decode(packet[:n], pcmOut); derr == nil {
				for i := 0; i+1 < bw; i += 2 {
					mono = append(mono, int16(pcmOut[i])|int16(pcmOut[i+1])<<8)
				}
			}
		}
		if err != nil {
			break
		}
	}
	return [][]int16{mono}, 48000, nil
}

func floatToInt16(v float32) int16 {
	s := v * 32767
	if s > 32767 {
		s = 32767
	}
	if s < -32768 {
		s = -32768
	}
	return int16(s)
}

// SiblingRightChannel implements the split-stereo convention (SPEC_FULL.md
// "Supplemented features", grounded on original_source/waveform/audio_file.c):
// a mono file's "right" channel may live in a sibling file, named by trying
// `<base>.R<ext>` then `<base>_R<ext>` in turn. Returns "", false if no
// sibling exists.
func SiblingRightChannel(path string) (string, bool) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for _, candidate := range []string{base + ".R" + ext, base + "_R" + ext} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// OpenSplitStereo opens a mono file together with its sibling right-channel
// file (if any) and returns a single two-channel facade, interleaving the
// two mono decodes. If no sibling exists it falls back to a plain Open.
func OpenSplitStereo(path string) (*Facade, error) {
	right, ok := SiblingRightChannel(path)
	if !ok {
		return Open(path)
	}

	left, err := Open(path)
	if err != nil {
		return nil, err
	}
	rightF, err := Open(right)
	if err != nil {
		return nil, err
	}

	n := left.NFrames
	if rightF.NFrames < n {
		n = rightF.NFrames
	}
	lch := left.channels[0][:n]
	rch := rightF.channels[0][:n]

	return &Facade{
		Format:     left.Format,
		SampleRate: left.SampleRate,
		NChannels:  2,
		NFrames:    n,
		channels:   [][]int16{lch, rch},
	}, nil
}
