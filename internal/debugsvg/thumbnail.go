package debugsvg

import (
	"io"
	"os"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
)

// Config is the bar-chart rendering configuration.
type Config struct {
	Width        int
	Height       int
	Bars         int
	BarSpacing   int
	BarColor     string
	CornerRadius float64
	Concurrent   bool
	Mode         LoudnessMode
}

// DefaultConfig returns the standard thumbnail sizing and styling.
func DefaultConfig() Config {
	return Config{
		Width:        500,
		Height:       80,
		Bars:         100,
		BarSpacing:   2,
		BarColor:     "#3B82F6",
		CornerRadius: 8.0,
		Concurrent:   true,
		Mode:         ModeDynamic,
	}
}

// RenderSamplesFile takes already-decoded samples, reduces them to cfg.Bars
// loudness bars, and writes the
// bar-chart SVG to path — the original_source-free "quick look" path for
// tools that already have PCM in hand (original_source/test/gen/thumbnail.c
// does the analogous thing from a fully decoded buffer).
func RenderSamplesFile(samples []int16, cfg Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RenderSamples(samples, cfg, f)
}

// RenderSamples writes the bar-chart SVG for samples to w.
func RenderSamples(samples []int16, cfg Config, w io.Writer) error {
	var bars []bar
	if cfg.Concurrent {
		bars = downsampleConcurrent(samples, cfg.Bars, cfg.Mode)
	} else {
		bars = downsample(samples, cfg.Bars, cfg.Mode)
	}
	return writeBars(bars, cfg, w)
}

// RenderPeakfileFile renders a thumbnail directly from an already-generated
// peakfile, channel ch, without touching the source audio at all — the
// common case for a "peakgen then preview" CLI workflow.
func RenderPeakfileFile(pf *peakfile.File, ch int, cfg Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RenderPeakfile(pf, ch, cfg, f)
}

// RenderPeakfile writes the bar-chart SVG for pf's channel ch to w, one bar
// per group of peak pairs. peakfile already holds 256:1-decimated max/min
// data, so no further sample-level reduction runs here — each bar's
// upward/downward extent is the true max and min across its group of peak
// pairs, drawn asymmetrically around the centre line the same way
// RenderSamples's ModePeak bars are (rather than collapsing max and min
// into a single symmetric peak-to-peak span).
func RenderPeakfile(pf *peakfile.File, ch int, cfg Config, w io.Writer) error {
	numBars := cfg.Bars
	if numBars <= 0 || pf.NumPeaks == 0 {
		numBars = 1
	}
	pairsPerBar := pf.NumPeaks / numBars
	if pairsPerBar < 1 {
		pairsPerBar = 1
	}

	bars := make([]bar, numBars)
	for i := 0; i < numBars; i++ {
		start := i * pairsPerBar
		end := start + pairsPerBar
		if end > pf.NumPeaks {
			end = pf.NumPeaks
		}
		if start >= end {
			continue
		}
		var pos, neg int16
		for idx := start; idx < end; idx++ {
			max, min := pf.MaxMin(ch, idx)
			if max > pos {
				pos = max
			}
			if min < neg {
				neg = min
			}
		}
		bars[i] = bar{pos: float64(pos) / 32768.0, neg: float64(-neg) / 32768.0}
	}
	return writeBars(bars, cfg, w)
}

// writeBars is the shared SVG emission routine, taking an io.Writer instead
// of always creating a file so callers can render to any destination. Each
// bar is drawn from its own pos/neg extent around the centre line, so a
// loudness mode's symmetric bar and a true peak/peakfile bar's asymmetric
// shape both fall out of the same geometry.
func writeBars(bars []bar, cfg Config, w io.Writer) error {
	ctx := canvas.NewContext(svg.New(w, float64(cfg.Width), float64(cfg.Height), nil))

	waveColor := canvas.Hex(cfg.BarColor)
	barWidth := float64(cfg.Width) / float64(len(bars))
	mid := float64(cfg.Height) / 2.0
	maxHeight := float64(cfg.Height) * 0.48
	barSpacing := float64(cfg.BarSpacing)
	minHeight := 1.5

	var maxExtent float64
	for _, b := range bars {
		if b.pos > maxExtent {
			maxExtent = b.pos
		}
		if b.neg > maxExtent {
			maxExtent = b.neg
		}
	}
	scaleFactor := 1.0
	if maxExtent > 0 {
		scaleFactor = maxHeight / maxExtent
	}

	ctx.SetFillColor(waveColor)
	effectiveBarWidth := barWidth - barSpacing
	for i, b := range bars {
		x := float64(i) * barWidth
		up := b.pos * scaleFactor
		down := b.neg * scaleFactor
		if up < minHeight {
			up = minHeight
		}
		if down < minHeight {
			down = minHeight
		}
		barPath := canvas.RoundedRectangle(effectiveBarWidth, up+down, cfg.CornerRadius)
		ctx.DrawPath(x, mid-up, barPath)
	}

	_, err := w.Write([]byte("</svg>\n"))
	return err
}
