package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayyi/libwaveform-sub002/internal/debugsvg"
	"github.com/ayyi/libwaveform-sub002/internal/decoder"
	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
)

func newThumbnailCmd(logger zerolog.Logger) *cobra.Command {
	var (
		bars    int
		width   int
		height  int
		color   string
		mode    string
		channel int
	)

	cmd := &cobra.Command{
		Use:   "thumbnail <audio-file> <out.svg>",
		Short: "Render a bar-chart SVG thumbnail, from a cached peakfile if available",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath, outPath := args[0], args[1]

			cfg := debugsvg.DefaultConfig()
			cfg.Bars = bars
			cfg.Width = width
			cfg.Height = height
			cfg.BarColor = color
			cfg.Mode = debugsvg.LoudnessMode(mode)

			facade, err := decoder.OpenSplitStereo(audioPath)
			if err != nil {
				return err
			}

			cache, cleanup, err := newPeakCache(logger)
			if err == nil {
				defer cleanup()
				if destPath, err := cache.EntryPath(audioPath); err == nil {
					if cache.IsCurrent(audioPath, destPath, facade.NFrames, facade.NChannels) {
						if pf, err := peakfile.ReadFile(destPath, facade.NFrames); err == nil {
							if err := debugsvg.RenderPeakfileFile(pf, channel, cfg, outPath); err != nil {
								return err
							}
							cmd.Printf("thumbnail (from peakfile): %s\n", outPath)
							return nil
						}
					}
				}
			}

			samples := facade.ReadFrames(0, int(facade.NFrames))[channel]
			if err := debugsvg.RenderSamplesFile(samples, cfg, outPath); err != nil {
				return err
			}
			cmd.Printf("thumbnail (from decoded audio): %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&bars, "bars", 100, "number of bars")
	cmd.Flags().IntVar(&width, "width", 500, "SVG width in pixels")
	cmd.Flags().IntVar(&height, "height", 80, "SVG height in pixels")
	cmd.Flags().StringVar(&color, "color", "#3B82F6", "bar color (hex)")
	cmd.Flags().StringVar(&mode, "mode", "dynamic", "loudness mode: rms, lufs, peak, vu, dynamic, smooth")
	cmd.Flags().IntVar(&channel, "channel", 0, "channel index to render")
	return cmd
}
