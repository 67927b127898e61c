package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayyi/libwaveform-sub002/internal/decoder"
	"github.com/ayyi/libwaveform-sub002/internal/peakfile"
	"github.com/ayyi/libwaveform-sub002/internal/wfmode"
)

func newInspectCmd(logger zerolog.Logger) *cobra.Command {
	var (
		zoom      float64
		rectWidth float64
	)

	cmd := &cobra.Command{
		Use:   "inspect <audio-file>",
		Short: "Print audio metadata, peakfile status and the selected render mode for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath := args[0]

			facade, err := decoder.OpenSplitStereo(audioPath)
			if err != nil {
				return err
			}
			cmd.Printf("format:      %s\n", facade.Format)
			cmd.Printf("sample_rate: %d\n", facade.SampleRate)
			cmd.Printf("channels:    %d\n", facade.NChannels)
			cmd.Printf("frames:      %d\n", facade.NFrames)

			cache, cleanup, err := newPeakCache(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			destPath, err := cache.EntryPath(audioPath)
			if err != nil {
				return err
			}
			cmd.Printf("peakfile:    %s\n", destPath)

			if !cache.IsCurrent(audioPath, destPath, facade.NFrames, facade.NChannels) {
				cmd.Println("peakfile_status: missing or stale")
			} else {
				pf, err := peakfile.ReadFile(destPath, facade.NFrames)
				if err != nil {
					cmd.Printf("peakfile_status: corrupt (%v)\n", err)
				} else {
					cmd.Printf("peakfile_status: current (%d peaks, %d channels)\n", pf.NumPeaks, pf.NChannels)
				}
			}

			z := float32(zoom)
			if !cmd.Flags().Changed("zoom") {
				z = wfmode.ZoomForRect(float32(rectWidth), facade.NFrames)
			}
			cmd.Printf("zoom:        %g\n", z)
			cmd.Printf("mode:        %s\n", wfmode.Select(z))
			return nil
		},
	}
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "pixels-per-sample to select a render mode for (overrides --rect-width)")
	cmd.Flags().Float64Var(&rectWidth, "rect-width", 800, "rectangle width in pixels, used with the file's frame count to derive zoom when --zoom is not given")
	return cmd
}
