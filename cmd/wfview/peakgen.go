package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayyi/libwaveform-sub002/internal/decoder"
)

func newPeakgenCmd(logger zerolog.Logger) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "peakgen <audio-file>",
		Short: "Generate (or refresh) the cached peakfile for an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath := args[0]

			facade, err := decoder.OpenSplitStereo(audioPath)
			if err != nil {
				return err
			}

			cache, cleanup, err := newPeakCache(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if force {
				destPath, err := cache.EntryPath(audioPath)
				if err == nil {
					_ = os.Remove(destPath)
				}
			}

			done := make(chan error, 1)
			var resultPath string
			cache.EnsureAsync(audioPath, facade.NFrames, facade.NChannels, func(path string, err error) {
				resultPath = path
				done <- err
			})
			if err := <-done; err != nil {
				return err
			}

			cmd.Printf("peakfile: %s\n", resultPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the freshness check and force regeneration")
	return cmd
}
