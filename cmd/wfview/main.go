// Command wfview is a headless CLI over the waveform rendering pipeline's
// non-GL components: peakfile generation, inspection and a debug SVG
// thumbnail, for scripting and smoke-testing the library without a GL
// host application.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayyi/libwaveform-sub002/internal/peakcache"
	"github.com/ayyi/libwaveform-sub002/internal/waveform"
	"github.com/ayyi/libwaveform-sub002/internal/worker"
)

// newPeakCache builds a peakcache.Cache backed by a one-shot worker: the CLI
// has no long-lived event loop of its own, so the worker dispatches done
// callbacks inline and is shut down once the command's RunE returns.
func newPeakCache(logger zerolog.Logger) (cache *peakcache.Cache, cleanup func(), err error) {
	w := worker.New[*waveform.Waveform](worker.RunInline, logger, 1)
	cache, err = peakcache.New(logger, w)
	if err != nil {
		w.Shutdown()
		return nil, nil, err
	}
	return cache, w.Shutdown, nil
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "wfview",
		Short: "Inspect and pre-generate waveform peak data",
	}
	root.AddCommand(newPeakgenCmd(logger))
	root.AddCommand(newInspectCmd(logger))
	root.AddCommand(newThumbnailCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Fatal().Err(err).Msg("wfview failed")
	}
}
