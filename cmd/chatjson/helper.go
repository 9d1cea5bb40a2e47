package main

import (
	"fmt"
	"io"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/config"
	"github.com/AoWangg/chat-json/internal/render"
	"github.com/AoWangg/chat-json/internal/store"

	"github.com/spf13/cobra"
)

func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	loadedCfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	return loadedCfg, nil
}

// aggregation bundles a session with the optional archive recording it.
type aggregation struct {
	session *aggregator.Session
	archive *store.Worker
}

func (a *aggregation) Close() {
	if a.archive != nil {
		a.archive.Stop()
	}
}

// newAggregation builds a session from cfg. When archiving is enabled the
// archive worker is started and records every group under source.
func newAggregation(c *config.Config, source string, observers ...aggregator.Observer) (*aggregation, error) {
	opts := []aggregator.Option{
		aggregator.WithSplitToolPhases(c.Aggregator.SplitToolPhases),
		aggregator.WithKeepThinkingOnly(c.Aggregator.KeepThinkingOnly),
	}
	for _, o := range observers {
		opts = append(opts, aggregator.WithObserver(o))
	}

	a := &aggregation{}
	if c.Archive.Enabled {
		w, err := openArchive(c)
		if err != nil {
			return nil, err
		}
		w.Start()
		a.archive = w
		opts = append(opts, aggregator.WithObserver(store.NewRecorder(w, source)))
	}

	a.session = aggregator.NewSession(opts...)
	return a, nil
}

func openArchive(c *config.Config) (*store.Worker, error) {
	rc, err := store.RuntimeConfigFrom(&c.Archive)
	if err != nil {
		return nil, err
	}
	w, err := store.NewWorker(c.Archive.Path, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return w, nil
}

func newFormatter(c *config.Config) (render.Formatter, error) {
	return render.New(c.Output.Format)
}

func printReport(out io.Writer, f render.Formatter, s *aggregator.Session) error {
	text, err := f.FormatReport(render.Report{Groups: s.Groups(), Stats: s.Stats()})
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Fprintln(out, text)
	return nil
}
