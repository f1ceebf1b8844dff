package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/index"
	"github.com/Aman-CERP/patrology/internal/output"
	"github.com/Aman-CERP/patrology/internal/preflight"
	"github.com/Aman-CERP/patrology/internal/ui"
	"github.com/Aman-CERP/patrology/internal/watcher"
)

type indexOptions struct {
	demo     bool
	rebuild  bool
	noTUI    bool
	watchDir string
	polling  bool
}

func newIndexCmd(a *app) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [file.jsonl ...]",
		Short: "Ingest corpus files into the phrase index",
		Long: `Ingest JSONL corpus files. Each line is one document: an author,
a work and its chapters. Chapters already in the corpus are skipped, so
re-running an index over the same files is cheap.

Examples:
  patrology index --demo
  patrology index fathers/*.jsonl
  patrology index --rebuild-fulltext
  patrology index --watch ./drop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.demo && !opts.rebuild && opts.watchDir == "" {
				return perrors.New(perrors.ErrCodeInvalidInput, "nothing to index", nil).
					WithSuggestion("Pass JSONL files, --demo, --rebuild-fulltext or --watch DIR")
			}
			return a.runIndex(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Ingest the built-in demo corpus")
	cmd.Flags().BoolVar(&opts.rebuild, "rebuild-fulltext", false, "Re-post every chapter to the full-text index")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Plain progress output even on a terminal")
	cmd.Flags().StringVar(&opts.watchDir, "watch", "", "After indexing, ingest JSONL files dropped into this directory")
	cmd.Flags().BoolVar(&opts.polling, "poll", false, "Watch by polling instead of file system notifications")

	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, files []string, opts indexOptions) error {
	ctx := cmd.Context()

	if err := a.checkDataDir(); err != nil {
		return err
	}

	s, err := a.openCorpus(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if len(files) > 0 || opts.demo || opts.rebuild {
		if err := a.runIndexOnce(ctx, cmd, s, files, opts); err != nil {
			return err
		}
	}

	if opts.watchDir != "" {
		return a.runWatch(ctx, cmd, s, opts)
	}
	return nil
}

// checkDataDir refuses to index into a data dir without room or write access.
func (a *app) checkDataDir() error {
	dir := a.cfg.Paths.DataDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perrors.New(perrors.ErrCodeStoreIO, "cannot create data directory", err).
			WithDetail("path", dir)
	}

	checker := preflight.New(preflight.WithOutput(io.Discard))
	for _, r := range []preflight.CheckResult{
		checker.CheckDiskSpace(dir),
		checker.CheckWritePermissions(dir),
	} {
		if r.IsCritical() {
			slog.Error("preflight_failed", slog.String("check", r.Name), slog.String("message", r.Message))
			return perrors.New(perrors.ErrCodeStoreIO, r.Name+": "+r.Message, nil).
				WithDetail("path", dir).
				WithSuggestion("Run 'patrology doctor' for details")
		}
	}
	return nil
}

func (a *app) runIndexOnce(ctx context.Context, cmd *cobra.Command, s *session, files []string, opts indexOptions) error {
	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithDataDir(a.cfg.Paths.DataDir)))
	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start progress display: %w", err)
	}

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: renderer,
		Store:    s.store,
		Postings: s.postings,
		Workers:  a.cfg.Ingest.Workers,
	})
	if err != nil {
		_ = renderer.Stop()
		return err
	}

	slog.Info("index_started",
		slog.Int("files", len(files)),
		slog.Bool("demo", opts.demo),
		slog.Bool("rebuild_fulltext", opts.rebuild))

	res, err := runner.Run(ctx, index.RunnerConfig{
		Files:           files,
		Demo:            opts.demo,
		RebuildFullText: opts.rebuild,
	})
	if stopErr := renderer.Stop(); stopErr != nil {
		slog.Warn("progress_display_stop_failed", slog.String("error", stopErr.Error()))
	}
	if err != nil {
		return err
	}

	slog.Info("index_complete",
		slog.Int("documents", res.Documents),
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
		slog.Int("errors", res.Errors),
		slog.Int64("duration_ms", res.Duration.Milliseconds()))

	if res.Errors > 0 && res.Documents == 0 {
		return perrors.IngestionError(fmt.Sprintf("no documents loaded (%d files failed)", res.Errors), nil)
	}
	return nil
}

// runWatch ingests existing files in the drop directory, then every file
// created or modified there until ctx is canceled.
func (a *app) runWatch(ctx context.Context, cmd *cobra.Command, s *session, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	wopts := watcher.Options{
		DebounceWindow: a.cfg.WatchDebounceDuration(),
		ForcePolling:   opts.polling,
	}
	w, err := watcher.New(wopts)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	builder := index.NewBuilder(s.store, s.postings, index.WithWorkers(a.cfg.Ingest.Workers))
	coord := index.NewCoordinator(opts.watchDir, builder, wopts)

	res, err := coord.ReconcileOnStartup(ctx)
	if err != nil {
		return err
	}
	out.Successf("Ingested %d existing files (%d new chapters)", res.Files, res.Created)
	out.Statusf("👀", "Watching %s (%s). Press Ctrl+C to stop.", opts.watchDir, w.WatcherType())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Start(gctx, opts.watchDir)
	})
	g.Go(func() error {
		return coord.Run(gctx, w.Events())
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err == nil {
		out.Status("⏹", "Stopped watching.")
	}
	return err
}
