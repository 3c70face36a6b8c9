package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"guardian/cmd/guardian/ui"
	"guardian/internal/analyzer"
	"guardian/internal/logging"
	"guardian/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type watchOptions struct {
	asJSON   bool
	debounce time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-analyze a file every time it is saved",
		Long: `Watch analyzes the file once, then again whenever its content settles to
a new value. A request still in flight when the file changes is abandoned:
its late response is ignored and only the newest text's verdict is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print one JSON object per result")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change is analyzed")
	return cmd
}

// watchSession ties a file watcher to one orchestrator.
type watchSession struct {
	a      *app
	orch   *analyzer.Orchestrator
	source string
	asJSON bool
	logger *zap.Logger

	outMu sync.Mutex
	out   io.Writer
}

// runWatch blocks until ctx is cancelled.
func (a *app) runWatch(ctx context.Context, out io.Writer, path string, opts *watchOptions) error {
	logger := logging.Get(logging.CategoryWatch)
	s := &watchSession{
		a:      a,
		orch:   a.newOrchestrator(a.newScorer()),
		source: path,
		asJSON: opts.asJSON,
		logger: logger,
		out:    out,
	}

	w, err := watch.New(path, s.onChange,
		watch.WithDebounce(opts.debounce),
		watch.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	w.Stop()
	s.orch.Wait()
	return nil
}

// onChange supersedes any pending attempt with the file's new content.
func (s *watchSession) onChange(ctx context.Context, content string) {
	if s.orch.Abandon() {
		s.logger.Info("superseded pending analysis")
	}
	s.orch.UpdateDraft(content)

	notify := func(snap analyzer.Snapshot) {
		// A request cut short by shutdown is not an analysis failure.
		if ctx.Err() != nil {
			s.logger.Debug("discarding result after shutdown", zap.Stringer("status", snap.Status))
			return
		}
		s.print(snap)
	}
	if !s.orch.Dispatch(ctx, notify) {
		s.logger.Info("file is blank, waiting for content")
	}
}

func (s *watchSession) print(snap analyzer.Snapshot) {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	if s.asJSON {
		if err := json.NewEncoder(s.out).Encode(newReport(s.source, snap)); err != nil {
			s.logger.Error("failed to encode result", zap.Error(err))
		}
		return
	}

	now := time.Now()
	line := fmt.Sprintf("[%s] ", now.Format(time.TimeOnly))
	switch snap.Status {
	case analyzer.StatusSucceeded:
		r := snap.Result
		line += fmt.Sprintf("%s | %s %s | %s %s",
			r.Verdict,
			s.a.skin.PlagiarismLabel, analyzer.FormatPercent(r.PlagiarismScore),
			s.a.skin.FakeNewsLabel, analyzer.FormatPercent(r.FakeNewsScore))
		if checked := ui.CheckedAtLine(s.a.skin, r, now); checked != "" {
			line += " | " + checked
		}
	case analyzer.StatusFailed:
		line += "Error: " + ui.FailureText(s.a.skin, snap.Failure)
	default:
		return
	}
	fmt.Fprintln(s.out, line)
}
