package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"guardian/cmd/guardian/ui"
	"guardian/internal/analyzer"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errAnalysisFailed is returned when at least one input could not be analyzed.
var errAnalysisFailed = errors.New("analysis failed")

const stdinSource = "-"

type analyzeOptions struct {
	text        string
	asJSON      bool
	concurrency int
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [file|-]...",
		Short: "Analyze files, stdin or inline text and print the verdicts",
		Long: `Analyze sends each input to the analysis service once and prints the
verdict with plagiarism and fake-news percentages.

Inputs are files, "-" for stdin, or --text. Inputs are analyzed concurrently;
results are printed in argument order. The command fails if any analysis fails.`,
		Example: `  guardian analyze essay.txt
  guardian analyze --text "The moon is made of cheese." --json
  cat article.md | guardian analyze -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Analyze this text")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print results as JSON")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 4, "Maximum concurrent requests")
	return cmd
}

// analysisInput is one piece of text to analyze.
type analysisInput struct {
	Source string
	Text   string
}

// analysisReport is the JSON form of one outcome.
type analysisReport struct {
	Source            string            `json:"source"`
	Status            analyzer.Status   `json:"status"`
	AttemptID         string            `json:"attempt_id,omitempty"`
	Result            *analyzer.Result  `json:"result,omitempty"`
	PlagiarismPercent *float64          `json:"plagiarism_percent,omitempty"`
	FakeNewsPercent   *float64          `json:"fake_news_percent,omitempty"`
	Failure           *analyzer.Failure `json:"failure,omitempty"`
	snapshot          analyzer.Snapshot
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string, opts *analyzeOptions) error {
	inputs, err := collectInputs(cmd.InOrStdin(), args, opts.text)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports := a.analyzeAll(ctx, inputs, opts.concurrency)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else if err := a.printMarkdown(out, reports); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r.Status == analyzer.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d inputs", errAnalysisFailed, failed, len(reports))
	}
	return nil
}

// analyzeAll runs one orchestrator per input with bounded concurrency.
// Reports keep the input order.
func (a *app) analyzeAll(ctx context.Context, inputs []analysisInput, concurrency int) []analysisReport {
	if concurrency < 1 {
		concurrency = 1
	}
	scorer := a.newScorer()
	reports := make([]analysisReport, len(inputs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, in := range inputs {
		eg.Go(func() error {
			orch := a.newOrchestrator(scorer)
			orch.UpdateDraft(in.Text)

			if req := orch.Submit(); req != nil {
				orch.Complete(req.Do(egCtx))
			} else {
				a.logger.Info("skipping blank input", zap.String("source", in.Source))
			}
			reports[i] = newReport(in.Source, orch.Snapshot())
			// Failures are reported, not propagated, so siblings keep running.
			return nil
		})
	}
	_ = eg.Wait()
	return reports
}

func newReport(source string, snap analyzer.Snapshot) analysisReport {
	r := analysisReport{
		Source:   source,
		Status:   snap.Status,
		Result:   snap.Result,
		Failure:  snap.Failure,
		snapshot: snap,
	}
	if snap.Attempt != nil {
		r.AttemptID = snap.Attempt.ID
	}
	if snap.Result != nil {
		p := analyzer.Percent(snap.Result.PlagiarismScore)
		f := analyzer.Percent(snap.Result.FakeNewsScore)
		r.PlagiarismPercent, r.FakeNewsPercent = &p, &f
	}
	return r
}

func (a *app) printMarkdown(out io.Writer, reports []analysisReport) error {
	now := time.Now()
	sections := make([]string, 0, len(reports))
	for _, r := range reports {
		sections = append(sections, ui.ReportMarkdown(a.skin, r.Source, r.snapshot, now))
	}

	renderer, err := ui.NewMarkdownRenderer(a.styles.Theme, 80, isTerminal(out))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(strings.Join(sections, "\n---\n\n"))
	if err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}

// collectInputs reads every file argument, stdin for "-", and --text.
func collectInputs(stdin io.Reader, args []string, text string) ([]analysisInput, error) {
	var inputs []analysisInput
	if text != "" {
		inputs = append(inputs, analysisInput{Source: "--text", Text: text})
	}

	readStdin := false
	for _, arg := range args {
		if arg == stdinSource {
			if readStdin {
				return nil, fmt.Errorf("stdin given more than once")
			}
			readStdin = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			inputs = append(inputs, analysisInput{Source: "stdin", Text: string(data)})
			continue
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		inputs = append(inputs, analysisInput{Source: arg, Text: string(data)})
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("nothing to analyze: pass a file, - for stdin, or --text")
	}
	return inputs, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
