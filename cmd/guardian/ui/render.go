package ui

import (
	"fmt"
	"strings"
	"time"

	"guardian/internal/analyzer"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const scoreBarWidth = 24

// markdownLiteral turns service-supplied text into inert markdown. glamour
// decodes HTML entities in text but prints backslash escapes as is.
var markdownLiteral = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\\", "&#92;",
	"`", "&#96;",
	"*", "&#42;",
	"_", "&#95;",
	"~", "&#126;",
	"[", "&#91;",
	"]", "&#93;",
	"!", "&#33;",
	"|", "&#124;",
	"#", "&#35;",
	"\r\n", "&#10;",
	"\n", "&#10;",
	"\r", "&#10;",
)

// FailureText returns the message shown for a failed Attempt under skin.
func FailureText(skin Skin, f *analyzer.Failure) string {
	if f == nil {
		return ""
	}
	if skin.ProtocolFailure != "" && (f.Kind == analyzer.FailureProtocol || f.Kind == analyzer.FailureMalformed) {
		return skin.ProtocolFailure
	}
	return f.Message
}

// CheckedAtLine returns the "Checked at ..." line, or "" when the skin hides
// it or the service sent no timestamp.
func CheckedAtLine(skin Skin, r *analyzer.Result, now time.Time) string {
	if !skin.ShowCheckedAt || r == nil {
		return ""
	}
	formatted := analyzer.FormatCheckedAt(r.CheckedAt, now)
	if formatted == "" {
		return ""
	}
	return "Checked at " + formatted
}

// RenderResult renders a result card: verdict, both scores and the optional
// checked-at line.
func RenderResult(s Styles, skin Skin, r *analyzer.Result, now time.Time) string {
	if r == nil {
		return ""
	}

	bar := progress.New(
		progress.WithSolidFill(string(s.Theme.Accent)),
		progress.WithoutPercentage(),
		progress.WithWidth(scoreBarWidth),
	)

	row := func(label string, score float64) string {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			s.ScoreLabel.Render(label),
			s.ScoreValue.Render(analyzer.FormatPercent(score)),
			"  ",
			bar.ViewAs(clampUnit(score)),
		)
	}

	lines := []string{
		s.Bold.Render("Verdict: ") + s.Verdict.Render(r.Verdict),
		"",
		row(skin.PlagiarismLabel, r.PlagiarismScore),
		row(skin.FakeNewsLabel, r.FakeNewsScore),
	}
	if checked := CheckedAtLine(skin, r, now); checked != "" {
		lines = append(lines, "", s.Muted.Render(checked))
	}

	return s.Card.Render(strings.Join(lines, "\n"))
}

// RenderFailure renders the failure line for a failed Attempt.
func RenderFailure(s Styles, skin Skin, f *analyzer.Failure) string {
	if f == nil {
		return ""
	}
	return s.Error.Render(FailureText(skin, f))
}

// clampUnit bounds the bar fill only; the printed percentage is never clamped.
func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ReportMarkdown renders one snapshot as a markdown section. source names
// where the text came from (a file path, "stdin" or "--text").
func ReportMarkdown(skin Skin, source string, snap analyzer.Snapshot, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n\n", skin.Title))
	if source != "" {
		sb.WriteString(fmt.Sprintf("_Source:_ %s\n\n", markdownLiteral.Replace(source)))
	}

	switch snap.Status {
	case analyzer.StatusSucceeded:
		r := snap.Result
		sb.WriteString(fmt.Sprintf("**Verdict:** %s\n\n", markdownLiteral.Replace(r.Verdict)))
		sb.WriteString("| Measure | Score |\n|---|---|\n")
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", skin.PlagiarismLabel, analyzer.FormatPercent(r.PlagiarismScore)))
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", skin.FakeNewsLabel, analyzer.FormatPercent(r.FakeNewsScore)))
		if checked := CheckedAtLine(skin, r, now); checked != "" {
			sb.WriteString("\n" + checked + "\n")
		}
	case analyzer.StatusFailed:
		sb.WriteString(fmt.Sprintf("> **Error:** %s\n", FailureText(skin, snap.Failure)))
	case analyzer.StatusPending:
		sb.WriteString(skin.PendingLabel + "\n")
	default:
		sb.WriteString("_Nothing analyzed._\n")
	}

	return sb.String()
}

// NewMarkdownRenderer returns a glamour renderer matching the theme. When tty
// is false the output carries no ANSI styling.
func NewMarkdownRenderer(theme Theme, width int, tty bool) (*glamour.TermRenderer, error) {
	style := "light"
	switch {
	case !tty:
		style = "notty"
	case theme.IsDark:
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
}
