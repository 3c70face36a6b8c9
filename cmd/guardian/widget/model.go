// Package widget implements the interactive analyzer: a text editor for the
// draft, a submit control, and the result or failure panel.
package widget

import (
	"context"
	"time"

	"guardian/cmd/guardian/ui"
	"guardian/internal/analyzer"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Config holds the dependencies of the widget.
type Config struct {
	Orchestrator *analyzer.Orchestrator
	Skin         ui.Skin
	Styles       ui.Styles
	Logger       *zap.Logger
	Now          func() time.Time // Clock for the checked-at line
}

// Model is the bubbletea model of the analyzer widget.
type Model struct {
	orch   *analyzer.Orchestrator
	skin   ui.Skin
	styles ui.Styles
	logger *zap.Logger
	now    func() time.Time

	textarea textarea.Model
	spinner  spinner.Model

	// Cancelled on quit; in-flight requests inherit it.
	ctx    context.Context
	cancel context.CancelFunc

	width    int
	height   int
	notice   string
	quitting bool
}

// analysisDoneMsg carries a finished request back into the Update loop.
type analysisDoneMsg struct {
	completion analyzer.Completion
}

// New creates the widget model.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ta := textarea.New()
	ta.Placeholder = cfg.Skin.Placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(72)
	ta.SetHeight(8)
	// Enter submits; Alt+Enter starts a new line.
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Styles.Spinner

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		orch:     cfg.Orchestrator,
		skin:     cfg.Skin,
		styles:   cfg.Styles,
		logger:   logger,
		now:      now,
		textarea: ta,
		spinner:  sp,
		ctx:      ctx,
		cancel:   cancel,
	}
	if draft := m.orch.Draft(); draft != "" {
		m.textarea.SetValue(draft)
	}
	return m
}

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Snapshot exposes the orchestrator state, mainly for tests and the caller
// after the program exits.
func (m Model) Snapshot() analyzer.Snapshot {
	return m.orch.Snapshot()
}

// runAnalysis performs the request off the Update loop.
func runAnalysis(ctx context.Context, req *analyzer.Request) tea.Cmd {
	return func() tea.Msg {
		return analysisDoneMsg{completion: req.Do(ctx)}
	}
}

// shutdown cancels in-flight requests.
func (m *Model) shutdown() {
	m.quitting = true
	m.cancel()
}
