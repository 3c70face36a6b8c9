package widget

import (
	"guardian/internal/analyzer"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const noticeAbandoned = "Stopped waiting. Any late response will be ignored."

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if w := msg.Width - 6; w >= 20 {
			m.textarea.SetWidth(w)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case analysisDoneMsg:
		if !m.orch.Complete(msg.completion) {
			m.logger.Debug("discarded response for superseded attempt",
				zap.String("attempt_id", msg.completion.AttemptID))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.shutdown()
		return m, tea.Quit

	case tea.KeyCtrlX:
		// Stop waiting for the current attempt
		if m.orch.Abandon() {
			m.notice = noticeAbandoned
		}
		return m, nil

	case tea.KeyEnter:
		if msg.Alt || msg.Paste {
			break // Let textarea insert the newline
		}
		return m.submit()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.orch.UpdateDraft(m.textarea.Value())
	return m, cmd
}

// submit starts an attempt when the draft allows it. A blank draft or an
// attempt already pending makes Enter a no-op.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.orch.UpdateDraft(m.textarea.Value())

	req := m.orch.Submit()
	if req == nil {
		return m, nil
	}
	m.notice = ""
	m.logger.Debug("submitted", zap.String("attempt_id", req.Attempt.ID))
	return m, runAnalysis(m.ctx, req)
}

// Pending reports whether an attempt is in flight.
func (m Model) Pending() bool {
	return m.orch.Status() == analyzer.StatusPending
}
