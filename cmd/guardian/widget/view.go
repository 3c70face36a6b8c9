package widget

import (
	"strings"

	"guardian/cmd/guardian/ui"
	"guardian/internal/analyzer"

	"github.com/charmbracelet/lipgloss"
)

const keyHints = "enter submit • alt+enter newline • ctrl+x stop waiting • esc quit"

// View renders the widget.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.orch.Snapshot()
	s := m.styles

	sections := []string{
		s.Header.Render(m.skin.Title),
		"",
		s.Title.Render(m.skin.Heading),
		s.Subtitle.Render(m.skin.Tagline),
		"",
		m.textarea.View(),
		"",
		m.renderControls(snap),
	}

	if snap.Status == analyzer.StatusFailed {
		sections = append(sections, "", ui.RenderFailure(s, m.skin, snap.Failure))
	}
	if m.notice != "" {
		sections = append(sections, "", s.Warning.Render(m.notice))
	}

	switch {
	case snap.Result != nil:
		sections = append(sections, "", ui.RenderResult(s, m.skin, snap.Result, m.now()))
	case m.skin.EmptyResult != "":
		sections = append(sections, "", s.Muted.Render(m.skin.EmptyResult))
	}

	sections = append(sections, "", s.Footer.Render(keyHints))
	return s.Content.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderControls draws the submit button, disabled while the draft is blank
// or an attempt is pending.
func (m Model) renderControls(snap analyzer.Snapshot) string {
	s := m.styles
	if snap.Status == analyzer.StatusPending {
		return strings.Join([]string{
			s.ButtonDisabled.Render(m.skin.PendingLabel),
			m.spinner.View(),
		}, " ")
	}
	if snap.CanSubmit() {
		return s.Button.Render(m.skin.SubmitLabel)
	}
	return s.ButtonDisabled.Render(m.skin.SubmitLabel)
}
