package main

import (
	"fmt"

	"guardian/cmd/guardian/widget"
	"guardian/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// runInteractive starts the full-screen analyzer.
func (a *app) runInteractive(cmd *cobra.Command) error {
	m := widget.New(widget.Config{
		Orchestrator: a.newOrchestrator(a.newScorer()),
		Skin:         a.skin,
		Styles:       a.styles,
		Logger:       logging.Get(logging.CategoryUI),
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
