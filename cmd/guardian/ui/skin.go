package ui

import (
	"fmt"
	"sort"
)

// Skin holds the user-facing text of one page variant. Both variants drive
// the same lifecycle and differ only in wording and the checked-at line.
type Skin struct {
	Name            string
	Title           string
	Heading         string
	Tagline         string
	Placeholder     string
	SubmitLabel     string
	PendingLabel    string
	EmptyResult     string // Shown before the first result; empty hides the panel
	PlagiarismLabel string
	FakeNewsLabel   string

	// ProtocolFailure replaces the service's status message when set.
	ProtocolFailure string

	// ShowCheckedAt renders the "Checked at" line when the service sends one.
	ShowCheckedAt bool
}

// DefaultSkin is used when no skin is configured.
const DefaultSkin = "integrity"

var skins = map[string]Skin{
	"integrity": {
		Name:            "integrity",
		Title:           "AI Integrity Suite",
		Heading:         "Analyze your text",
		Tagline:         "Paste or type content. We'll compare against fresh headlines to estimate originality and credibility.",
		Placeholder:     "Paste content here...",
		SubmitLabel:     "Run analysis",
		PendingLabel:    "Analyzing…",
		EmptyResult:     "Results will appear here. Try a provocative claim.",
		PlagiarismLabel: "Plagiarism",
		FakeNewsLabel:   "Fake news risk",
		ShowCheckedAt:   true,
	},
	"guardian": {
		Name:            "guardian",
		Title:           "AI Guardian",
		Heading:         "Try it now",
		Tagline:         "Paste some text and we will compare it with fresh headlines to estimate plagiarism and misinformation risk.",
		Placeholder:     "Paste or type your text here...",
		SubmitLabel:     "Analyze",
		PendingLabel:    "Analyzing...",
		PlagiarismLabel: "Plagiarism",
		FakeNewsLabel:   "Fake News Risk",
		ProtocolFailure: "Failed to analyze",
	},
}

// LookupSkin returns the named skin. An empty name selects DefaultSkin.
func LookupSkin(name string) (Skin, error) {
	if name == "" {
		name = DefaultSkin
	}
	s, ok := skins[name]
	if !ok {
		return Skin{}, fmt.Errorf("unknown skin %q (available: %v)", name, SkinNames())
	}
	return s, nil
}

// SkinNames lists the available skins in sorted order.
func SkinNames() []string {
	names := make([]string, 0, len(skins))
	for name := range skins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
