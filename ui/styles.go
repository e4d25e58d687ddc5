package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lepinkainen/pageconv/convert"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Styling functions using lipgloss
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	ProcessingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// FormatLabel renders a format tag for display: container formats are
// acronyms, image folders are a word
func FormatLabel(f convert.Format) string {
	if f == convert.FormatImages {
		return cases.Title(language.English).String(string(f))
	}
	return cases.Upper(language.Und).String(string(f))
}

// SummaryLine styles the final batch message by outcome
func SummaryLine(s convert.Summary) string {
	switch {
	case s.Failed == 0:
		return SuccessStyle.Render("✅ " + s.Message())
	case s.Succeeded == 0:
		return ErrorStyle.Render("❌ " + s.Message())
	}
	return WarningStyle.Render("⚠️  " + s.Message())
}
