package main

import (
	"github.com/benjaminschreck/reportstencil/pkg/stencil"
	"github.com/charmbracelet/lipgloss"
)

var (
	fileStyle = lipgloss.NewStyle().Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#4ade80"}).
		Bold(true)

	locationStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"})

	severityStyles = map[stencil.IssueSeverity]lipgloss.Style{
		stencil.IssueSeverityError: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}).
			Bold(true),
		stencil.IssueSeverityWarning: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}),
		stencil.IssueSeverityInfo: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#60a5fa"}),
	}

	warningStyle = severityStyles[stencil.IssueSeverityWarning]
)

func severityStyle(s stencil.IssueSeverity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
