package report

import "github.com/charmbracelet/lipgloss"

// Styles for console output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

// NewStyles builds styles bound to r so color is only emitted when r's
// output is a terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	muted := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}

	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(highlight),
		Label:   r.NewStyle().Foreground(muted),
		Value:   r.NewStyle(),
		Muted:   r.NewStyle().Foreground(muted),
		Success: r.NewStyle().Foreground(special).Bold(true),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#FFCC00")),
	}
}
