package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressState tracks how many devices of the batch are done.
type ProgressState struct {
	progress    progress.Model
	done        int
	total       int
	description string
}

// NewProgressState creates a new progress tracking state.
func NewProgressState() ProgressState {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)
	return ProgressState{
		progress: p,
	}
}

// Start begins tracking a batch of total devices.
func (p *ProgressState) Start(total int) {
	p.done = 0
	p.total = total
	p.description = ""
}

// Advance records one more finished device.
func (p *ProgressState) Advance(description string) {
	if p.done < p.total {
		p.done++
	}
	p.description = description
}

// Percent returns the finished fraction (0.0 to 1.0).
func (p ProgressState) Percent() float64 {
	if p.total == 0 {
		return 1
	}
	return float64(p.done) / float64(p.total)
}

// View renders the progress bar.
func (p ProgressState) View() string {
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	line := fmt.Sprintf("%d/%d devices", p.done, p.total)
	if p.description != "" {
		line += "  " + p.description
	}
	return descStyle.Render(line) + "\n" + p.progress.ViewAs(p.Percent())
}
