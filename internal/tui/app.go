// Package tui shows a bridging batch as it runs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

// Batch runs the bridge pipeline, reporting progress to obs.
type Batch func(ctx context.Context, obs bridge.Observer) ([]bridge.Outcome, error)

// ErrInterrupted is returned when the user quits before the batch finished.
var ErrInterrupted = errors.New("interrupted before the batch finished")

// Run starts the TUI application and the batch behind it. It returns when
// the user quits.
func Run(ctx context.Context, adbPath string, devices []fleet.Device, batch Batch) ([]bridge.Outcome, error) {
	m := NewModel(adbPath, devices)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		outcomes, err := batch(ctx, &programObserver{send: p.Send})
		p.Send(batchDoneMsg{outcomes: outcomes, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return nil, err
	}

	fm, ok := final.(Model)
	if !ok || !fm.Finished() {
		return nil, ErrInterrupted
	}
	return fm.Outcomes()
}

// programObserver forwards batch events into the program.
type programObserver struct {
	send func(tea.Msg)
}

func (o *programObserver) DeviceStarted(index, _ int, d fleet.Device) {
	o.send(deviceStartedMsg{index: index, device: d})
}

func (o *programObserver) StepFinished(d fleet.Device, step bridge.Step, ok bool, detail string) {
	o.send(stepMsg{serial: d.Serial, step: step, ok: ok, detail: detail})
}

func (o *programObserver) DeviceFinished(index, _ int, out bridge.Outcome) {
	o.send(deviceDoneMsg{index: index, outcome: out})
}
