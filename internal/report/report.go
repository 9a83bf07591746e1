// Package report prints batch progress and results for humans and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/discovery"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

// Printer writes one block of lines per device as the batch runs.
type Printer struct {
	w      io.Writer
	styles Styles

	// ShowAttempts lists every discovery query when no address was found.
	ShowAttempts bool

	addr string
}

var _ bridge.Observer = (*Printer)(nil)

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		styles: NewStyles(lipgloss.NewRenderer(w)),
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) verdict(ok bool) string {
	if ok {
		return p.styles.Success.Render("OK")
	}
	return p.styles.Error.Render("FAIL")
}

// Header prints the run preamble.
func (p *Printer) Header(adbPath string, total int) {
	p.printf("%s %s\n", p.styles.Label.Render("ADB:"), adbPath)
	p.printf("%s %d\n", p.styles.Label.Render("Total serials:"), total)
	p.printf("%s\n", p.styles.Muted.Render(strings.Repeat("-", 60)))
}

// DeviceStarted implements bridge.Observer.
func (p *Printer) DeviceStarted(_, _ int, d fleet.Device) {
	p.addr = ""
	p.printf("%s\n", p.styles.Title.Render("== "+d.Serial+" =="))
	p.printf("  assigned port: %d\n", d.Port)
}

// StepFinished implements bridge.Observer.
func (p *Printer) StepFinished(d fleet.Device, step bridge.Step, ok bool, detail string) {
	switch step {
	case bridge.StepState:
		p.printf("  state: %s\n", detail)
		if !ok {
			p.printf("  %s\n", p.styles.Warning.Render("!! device is not in 'device' state (unauthorized/offline?), skipping"))
		}
	case bridge.StepDiscover:
		if ok {
			p.addr = detail
			p.printf("  ip: %s\n", detail)
		} else {
			p.printf("  %s\n", p.styles.Warning.Render("!! no IPv4 address (ip route/ip addr/ifconfig), skipping"))
		}
	case bridge.StepTCPIP:
		p.printf("  tcpip %d: %s | %s\n", d.Port, p.verdict(ok), detail)
	case bridge.StepConnect:
		p.printf("  connect %s: %s | %s\n", adb.HostPort(p.addr, d.Port), p.verdict(ok), detail)
	}
}

// DeviceFinished implements bridge.Observer.
func (p *Printer) DeviceFinished(_, _ int, o bridge.Outcome) {
	if p.ShowAttempts && o.Reason == bridge.ReasonNoAddress {
		for _, a := range o.Attempts {
			p.Attempt(a)
		}
	}
	if o.Status == bridge.StatusFailed && o.TCPIP == nil && o.Err != nil {
		p.printf("  %s\n", p.styles.Error.Render("!! "+o.Err.Error()))
	}
	p.printf("\n")
}

// Attempt prints one discovery query.
func (p *Printer) Attempt(a discovery.Attempt) {
	name := a.Strategy
	if a.Interface != "" {
		name += " " + a.Interface
	}
	result := p.styles.Muted.Render("-")
	if a.Address != "" {
		result = a.Address
	} else if a.Err != "" {
		result = p.styles.Error.Render(a.Err)
	} else if a.ExitCode != 0 {
		result = p.styles.Error.Render(fmt.Sprintf("exit %d", a.ExitCode))
	}
	p.printf("    %s %-18s %s\n", p.styles.Muted.Render(fmt.Sprintf("#%d", a.Round)), name, result)
}

// Summary prints the tally after the batch.
func (p *Printer) Summary(outcomes []bridge.Outcome) {
	s := bridge.Summarize(outcomes)
	p.printf("%s connected %s, already connected %d, failed %s, not ready %d, no address %d (of %d)\n",
		p.styles.Label.Render("Done."),
		p.styles.Success.Render(fmt.Sprint(s.Connected)),
		s.AlreadyConnected,
		p.styles.Error.Render(fmt.Sprint(s.Failed)),
		s.NotReady,
		s.NoAddress,
		s.Total,
	)
}

// JSONReport is the machine readable form of a batch.
type JSONReport struct {
	Outcomes []bridge.Outcome `json:"outcomes"`
	Summary  bridge.Summary   `json:"summary"`
	Error    string           `json:"error,omitempty"`
}

// WriteJSON writes outcomes and their summary as indented JSON.
func WriteJSON(w io.Writer, outcomes []bridge.Outcome, runErr error) error {
	r := JSONReport{Outcomes: outcomes, Summary: bridge.Summarize(outcomes)}
	if r.Outcomes == nil {
		r.Outcomes = []bridge.Outcome{}
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
