package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

// row is the live view of one device.
type row struct {
	device  fleet.Device
	active  bool
	done    bool
	step    bridge.Step
	detail  string
	address string
	outcome bridge.Outcome
}

// Model is the main Bubbletea model for the TUI.
type Model struct {
	// State
	rows        []row
	cursor      int
	showDetails bool
	width       int
	height      int
	adbPath     string

	// Batch
	running  bool
	finished bool
	outcomes []bridge.Outcome
	err      error

	// Components
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	progress ProgressState
	styles   Styles
}

// --- Messages sent by the batch goroutine ---

// deviceStartedMsg signals the batch moved on to a device.
type deviceStartedMsg struct {
	index  int
	device fleet.Device
}

// stepMsg reports one finished pipeline step.
type stepMsg struct {
	serial string
	step   bridge.Step
	ok     bool
	detail string
}

// deviceDoneMsg delivers a device's final outcome.
type deviceDoneMsg struct {
	index   int
	outcome bridge.Outcome
}

// batchDoneMsg signals the whole batch returned.
type batchDoneMsg struct {
	outcomes []bridge.Outcome
	err      error
}

// NewModel creates a model for a batch over devices.
func NewModel(adbPath string, devices []fleet.Device) Model {
	h := help.New()
	h.ShowAll = false

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	rows := make([]row, len(devices))
	for i, d := range devices {
		if d.Port == 0 {
			d.Port = fleet.AssignPort(fleet.DefaultBasePort, i)
		}
		rows[i] = row{device: d}
	}

	p := NewProgressState()
	p.Start(len(devices))

	return Model{
		rows:     rows,
		adbPath:  adbPath,
		running:  true,
		keys:     DefaultKeyMap(),
		help:     h,
		spinner:  s,
		progress: p,
		styles:   DefaultStyles(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Outcomes returns the batch result once it finished.
func (m Model) Outcomes() ([]bridge.Outcome, error) {
	return m.outcomes, m.err
}

// Finished reports whether the batch returned.
func (m Model) Finished() bool {
	return m.finished
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case deviceStartedMsg:
		if msg.index < 0 || msg.index >= len(m.rows) {
			return m, nil
		}
		r := &m.rows[msg.index]
		r.device = msg.device
		r.active = true
		m.cursor = msg.index
		return m, nil

	case stepMsg:
		r := m.find(msg.serial)
		if r == nil {
			return m, nil
		}
		r.step = msg.step
		r.detail = msg.detail
		if msg.step == bridge.StepDiscover && msg.ok {
			r.address = msg.detail
		}
		return m, nil

	case deviceDoneMsg:
		if msg.index < 0 || msg.index >= len(m.rows) {
			return m, nil
		}
		r := &m.rows[msg.index]
		r.active = false
		r.done = true
		r.outcome = msg.outcome
		m.progress.Advance(msg.outcome.Serial + " " + string(msg.outcome.Status))
		return m, nil

	case batchDoneMsg:
		m.running = false
		m.finished = true
		m.outcomes = msg.outcomes
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m *Model) find(serial string) *row {
	for i := range m.rows {
		if m.rows[i].device.Serial == serial {
			return &m.rows[i]
		}
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		if m.cursor < 0 {
			m.cursor = max(len(m.rows)-1, 0)
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		if m.cursor >= len(m.rows) {
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Details):
		m.showDetails = !m.showDetails
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar())
	b.WriteString("\n")

	for i, r := range m.rows {
		b.WriteString(m.renderRow(i, r))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n")

	if m.showDetails && m.cursor < len(m.rows) {
		b.WriteString("\n")
		b.WriteString(m.renderDetails(m.rows[m.cursor]))
	}

	if m.finished {
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
	}

	helpView := m.styles.Help.Render(m.help.View(m.keys))

	return m.styles.App.Render(b.String() + "\n" + helpView)
}

// renderTitleBar renders the title with the batch status.
func (m Model) renderTitleBar() string {
	parts := []string{m.styles.Title.Render("adbw")}

	switch {
	case m.running:
		parts = append(parts, m.spinner.View()+" "+m.styles.Warning.Render("Bridging..."))
	case m.err != nil:
		parts = append(parts, m.styles.Error.Render("● Aborted"))
	default:
		parts = append(parts, m.styles.Success.Render("● Done"))
	}
	parts = append(parts, m.styles.Muted.Render(m.adbPath))

	return strings.Join(parts, "  ")
}

func (m Model) renderRow(i int, r row) string {
	marker := "  "
	style := m.styles.Row
	if i == m.cursor {
		marker = "> "
		style = m.styles.RowSelected
	}

	var status string
	switch {
	case r.active:
		status = m.spinner.View() + " " + m.styles.Warning.Render(string(r.step))
		if r.detail != "" {
			status += " " + m.styles.Muted.Render(truncate(r.detail, 40))
		}
	case r.done:
		status = m.renderStatus(r.outcome)
	default:
		status = m.styles.Muted.Render("pending")
	}

	return marker + style.Render(m.styles.Serial.Render(r.device.Serial)) + " " + status
}

func (m Model) renderStatus(o bridge.Outcome) string {
	switch o.Status {
	case bridge.StatusConnected, bridge.StatusAlreadyConnected:
		return m.styles.Success.Render(fmt.Sprintf("✓ %s %s", o.Status, adb.HostPort(o.Address, o.Port)))
	case bridge.StatusSkipped:
		return m.styles.Warning.Render(fmt.Sprintf("- skipped (%s)", o.Reason))
	case bridge.StatusFailed:
		return m.styles.Error.Render("✗ failed " + truncate(o.Message, 40))
	default:
		return m.styles.Muted.Render(string(o.Status))
	}
}

func (m Model) renderDetails(r row) string {
	var b strings.Builder
	b.WriteString(m.renderField("serial", r.device.Serial))
	b.WriteString(m.renderField("port", fmt.Sprint(r.device.Port)))
	if !r.done {
		if r.address != "" {
			b.WriteString(m.renderField("address", r.address))
		}
		return b.String()
	}

	o := r.outcome
	if o.State != "" {
		b.WriteString(m.renderField("state", o.State))
	}
	if o.Address != "" {
		b.WriteString(m.renderField("address", o.Address))
	}
	if o.TCPIP != nil {
		b.WriteString(m.renderField("tcpip", verdict(o.TCPIP.OK)+" "+o.TCPIP.Message))
	}
	if o.Message != "" {
		b.WriteString(m.renderField("message", o.Message))
	}
	for _, a := range o.Attempts {
		label := a.Strategy
		if a.Interface != "" {
			label += " " + a.Interface
		}
		result := a.Address
		if result == "" {
			result = fmt.Sprintf("exit %d", a.ExitCode)
			if a.Err != "" {
				result = a.Err
			}
		}
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  #%d %s: %s", a.Round, label, result)) + "\n")
	}
	return b.String()
}

func (m Model) renderSummary() string {
	s := bridge.Summarize(m.outcomes)
	line := fmt.Sprintf("connected %d  already %d  failed %d  not ready %d  no address %d",
		s.Connected, s.AlreadyConnected, s.Failed, s.NotReady, s.NoAddress)
	if m.err != nil {
		return line + "\n" + m.styles.Error.Render(m.err.Error())
	}
	return line
}

func (m Model) renderField(label, value string) string {
	return m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(value) + "\n"
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

// truncate shortens s to at most width terminal cells.
func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
