package tui

import (
	"errors"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

func devices() []fleet.Device {
	return []fleet.Device{{Serial: "aaa"}, {Serial: "bbb", Port: 6000}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelAssignsDefaultPort(t *testing.T) {
	m := NewModel("adb", devices())
	require.Len(t, m.rows, 2)
	assert.Equal(t, fleet.DefaultBasePort, m.rows[0].device.Port)
	assert.Equal(t, 6000, m.rows[1].device.Port)
	assert.True(t, m.running)
	assert.False(t, m.Finished())
}

func TestBatchMessages(t *testing.T) {
	m := NewModel("adb", devices())

	m, _ = update(t, m, deviceStartedMsg{index: 1, device: fleet.Device{Serial: "bbb", Port: 6000}})
	assert.True(t, m.rows[1].active)
	assert.Equal(t, 1, m.cursor)

	m, _ = update(t, m, stepMsg{serial: "bbb", step: bridge.StepDiscover, ok: true, detail: "10.0.0.9"})
	assert.Equal(t, bridge.StepDiscover, m.rows[1].step)
	assert.Equal(t, "10.0.0.9", m.rows[1].address)

	out := bridge.Outcome{Serial: "bbb", Port: 6000, Address: "10.0.0.9", Status: bridge.StatusConnected}
	m, _ = update(t, m, deviceDoneMsg{index: 1, outcome: out})
	assert.False(t, m.rows[1].active)
	assert.True(t, m.rows[1].done)
	assert.InDelta(t, 0.5, m.progress.Percent(), 0.001)

	m, _ = update(t, m, batchDoneMsg{outcomes: []bridge.Outcome{out}})
	assert.True(t, m.Finished())
	assert.False(t, m.running)
	got, err := m.Outcomes()
	require.NoError(t, err)
	assert.Equal(t, []bridge.Outcome{out}, got)

	view := m.View()
	assert.Contains(t, view, "10.0.0.9:6000")
	assert.Contains(t, view, "Done")
}

func TestBatchAbortShowsError(t *testing.T) {
	m := NewModel("adb", devices())
	m, _ = update(t, m, batchDoneMsg{err: errors.New("failed to launch adb")})

	_, err := m.Outcomes()
	require.Error(t, err)
	assert.Contains(t, m.View(), "failed to launch adb")
	assert.Contains(t, m.View(), "Aborted")
}

func TestOutOfRangeMessagesIgnored(t *testing.T) {
	m := NewModel("adb", devices())
	m, _ = update(t, m, deviceStartedMsg{index: 5})
	m, _ = update(t, m, deviceDoneMsg{index: -1})
	m, _ = update(t, m, stepMsg{serial: "zzz", step: bridge.StepState})
	for _, r := range m.rows {
		assert.False(t, r.active)
		assert.False(t, r.done)
	}
}

func TestKeys(t *testing.T) {
	m := NewModel("adb", devices())

	m, _ = update(t, m, keyMsg("k"))
	assert.Equal(t, 1, m.cursor, "up wraps to last row")
	m, _ = update(t, m, keyMsg("j"))
	assert.Equal(t, 0, m.cursor, "down wraps to first row")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.showDetails)
	assert.Contains(t, m.View(), "serial:")

	m, _ = update(t, m, keyMsg("?"))
	assert.True(t, m.help.ShowAll)

	_, cmd := update(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSpinnerStopsAfterBatch(t *testing.T) {
	m := NewModel("adb", devices())
	m, _ = update(t, m, batchDoneMsg{})
	_, cmd := update(t, m, m.spinner.Tick())
	assert.Nil(t, cmd)
}

func TestProgramObserverForwards(t *testing.T) {
	var got []tea.Msg
	obs := &programObserver{send: func(msg tea.Msg) { got = append(got, msg) }}

	d := fleet.Device{Serial: "aaa", Port: 5555}
	obs.DeviceStarted(0, 1, d)
	obs.StepFinished(d, bridge.StepState, true, "device")
	obs.DeviceFinished(0, 1, bridge.Outcome{Serial: "aaa"})

	require.Len(t, got, 3)
	assert.Equal(t, deviceStartedMsg{index: 0, device: d}, got[0])
	assert.Equal(t, stepMsg{serial: "aaa", step: bridge.StepState, ok: true, detail: "device"}, got[1])
	assert.Equal(t, deviceDoneMsg{index: 0, outcome: bridge.Outcome{Serial: "aaa"}}, got[2])
}

func TestProgressEmptyBatch(t *testing.T) {
	p := NewProgressState()
	p.Start(0)
	assert.Equal(t, 1.0, p.Percent())
	p.Advance("x")
	assert.Contains(t, p.View(), "0/0 devices")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	for _, s := range []string{
		"échec de la connexion à 10.0.0.5:5555",
		"接続に失敗しました: 10.0.0.5:5555",
	} {
		got := truncate(s, 12)
		assert.True(t, utf8.ValidString(got), got)
		assert.LessOrEqual(t, ansi.StringWidth(got), 12, got)
		assert.Contains(t, got, "…")
	}
}

func TestFailedRowWithMultibyteMessage(t *testing.T) {
	m := NewModel("adb", devices())
	msg := "échec: périphérique introuvable, réessayez plus tard avec un câble différent"
	m, _ = update(t, m, deviceDoneMsg{index: 0, outcome: bridge.Outcome{Serial: "aaa", Status: bridge.StatusFailed, Message: msg}})
	assert.True(t, utf8.ValidString(m.View()))
}
