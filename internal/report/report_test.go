package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/discovery"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

func TestPrinterConnectedDevice(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	d := fleet.Device{Serial: "abc", Port: 5555}

	p.DeviceStarted(0, 1, d)
	p.StepFinished(d, bridge.StepState, true, "device")
	p.StepFinished(d, bridge.StepDiscover, true, "10.0.0.5")
	p.StepFinished(d, bridge.StepTCPIP, true, "restarting in TCP mode port: 5555")
	p.StepFinished(d, bridge.StepSettle, true, "800ms")
	p.StepFinished(d, bridge.StepConnect, true, "connected to 10.0.0.5:5555")
	p.DeviceFinished(0, 1, bridge.Outcome{Serial: "abc", Status: bridge.StatusConnected})

	want := "== abc ==\n" +
		"  assigned port: 5555\n" +
		"  state: device\n" +
		"  ip: 10.0.0.5\n" +
		"  tcpip 5555: OK | restarting in TCP mode port: 5555\n" +
		"  connect 10.0.0.5:5555: OK | connected to 10.0.0.5:5555\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinterSkippedDevices(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.ShowAttempts = true

	b := fleet.Device{Serial: "b", Port: 5555}
	p.DeviceStarted(0, 2, b)
	p.StepFinished(b, bridge.StepState, false, "offline")
	p.DeviceFinished(0, 2, bridge.Outcome{Serial: "b", Status: bridge.StatusSkipped, Reason: bridge.ReasonNotReady})

	c := fleet.Device{Serial: "c", Port: 5555}
	p.DeviceStarted(1, 2, c)
	p.StepFinished(c, bridge.StepState, true, "device")
	p.StepFinished(c, bridge.StepDiscover, false, "no IPv4 address found")
	p.DeviceFinished(1, 2, bridge.Outcome{
		Serial: "c",
		Status: bridge.StatusSkipped,
		Reason: bridge.ReasonNoAddress,
		Attempts: []discovery.Attempt{
			{Round: 1, Strategy: discovery.StrategyRoute, ExitCode: 1},
			{Round: 1, Strategy: discovery.StrategyAddr, Interface: "wlan0", Err: "adb command timed out"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "state: offline\n")
	assert.Contains(t, out, "not in 'device' state")
	assert.Contains(t, out, "no IPv4 address")
	assert.Contains(t, out, "ip-addr wlan0")
	assert.Contains(t, out, "adb command timed out")
	assert.Contains(t, out, "exit 1")
	assert.NotContains(t, out, "tcpip")
}

func TestPrinterFailedConnect(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	d := fleet.Device{Serial: "abc", Port: 5555}

	p.DeviceStarted(0, 1, d)
	p.StepFinished(d, bridge.StepDiscover, true, "10.0.0.5")
	p.StepFinished(d, bridge.StepTCPIP, false, "error: closed")
	p.StepFinished(d, bridge.StepConnect, false, "unable to connect")

	assert.Contains(t, buf.String(), "  tcpip 5555: FAIL | error: closed\n")
	assert.Contains(t, buf.String(), "  connect 10.0.0.5:5555: FAIL | unable to connect\n")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Summary([]bridge.Outcome{
		{Status: bridge.StatusConnected},
		{Status: bridge.StatusSkipped, Reason: bridge.ReasonNotReady},
	})
	assert.Equal(t, "Done. connected 1, already connected 0, failed 0, not ready 1, no address 0 (of 2)\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []bridge.Outcome{
		{Serial: "a", Port: 5555, State: "device", Address: "10.0.0.5", Status: bridge.StatusConnected, Err: errors.New("hidden")},
		{Serial: "b", Port: 5555, State: "offline", Status: bridge.StatusSkipped, Reason: bridge.ReasonNotReady},
	}
	require.NoError(t, WriteJSON(&buf, outcomes, errors.New("failed to launch adb")))

	var got JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Outcomes, 2)
	assert.Equal(t, "10.0.0.5", got.Outcomes[0].Address)
	assert.Equal(t, bridge.ReasonNotReady, got.Outcomes[1].Reason)
	assert.Equal(t, 1, got.Summary.Connected)
	assert.Equal(t, "failed to launch adb", got.Error)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, nil))
	assert.Contains(t, buf.String(), `"outcomes": []`)
}
