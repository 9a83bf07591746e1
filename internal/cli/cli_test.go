package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/adb/adbtest"
	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/commands"
	"github.com/vitaminmoo/adbw-tool/internal/config"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var c CLI
	parser, err := kong.New(&c, kong.Name("adbw"), Vars(), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &c, ctx
}

func TestDefaultCommandIsTUI(t *testing.T) {
	c, ctx := parse(t)
	assert.Equal(t, "tui", ctx.Command())
	assert.Equal(t, 4, c.Tui.Retries)
	assert.Equal(t, 800*time.Millisecond, c.Tui.RetryDelay)
	assert.Equal(t, 800*time.Millisecond, c.Tui.Settle)
}

func TestRunFlags(t *testing.T) {
	c, ctx := parse(t, "-v", "run", "--json", "-s", "a", "-s", "b", "--retries", "2", "--retry-delay", "1s", "--restart-server")
	assert.Equal(t, "run", ctx.Command())
	assert.True(t, c.Verbose)
	assert.True(t, c.Run.JSON)
	assert.True(t, c.Run.RestartServer)
	assert.Equal(t, []string{"a", "b"}, c.Run.Serial)
	assert.Equal(t, 2, c.Run.Retries)
	assert.Equal(t, time.Second, c.Run.RetryDelay)
}

func TestDeviceCommands(t *testing.T) {
	_, ctx := parse(t, "ip", "R58M123")
	assert.Equal(t, "ip <serial>", ctx.Command())

	c, ctx := parse(t, "connect", "10.0.0.5")
	assert.Equal(t, "connect <addr>", ctx.Command())
	assert.Equal(t, 5555, c.Connect.Port)

	c, _ = parse(t, "tcpip", "R58M123", "--port", "5557")
	assert.Equal(t, 5557, c.Tcpip.Port)

	_, ctx = parse(t, "server", "restart")
	assert.Equal(t, "server restart", ctx.Command())
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("ADBW_ADB", "/opt/platform-tools/adb")
	t.Setenv("ADBW_FLEET", "/etc/adbw/fleet.yaml")

	c, _ := parse(t, "devices")
	assert.Equal(t, "/opt/platform-tools/adb", c.Adb)
	assert.Equal(t, "/etc/adbw/fleet.yaml", c.Fleet)
}

func TestSetupResolvesAdbPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adb: /usr/local/bin/adb\ndevices:\n  - serial: a\n"), 0o644))

	g := &CLI{Fleet: path}
	e, err := g.setup()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/adb", e.gw.Path())
	assert.Len(t, e.fleet.Devices, 1)

	g.Adb = "/bin/adb"
	e, err = g.setup()
	require.NoError(t, err)
	assert.Equal(t, "/bin/adb", e.gw.Path())
}

func TestSetupRejectsBadLogLevel(t *testing.T) {
	g := &CLI{LogLevel: "loud"}
	_, err := g.setup()
	require.Error(t, err)
}

func TestIfaceFlag(t *testing.T) {
	c, _ := parse(t, "run", "--iface", "rmnet0", "--iface", "wlan1")
	assert.Equal(t, []string{"rmnet0", "wlan1"}, c.Run.Iface)
	assert.Equal(t, []string{"rmnet0", "wlan1"}, c.Run.options(&env{gw: adb.NewExec("")}).Interfaces)

	c, _ = parse(t, "ip", "R58M123", "--iface", "eth1")
	assert.Equal(t, []string{"eth1"}, c.IP.Iface)
}

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stderr
	stderr = &buf
	t.Cleanup(func() {
		stderr = old
		_ = config.Setup(os.Stderr, false, "")
	})
	return &buf
}

// runMixedBatch bridges one reachable and one offline device.
func runMixedBatch(t *testing.T) {
	t.Helper()
	f := adbtest.New().
		Stdout(adb.Device("a", "get-state"), "device").
		Stdout(adb.Shell("a", "ip", "route", "get", "1.1.1.1"), "src 10.0.0.5").
		Stdout(adb.Device("a", "tcpip", "5555"), "restarting in TCP mode port: 5555").
		Stdout([]string{"connect", "10.0.0.5:5555"}, "connected to 10.0.0.5:5555").
		Stdout(adb.Device("b", "get-state"), "offline")

	devices := []fleet.Device{{Serial: "a", Port: 5555}, {Serial: "b", Port: 5555}}
	runner := commands.NewRunner(f, commands.Tuning{Retries: 1}, bridge.NopObserver{})
	outcomes, err := runner.Run(context.Background(), devices)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
}

func TestScreenLoggingSilentByDefault(t *testing.T) {
	buf := captureStderr(t)
	logFile := filepath.Join(t.TempDir(), "adbw.log")

	closer, err := (&CLI{}).setupScreenLogging(logFile)
	require.NoError(t, err)
	runMixedBatch(t)
	require.NoError(t, closer.Close())

	assert.Empty(t, buf.String())
	assert.NoFileExists(t, logFile)
}

func TestScreenLoggingVerboseGoesToFile(t *testing.T) {
	buf := captureStderr(t)
	logFile := filepath.Join(t.TempDir(), "adbw.log")

	closer, err := (&CLI{Verbose: true}).setupScreenLogging(logFile)
	require.NoError(t, err)
	runMixedBatch(t)
	require.NoError(t, closer.Close())

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "batch started")
	assert.NotContains(t, string(data), "\x1b[")
}

func TestRunLoggingQuietByDefault(t *testing.T) {
	buf := captureStderr(t)

	require.NoError(t, (&CLI{}).setupLogging(true))
	runMixedBatch(t)
	assert.Empty(t, buf.String())
}

func TestRunLoggingVerbose(t *testing.T) {
	buf := captureStderr(t)

	require.NoError(t, (&CLI{Verbose: true}).setupLogging(true))
	runMixedBatch(t)
	assert.Contains(t, buf.String(), "batch started")
	assert.Contains(t, buf.String(), "not ready")
	assert.NotContains(t, buf.String(), "\x1b[")
}
