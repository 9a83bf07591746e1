package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/commands"
	"github.com/vitaminmoo/adbw-tool/internal/config"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

// CLI is the root command structure for adbw.
type CLI struct {
	Verbose  bool   `short:"v" help:"Enable verbose debug output"`
	LogLevel string `name:"log-level" help:"Log level: trace, debug, info, warn or error (overrides --verbose)"`
	Adb      string `env:"ADBW_ADB" help:"Path to the adb binary (default: fleet file, then PATH)"`
	Fleet    string `env:"ADBW_FLEET" help:"Fleet YAML file (default: ~/.adbw/fleet.yaml, then built-in list)"`

	// Default command - TUI
	Tui TuiCmd `cmd:"" default:"withargs" help:"Bridge the fleet with an interactive progress view (default)"`

	Run     RunCmd     `cmd:"" help:"Bridge the fleet with plain console output"`
	State   StateCmd   `cmd:"" help:"Show a device's adb state"`
	IP      IPCmd      `cmd:"" name:"ip" help:"Discover a device's IPv4 address"`
	Tcpip   TcpipCmd   `cmd:"" help:"Switch a device to adb over TCP"`
	Connect ConnectCmd `cmd:"" help:"Connect the adb server to a device over TCP"`
	Devices DevicesCmd `cmd:"" help:"List the configured fleet"`
	Server  ServerCmd  `cmd:"" help:"adb server control"`
}

// env is what every command needs after the globals are applied.
type env struct {
	ctx   context.Context
	fleet *fleet.Fleet
	gw    *adb.Exec
}

// stderr receives log output for commands that do not own the screen.
var stderr io.Writer = os.Stderr

func (g *CLI) logRequested() bool {
	return g.Verbose || g.LogLevel != ""
}

// setupLogging sends logs to stderr. Quiet commands print their own report,
// so they only log errors unless -v or --log-level asks for more.
func (g *CLI) setupLogging(quiet bool) error {
	level := g.LogLevel
	if quiet && !g.logRequested() {
		level = zerolog.LevelErrorValue
	}
	return config.Setup(stderr, g.Verbose, level)
}

// setupScreenLogging keeps logs off the TUI's alt screen. They are dropped,
// or appended to logFile when -v or --log-level asks for them.
func (g *CLI) setupScreenLogging(logFile string) (io.Closer, error) {
	if !g.logRequested() {
		return io.NopCloser(nil), config.Setup(stderr, false, zerolog.Disabled.String())
	}
	f, err := tea.LogToFile(logFile, "adbw")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := config.Setup(f, g.Verbose, g.LogLevel); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (g *CLI) setup() (*env, error) {
	if err := g.setupLogging(false); err != nil {
		return nil, err
	}
	return g.load()
}

func (g *CLI) load() (*env, error) {
	f, err := fleet.LoadOrDefault(g.Fleet)
	if err != nil {
		return nil, err
	}

	path := g.Adb
	if path == "" {
		path = f.AdbPath
	}
	config.Debugf("using adb at %q, %d devices", path, len(f.Devices))

	return &env{
		ctx:   context.Background(),
		fleet: f,
		gw:    adb.NewExec(path),
	}, nil
}

// --- Batch Commands ---

// BatchFlags are shared by the tui and run commands.
type BatchFlags struct {
	Serial        []string      `short:"s" help:"Only bridge these serials (repeatable)"`
	RestartServer bool          `name:"restart-server" help:"Kill and restart the adb server first"`
	Retries       int           `default:"${retries}" help:"Address discovery rounds per device"`
	RetryDelay    time.Duration `name:"retry-delay" default:"${retry_delay}" help:"Pause between discovery rounds"`
	Settle        time.Duration `default:"${settle}" help:"Pause between tcpip and connect"`
	Iface         []string      `name:"iface" help:"Interfaces the address queries look at, in order (default: wlan0, eth0)"`
}

func (b BatchFlags) options(e *env) commands.BatchOptions {
	return commands.BatchOptions{
		Tuning: commands.Tuning{
			Retries:    b.Retries,
			RetryDelay: b.RetryDelay,
			Settle:     b.Settle,
			Interfaces: b.Iface,
		},
		AdbPath:       e.gw.Path(),
		RestartServer: b.RestartServer,
	}
}

type TuiCmd struct {
	BatchFlags `embed:""`

	LogFile string `name:"log-file" default:"adbw.log" help:"Where logs go while the TUI runs (only with -v or --log-level)"`
}

func (c *TuiCmd) Run(globals *CLI) error {
	closer, err := globals.setupScreenLogging(c.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	e, err := globals.load()
	if err != nil {
		return err
	}
	devices, err := e.fleet.Filter(c.Serial)
	if err != nil {
		return err
	}
	return commands.BridgeTUI(e.ctx, e.gw, os.Stdout, devices, c.options(e))
}

type RunCmd struct {
	BatchFlags `embed:""`

	JSON     bool `help:"Print outcomes as JSON"`
	Attempts bool `help:"List every discovery query for devices without an address"`
}

func (c *RunCmd) Run(globals *CLI) error {
	if err := globals.setupLogging(true); err != nil {
		return err
	}
	e, err := globals.load()
	if err != nil {
		return err
	}
	devices, err := e.fleet.Filter(c.Serial)
	if err != nil {
		return err
	}
	opts := c.options(e)
	opts.JSON = c.JSON
	opts.ShowAttempts = c.Attempts
	return commands.Bridge(e.ctx, e.gw, os.Stdout, devices, opts)
}

// --- Single Device Commands ---

type StateCmd struct {
	Serial string `arg:"" help:"Device serial"`
}

func (c *StateCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	return commands.State(e.ctx, e.gw, os.Stdout, c.Serial)
}

type IPCmd struct {
	Serial     string        `arg:"" help:"Device serial"`
	Retries    int           `default:"${retries}" help:"Discovery rounds"`
	RetryDelay time.Duration `name:"retry-delay" default:"${retry_delay}" help:"Pause between rounds"`
	Iface      []string      `name:"iface" help:"Interfaces the address queries look at, in order (default: wlan0, eth0)"`
	Attempts   bool          `help:"List every query tried"`
}

func (c *IPCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	t := commands.Tuning{Retries: c.Retries, RetryDelay: c.RetryDelay, Interfaces: c.Iface}
	return commands.IP(e.ctx, e.gw, os.Stdout, c.Serial, t, c.Attempts)
}

type TcpipCmd struct {
	Serial string `arg:"" help:"Device serial"`
	Port   int    `help:"Port to listen on (default: the device's fleet port)"`
}

func (c *TcpipCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	port := c.Port
	if port == 0 {
		port = e.fleet.Lookup(c.Serial).Port
	}
	return commands.TCPIP(e.ctx, e.gw, os.Stdout, c.Serial, port)
}

type ConnectCmd struct {
	Addr string `arg:"" help:"Device IPv4 address"`
	Port int    `default:"${base_port}" help:"Port the device listens on"`
}

func (c *ConnectCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	return commands.Connect(e.ctx, e.gw, os.Stdout, c.Addr, c.Port)
}

// --- Fleet Commands ---

type DevicesCmd struct {
	Serial []string `short:"s" help:"Only list these serials (repeatable)"`
	JSON   bool     `help:"Print as JSON"`
}

func (c *DevicesCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	devices, err := e.fleet.Filter(c.Serial)
	if err != nil {
		return err
	}
	return commands.Devices(os.Stdout, e.fleet, devices, c.JSON)
}

// --- Server Commands ---

type ServerCmd struct {
	Restart ServerRestartCmd `cmd:"" help:"Kill and restart the local adb server"`
}

type ServerRestartCmd struct{}

func (c *ServerRestartCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	return commands.RestartServer(e.ctx, e.gw, os.Stdout)
}

// Vars are the kong interpolation variables used in flag defaults.
func Vars() kong.Vars {
	t := commands.DefaultTuning()
	return kong.Vars{
		"base_port":   strconv.Itoa(fleet.DefaultBasePort),
		"retries":     strconv.Itoa(t.Retries),
		"retry_delay": t.RetryDelay.String(),
		"settle":      t.Settle.String(),
	}
}
