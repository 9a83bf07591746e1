package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/config"
	"github.com/vitaminmoo/adbw-tool/internal/discovery"
	"github.com/vitaminmoo/adbw-tool/internal/report"
)

// State prints the transport state adb reports for serial.
func State(ctx context.Context, gw adb.Gateway, w io.Writer, serial string) error {
	config.Debugf("Probing state of %s...", serial)
	state, err := adb.ProbeState(ctx, gw, serial)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, state)
	if adb.ParseState(state) != adb.StateDevice {
		return fmt.Errorf("%w: %s", bridge.ErrDeviceNotReady, state)
	}
	return nil
}

// IP discovers and prints the IPv4 address of serial. With showAttempts
// every query tried is listed as well.
func IP(ctx context.Context, gw adb.Gateway, w io.Writer, serial string, t Tuning, showAttempts bool) error {
	engine := NewEngine(gw, t)
	config.Debugf("Discovering address of %s (up to %d rounds)...", serial, engine.Retries())
	addr, attempts, err := engine.Discover(ctx, serial)

	if showAttempts || errors.Is(err, discovery.ErrAddressNotFound) {
		p := report.NewPrinter(w)
		for _, a := range attempts {
			p.Attempt(a)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, addr)
	return nil
}

// TCPIP switches serial's adb daemon to listen on port.
func TCPIP(ctx context.Context, gw adb.Gateway, w io.Writer, serial string, port int) error {
	ok, msg, err := adb.EnableNetworkMode(ctx, gw, serial, port)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tcpip %d: %s | %s\n", port, verdict(ok), msg)
	if !ok {
		return fmt.Errorf("%w: %s", bridge.ErrModeSwitchFailed, msg)
	}
	return nil
}

// Connect asks the adb server to connect to addr:port.
func Connect(ctx context.Context, gw adb.Gateway, w io.Writer, addr string, port int) error {
	status, msg, err := adb.ConnectWithStatus(ctx, gw, addr, port)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "connect %s: %s | %s\n", adb.HostPort(addr, port), status, msg)
	if status == adb.ConnectFailed {
		return fmt.Errorf("%w: %s", bridge.ErrConnectFailed, msg)
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}
