package commands

import (
	"context"
	"io"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
	"github.com/vitaminmoo/adbw-tool/internal/report"
	"github.com/vitaminmoo/adbw-tool/internal/tui"
)

// BatchOptions controls a bridging run.
type BatchOptions struct {
	Tuning
	AdbPath       string
	RestartServer bool
	JSON          bool
	ShowAttempts  bool
}

// Bridge runs the batch with console output. Per-device failures are
// reported, not returned; only an aborted batch yields an error.
func Bridge(ctx context.Context, gw adb.Gateway, w io.Writer, devices []fleet.Device, opts BatchOptions) error {
	if opts.JSON {
		return bridgeJSON(ctx, gw, w, devices, opts)
	}

	if opts.RestartServer {
		if err := RestartServer(ctx, gw, w); err != nil {
			return err
		}
	}

	p := report.NewPrinter(w)
	p.ShowAttempts = opts.ShowAttempts
	p.Header(opts.AdbPath, len(devices))

	outcomes, err := NewRunner(gw, opts.Tuning, p).Run(ctx, devices)
	p.Summary(outcomes)
	return err
}

func bridgeJSON(ctx context.Context, gw adb.Gateway, w io.Writer, devices []fleet.Device, opts BatchOptions) error {
	if opts.RestartServer {
		if err := adb.RestartServer(ctx, gw); err != nil {
			if werr := report.WriteJSON(w, nil, err); werr != nil {
				return werr
			}
			return err
		}
	}
	outcomes, err := NewRunner(gw, opts.Tuning, bridge.NopObserver{}).Run(ctx, devices)
	if werr := report.WriteJSON(w, outcomes, err); werr != nil {
		return werr
	}
	return err
}

// BridgeTUI runs the batch behind the interactive view, then prints the
// summary once the view closes.
func BridgeTUI(ctx context.Context, gw adb.Gateway, w io.Writer, devices []fleet.Device, opts BatchOptions) error {
	if opts.RestartServer {
		if err := RestartServer(ctx, gw, w); err != nil {
			return err
		}
	}

	batch := func(ctx context.Context, obs bridge.Observer) ([]bridge.Outcome, error) {
		return NewRunner(gw, opts.Tuning, obs).Run(ctx, devices)
	}
	outcomes, err := tui.Run(ctx, opts.AdbPath, devices, batch)
	if outcomes != nil {
		report.NewPrinter(w).Summary(outcomes)
	}
	return err
}
