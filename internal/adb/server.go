package adb

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const serverTimeout = 10 * time.Second

// KillServer stops the local adb server.
func KillServer(ctx context.Context, gw Gateway) error {
	return serverCmd(ctx, gw, "kill-server")
}

// StartServer starts the local adb server.
func StartServer(ctx context.Context, gw Gateway) error {
	return serverCmd(ctx, gw, "start-server")
}

// RestartServer kills then starts the local adb server. A failed kill is
// ignored since no server may be running.
func RestartServer(ctx context.Context, gw Gateway) error {
	if err := KillServer(ctx, gw); err != nil {
		if errors.Is(err, ErrLaunch) {
			return err
		}
	}
	return StartServer(ctx, gw)
}

func serverCmd(ctx context.Context, gw Gateway, verb string) error {
	res, err := gw.Execute(ctx, []string{verb}, serverTimeout)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("adb %s: exit %d: %s", verb, res.ExitCode, res.Message())
	}
	return nil
}
