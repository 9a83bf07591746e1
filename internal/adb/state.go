package adb

import (
	"context"
	"errors"
	"strings"
	"time"
)

const stateTimeout = 10 * time.Second

// State is the transport state adb reports for a device.
type State string

const (
	StateDevice       State = "device"
	StateOffline      State = "offline"
	StateUnauthorized State = "unauthorized"
	StateUnknown      State = "unknown"
)

// ParseState maps get-state text onto a known State.
func ParseState(s string) State {
	switch st := State(strings.TrimSpace(s)); st {
	case StateDevice, StateOffline, StateUnauthorized:
		return st
	default:
		return StateUnknown
	}
}

// ProbeState asks adb for the device's transport state.
//
// The returned text is stdout when the query succeeded with output, else
// stderr if any, else "unknown". A failed query is never reported as a
// definitive state. Only a launch failure is returned as an error.
func ProbeState(ctx context.Context, gw Gateway, serial string) (string, error) {
	res, err := gw.Execute(ctx, Device(serial, "get-state"), stateTimeout)
	if errors.Is(err, ErrLaunch) {
		return "", err
	}
	if err == nil && res.OK() && res.Stdout != "" {
		return res.Stdout, nil
	}
	if res.Stderr != "" {
		return res.Stderr, nil
	}
	return string(StateUnknown), nil
}
