package adb

import (
	"context"
	"errors"
	"strconv"
	"time"
)

const tcpipTimeout = 20 * time.Second

// EnableNetworkMode restarts adbd on the device listening on a TCP port.
// ok is true iff adb exited 0. The device's shell channel is unreliable for
// a moment afterwards.
func EnableNetworkMode(ctx context.Context, gw Gateway, serial string, port int) (bool, string, error) {
	res, err := gw.Execute(ctx, Device(serial, "tcpip", strconv.Itoa(port)), tcpipTimeout)
	if errors.Is(err, ErrLaunch) {
		return false, "", err
	}
	msg := res.Message()
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		return false, msg, nil
	}
	return res.OK(), msg, nil
}
