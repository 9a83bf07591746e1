package adb

import (
	"context"
	"errors"
	"strings"
	"time"
)

const connectTimeout = 20 * time.Second

// ConnectStatus is how adb answered a connect request.
type ConnectStatus string

const (
	ConnectFailed           ConnectStatus = "failed"
	ConnectConnected        ConnectStatus = "connected"
	ConnectAlreadyConnected ConnectStatus = "already-connected"
)

// ClassifyConnect reads adb connect output. Wording differs between adb
// versions, so only the two stable phrases are matched.
func ClassifyConnect(msg string) ConnectStatus {
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "already connected"):
		return ConnectAlreadyConnected
	case strings.Contains(lowered, "connected to"):
		return ConnectConnected
	default:
		return ConnectFailed
	}
}

// Connect asks the adb server to connect to addr:port.
func Connect(ctx context.Context, gw Gateway, addr string, port int) (bool, string, error) {
	status, msg, err := ConnectWithStatus(ctx, gw, addr, port)
	return status != ConnectFailed, msg, err
}

// ConnectWithStatus is Connect that also distinguishes an existing connection.
func ConnectWithStatus(ctx context.Context, gw Gateway, addr string, port int) (ConnectStatus, string, error) {
	res, err := gw.Execute(ctx, []string{"connect", HostPort(addr, port)}, connectTimeout)
	if errors.Is(err, ErrLaunch) {
		return ConnectFailed, "", err
	}
	msg := res.Message()
	if err != nil && msg == "" {
		msg = err.Error()
	}
	return ClassifyConnect(msg), msg, nil
}
