// Package adb drives the Android debug bridge binary as a subprocess.
package adb

//go:generate mockgen -destination=mock_gateway.go -package=adb github.com/vitaminmoo/adbw-tool/internal/adb Gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"

	"github.com/vitaminmoo/adbw-tool/internal/config"
)

// DefaultPath is used when no adb path is configured.
const DefaultPath = "adb"

// waitDelay bounds how long Wait blocks on output pipes after the process
// exits. `adb start-server` forks a daemon that inherits them.
const waitDelay = 2 * time.Second

var (
	// ErrLaunch means the adb binary could not be started at all.
	ErrLaunch = errors.New("failed to launch adb")
	// ErrTimeout means an invocation did not finish within its timeout.
	ErrTimeout = errors.New("adb command timed out")
)

// Result is the outcome of one adb invocation. A non-zero ExitCode is a
// valid result, not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited 0.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Message returns stdout if non-empty, otherwise stderr.
func (r Result) Message() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Gateway runs adb with the given arguments.
type Gateway interface {
	Execute(ctx context.Context, args []string, timeout time.Duration) (Result, error)
}

// Exec is the Gateway backed by a real adb binary.
type Exec struct {
	path string
	log  zerolog.Logger
}

// NewExec returns a Gateway invoking the binary at path.
func NewExec(path string) *Exec {
	if path == "" {
		path = DefaultPath
	}
	return &Exec{
		path: path,
		log:  config.Component("adb"),
	}
}

// Path returns the adb binary this gateway invokes.
func (e *Exec) Path() string {
	return e.path
}

// Execute runs adb directly (no shell) and captures both streams.
// On timeout the partial output is returned together with ErrTimeout; a
// cancelled ctx yields context.Canceled instead.
func (e *Exec) Execute(ctx context.Context, args []string, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	line := shellquote.Join(append([]string{e.path}, args...)...)

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			e.log.Debug().Str("cmd", line).Dur("elapsed", elapsed).Msg("timed out")
			return res, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, line)
		}
		e.log.Debug().Str("cmd", line).Dur("elapsed", elapsed).Msg("cancelled")
		return res, fmt.Errorf("%s: %w", line, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("%w: %s: %w", ErrLaunch, e.path, err)
	}

	e.log.Debug().
		Str("cmd", line).
		Int("exit", res.ExitCode).
		Dur("elapsed", elapsed).
		Msg("ran")

	return res, nil
}
