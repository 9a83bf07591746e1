package adb

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellGateway(t *testing.T) *Exec {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return NewExec(sh)
}

func TestExecCapturesStreamsAndExitCode(t *testing.T) {
	gw := shellGateway(t)

	res, err := gw.Execute(context.Background(), []string{"-c", "echo '  out  '; echo err >&2; exit 3"}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out", res.Stdout)
	assert.Equal(t, "err", res.Stderr)
	assert.False(t, res.OK())
	assert.Equal(t, "out", res.Message())
}

func TestExecDoesNotUseShellExpansion(t *testing.T) {
	gw := shellGateway(t)

	// $HOME reaches sh as a literal positional argument, not expanded by us.
	res, err := gw.Execute(context.Background(), []string{"-c", `printf %s "$1"`, "sh", "$HOME;id"}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "$HOME;id", res.Stdout)
}

func TestExecTimeout(t *testing.T) {
	gw := shellGateway(t)

	res, err := gw.Execute(context.Background(), []string{"-c", "exec sleep 5"}, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, -1, res.ExitCode)
}

func TestExecCancelledIsNotTimeout(t *testing.T) {
	gw := shellGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res, err := gw.Execute(ctx, []string{"-c", "exec sleep 5"}, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrLaunch)
	assert.Equal(t, -1, res.ExitCode)
}

func TestExecAlreadyCancelled(t *testing.T) {
	gw := shellGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Execute(ctx, []string{"-c", "true"}, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestExecLaunchError(t *testing.T) {
	gw := NewExec("/nonexistent/adb-binary")

	_, err := gw.Execute(context.Background(), []string{"version"}, time.Second)
	require.ErrorIs(t, err, ErrLaunch)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestNewExecDefaultsPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewExec("").Path())
}

func TestResultMessageFallsBackToStderr(t *testing.T) {
	assert.Equal(t, "boom", Result{ExitCode: 1, Stderr: "boom"}.Message())
	assert.Equal(t, "", Result{}.Message())
}
