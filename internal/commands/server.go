package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
)

// RestartServer kills and starts the local adb server.
func RestartServer(ctx context.Context, gw adb.Gateway, w io.Writer) error {
	fmt.Fprintln(w, "Restarting adb server...")
	if err := adb.RestartServer(ctx, gw); err != nil {
		return fmt.Errorf("failed to restart adb server: %w", err)
	}
	fmt.Fprintln(w, "adb server started")
	return nil
}
