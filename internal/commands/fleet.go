package commands

import (
	"fmt"
	"io"

	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

// Devices lists devices with their assigned ports.
func Devices(w io.Writer, f *fleet.Fleet, devices []fleet.Device, asJSON bool) error {
	if asJSON {
		return PrintJSON(w, devices)
	}

	fmt.Fprintf(w, "adb:       %s\n", f.AdbPath)
	fmt.Fprintf(w, "base port: %d\n", f.BasePort)
	fmt.Fprintf(w, "devices:   %d\n\n", len(devices))
	for _, d := range devices {
		fmt.Fprintf(w, "  %-24s %d\n", d.Serial, d.Port)
	}
	return nil
}
