package adb

import "strconv"

// Device returns args targeting a single device by serial.
func Device(serial string, args ...string) []string {
	return append([]string{"-s", serial}, args...)
}

// Shell returns args running a shell command on the device.
func Shell(serial string, args ...string) []string {
	return Device(serial, append([]string{"shell"}, args...)...)
}

// HostPort joins an address and port the way adb connect expects.
func HostPort(addr string, port int) string {
	return addr + ":" + strconv.Itoa(port)
}
