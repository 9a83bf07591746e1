// Package fleet describes the set of devices a batch run works through.
package fleet

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBasePort is the adb tcpip port used when a fleet file sets none.
const DefaultBasePort = 5555

//go:embed default.yaml
var defaultFleet []byte

var (
	ErrNoDevices       = errors.New("fleet has no devices")
	ErrEmptySerial     = errors.New("device serial is empty")
	ErrDuplicateSerial = errors.New("duplicate device serial")
	ErrInvalidPort     = errors.New("port out of range")
	ErrUnknownSerial   = errors.New("serial not in fleet")
)

// Device is one entry of the fleet. Port is the resolved tcpip port.
type Device struct {
	Serial string `yaml:"serial" json:"serial"`
	Port   int    `yaml:"port,omitempty" json:"port"`
}

// Fleet is the device list plus the adb binary that reaches them.
type Fleet struct {
	AdbPath  string   `yaml:"adb"`
	BasePort int      `yaml:"base_port"`
	Devices  []Device `yaml:"devices"`
}

// AssignPort returns the tcpip port for the device at index.
//
// Every device gets the base port; index is unused.
func AssignPort(basePort, _ int) int {
	return basePort
}

// DefaultPath returns the per-user fleet file path (~/.adbw/fleet.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".adbw", "fleet.yaml"), nil
}

// Default returns the built-in fleet.
func Default() *Fleet {
	f, err := Parse(defaultFleet)
	if err != nil {
		panic(fmt.Sprintf("built-in fleet is invalid: %v", err))
	}
	return f
}

// Load reads a fleet file.
func Load(path string) (*Fleet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// LoadOrDefault loads path if given, else the per-user file if it exists,
// else the built-in fleet.
func LoadOrDefault(path string) (*Fleet, error) {
	if path != "" {
		return Load(path)
	}
	if p, err := DefaultPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// Parse decodes and validates fleet YAML, resolving every device's port.
func Parse(data []byte) (*Fleet, error) {
	var f Fleet
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fleet: %w", err)
	}
	if f.BasePort == 0 {
		f.BasePort = DefaultBasePort
	}
	for i := range f.Devices {
		if f.Devices[i].Port == 0 {
			f.Devices[i].Port = AssignPort(f.BasePort, i)
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks serials are present and unique and ports are in range.
func (f *Fleet) Validate() error {
	if len(f.Devices) == 0 {
		return ErrNoDevices
	}
	if !validPort(f.BasePort) {
		return fmt.Errorf("%w: base_port %d", ErrInvalidPort, f.BasePort)
	}
	seen := make(map[string]bool, len(f.Devices))
	for i, d := range f.Devices {
		if d.Serial == "" {
			return fmt.Errorf("%w: device %d", ErrEmptySerial, i)
		}
		if seen[d.Serial] {
			return fmt.Errorf("%w: %s", ErrDuplicateSerial, d.Serial)
		}
		seen[d.Serial] = true
		if !validPort(d.Port) {
			return fmt.Errorf("%w: %s port %d", ErrInvalidPort, d.Serial, d.Port)
		}
	}
	return nil
}

// Filter returns the devices with the given serials, in fleet order. No
// serials means every device.
func (f *Fleet) Filter(serials []string) ([]Device, error) {
	if len(serials) == 0 {
		return append([]Device(nil), f.Devices...), nil
	}

	want := make(map[string]bool, len(serials))
	for _, s := range serials {
		want[s] = true
	}

	var out []Device
	for _, d := range f.Devices {
		if want[d.Serial] {
			out = append(out, d)
			delete(want, d.Serial)
		}
	}
	for _, s := range serials {
		if want[s] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSerial, s)
		}
	}
	return out, nil
}

// Lookup returns the device with serial, or an ad-hoc device on the base
// port if the fleet does not list it.
func (f *Fleet) Lookup(serial string) Device {
	for _, d := range f.Devices {
		if d.Serial == serial {
			return d
		}
	}
	return Device{Serial: serial, Port: AssignPort(f.BasePort, len(f.Devices))}
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
