package bridge

import (
	"errors"
	"time"

	"github.com/vitaminmoo/adbw-tool/internal/discovery"
)

// Status is the final result for one device.
type Status string

const (
	StatusNotAttempted     Status = "not-attempted"
	StatusSkipped          Status = "skipped"
	StatusConnected        Status = "connected"
	StatusAlreadyConnected Status = "already-connected"
	StatusFailed           Status = "failed"
)

// Skip reasons.
const (
	ReasonNotReady  = "not-ready"
	ReasonNoAddress = "no-address"
)

var (
	ErrDeviceNotReady   = errors.New("device not ready")
	ErrModeSwitchFailed = errors.New("tcpip mode switch failed")
	ErrConnectFailed    = errors.New("connect failed")
)

// StepResult is the ok flag and adb's message for one command.
type StepResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Outcome is what happened to one device during a batch.
type Outcome struct {
	Serial   string              `json:"serial"`
	Port     int                 `json:"port"`
	State    string              `json:"state,omitempty"`
	Address  string              `json:"address,omitempty"`
	Status   Status              `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	TCPIP    *StepResult         `json:"tcpip,omitempty"`
	Message  string              `json:"message,omitempty"`
	Attempts []discovery.Attempt `json:"attempts,omitempty"`
	Elapsed  time.Duration       `json:"elapsed_ns"`
	Err      error               `json:"-"`
}

// OK reports whether the device ended up connected.
func (o Outcome) OK() bool {
	return o.Status == StatusConnected || o.Status == StatusAlreadyConnected
}

// Summary counts outcomes by status.
type Summary struct {
	Total            int `json:"total"`
	Connected        int `json:"connected"`
	AlreadyConnected int `json:"already_connected"`
	Failed           int `json:"failed"`
	NotReady         int `json:"not_ready"`
	NoAddress        int `json:"no_address"`
	NotAttempted     int `json:"not_attempted"`
}

// Summarize tallies a batch.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusConnected:
			s.Connected++
		case StatusAlreadyConnected:
			s.AlreadyConnected++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			if o.Reason == ReasonNoAddress {
				s.NoAddress++
			} else {
				s.NotReady++
			}
		default:
			s.NotAttempted++
		}
	}
	return s
}
