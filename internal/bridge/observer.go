package bridge

import "github.com/vitaminmoo/adbw-tool/internal/fleet"

// Step names a stage of the per-device pipeline.
type Step string

const (
	StepState    Step = "state"
	StepDiscover Step = "discover"
	StepTCPIP    Step = "tcpip"
	StepSettle   Step = "settle"
	StepConnect  Step = "connect"
)

// Observer follows a batch as it runs. Calls arrive on the batch goroutine.
type Observer interface {
	DeviceStarted(index, total int, d fleet.Device)
	StepFinished(d fleet.Device, step Step, ok bool, detail string)
	DeviceFinished(index, total int, o Outcome)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) DeviceStarted(int, int, fleet.Device)          {}
func (NopObserver) StepFinished(fleet.Device, Step, bool, string) {}
func (NopObserver) DeviceFinished(int, int, Outcome)              {}

type tee []Observer

// Tee fans events out to several observers in order.
func Tee(obs ...Observer) Observer {
	return tee(obs)
}

func (t tee) DeviceStarted(index, total int, d fleet.Device) {
	for _, o := range t {
		o.DeviceStarted(index, total, d)
	}
}

func (t tee) StepFinished(d fleet.Device, step Step, ok bool, detail string) {
	for _, o := range t {
		o.StepFinished(d, step, ok, detail)
	}
}

func (t tee) DeviceFinished(index, total int, out Outcome) {
	for _, o := range t {
		o.DeviceFinished(index, total, out)
	}
}
