// Package bridge moves USB attached devices onto adb over TCP, one device at
// a time.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/config"
	"github.com/vitaminmoo/adbw-tool/internal/discovery"
	"github.com/vitaminmoo/adbw-tool/internal/fleet"
)

// DefaultSettleDelay is the pause between tcpip and connect while adbd
// restarts on the device.
const DefaultSettleDelay = 800 * time.Millisecond

// Discoverer finds a device's address.
type Discoverer interface {
	Discover(ctx context.Context, serial string) (string, []discovery.Attempt, error)
}

// Runner drives the per-device pipeline over a list of devices.
type Runner struct {
	gw       adb.Gateway
	disc     Discoverer
	settle   time.Duration
	observer Observer
	log      zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDiscoverer replaces the default discovery engine.
func WithDiscoverer(d Discoverer) Option {
	return func(r *Runner) { r.disc = d }
}

// WithSettleDelay sets the pause between tcpip and connect.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Runner) { r.settle = d }
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// NewRunner returns a Runner using gw for every adb call.
func NewRunner(gw adb.Gateway, opts ...Option) *Runner {
	r := &Runner{
		gw:       gw,
		settle:   DefaultSettleDelay,
		observer: NopObserver{},
		log:      config.Component("bridge"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.disc == nil {
		r.disc = discovery.NewEngine(gw)
	}
	return r
}

// Run processes devices strictly in order and returns one outcome per
// device. A device failing never stops the batch. Only adb.ErrLaunch does;
// the outcomes gathered up to that point are returned with it.
func (r *Runner) Run(ctx context.Context, devices []fleet.Device) ([]Outcome, error) {
	runID := uuid.NewString()
	log := r.log.With().Str("run", runID).Logger()
	log.Info().Int("devices", len(devices)).Msg("batch started")

	start := time.Now()
	outcomes := make([]Outcome, 0, len(devices))

	for i, d := range devices {
		if d.Port == 0 {
			d.Port = fleet.AssignPort(fleet.DefaultBasePort, i)
		}

		r.observer.DeviceStarted(i, len(devices), d)
		devStart := time.Now()
		out, err := r.device(ctx, log.With().Str("serial", d.Serial).Logger(), d)
		out.Elapsed = time.Since(devStart)
		outcomes = append(outcomes, out)
		r.observer.DeviceFinished(i, len(devices), out)

		if err != nil {
			log.Error().Err(err).Msg("batch aborted")
			return outcomes, err
		}
	}

	s := Summarize(outcomes)
	log.Info().
		Int("connected", s.Connected+s.AlreadyConnected).
		Int("failed", s.Failed).
		Int("skipped", s.NotReady+s.NoAddress).
		Dur("elapsed", time.Since(start)).
		Msg("batch finished")

	return outcomes, nil
}

// RunDevice runs the pipeline for a single device.
func (r *Runner) RunDevice(ctx context.Context, d fleet.Device) (Outcome, error) {
	if d.Port == 0 {
		d.Port = fleet.DefaultBasePort
	}
	start := time.Now()
	out, err := r.device(ctx, r.log.With().Str("serial", d.Serial).Logger(), d)
	out.Elapsed = time.Since(start)
	return out, err
}

func (r *Runner) device(ctx context.Context, log zerolog.Logger, d fleet.Device) (Outcome, error) {
	out := Outcome{Serial: d.Serial, Port: d.Port, Status: StatusNotAttempted}

	abort := func(step Step, err error) (Outcome, error) {
		out.Status = StatusFailed
		out.Message = err.Error()
		out.Err = err
		r.observer.StepFinished(d, step, false, err.Error())
		return out, err
	}

	state, err := adb.ProbeState(ctx, r.gw, d.Serial)
	if err != nil {
		return abort(StepState, err)
	}
	out.State = state
	ready := state == string(adb.StateDevice)
	r.observer.StepFinished(d, StepState, ready, state)

	if !ready {
		out.Status = StatusSkipped
		out.Reason = ReasonNotReady
		out.Err = fmt.Errorf("%w: %s", ErrDeviceNotReady, state)
		log.Warn().Str("state", state).Msg("device not ready, skipping")
		return out, nil
	}

	// Address first: tcpip restarts adbd and the shell channel goes away.
	addr, attempts, err := r.disc.Discover(ctx, d.Serial)
	out.Attempts = attempts
	if errors.Is(err, adb.ErrLaunch) {
		return abort(StepDiscover, err)
	}
	if err != nil {
		out.Status = StatusSkipped
		out.Reason = ReasonNoAddress
		out.Err = err
		r.observer.StepFinished(d, StepDiscover, false, err.Error())
		log.Warn().Err(err).Int("queries", len(attempts)).Msg("no address, skipping")
		return out, nil
	}
	out.Address = addr
	r.observer.StepFinished(d, StepDiscover, true, addr)
	log.Info().Str("addr", addr).Msg("address discovered")

	ok, msg, err := adb.EnableNetworkMode(ctx, r.gw, d.Serial, d.Port)
	if err != nil {
		return abort(StepTCPIP, err)
	}
	out.TCPIP = &StepResult{OK: ok, Message: msg}
	r.observer.StepFinished(d, StepTCPIP, ok, msg)
	if !ok {
		// The device may already be listening on the port; connect anyway.
		log.Warn().Err(ErrModeSwitchFailed).Str("msg", msg).Int("port", d.Port).Msg("tcpip failed")
	}

	r.wait(ctx, r.settle)
	r.observer.StepFinished(d, StepSettle, true, r.settle.String())

	status, msg, err := adb.ConnectWithStatus(ctx, r.gw, addr, d.Port)
	if err != nil {
		return abort(StepConnect, err)
	}
	out.Message = msg
	switch status {
	case adb.ConnectConnected:
		out.Status = StatusConnected
	case adb.ConnectAlreadyConnected:
		out.Status = StatusAlreadyConnected
	default:
		out.Status = StatusFailed
		out.Err = fmt.Errorf("%w: %s", ErrConnectFailed, msg)
	}
	r.observer.StepFinished(d, StepConnect, out.OK(), msg)

	ev := log.Info()
	if !out.OK() {
		ev = log.Warn()
	}
	ev.Str("target", adb.HostPort(addr, d.Port)).Str("status", string(out.Status)).Msg(msg)

	return out, nil
}

func (r *Runner) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
