// Package discovery finds the IPv4 address a device uses on the local network.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/config"
)

const (
	DefaultRetries = 4
	DefaultDelay   = 800 * time.Millisecond
)

// ErrAddressNotFound means every round ended without a usable address.
var ErrAddressNotFound = errors.New("no IPv4 address found")

var errRoundFailed = errors.New("discovery round found no address")

// Attempt records one query run during discovery.
type Attempt struct {
	Round     int    `json:"round"`
	Strategy  string `json:"strategy"`
	Interface string `json:"interface,omitempty"`
	ExitCode  int    `json:"exit_code"`
	Raw       string `json:"raw,omitempty"`
	Err       string `json:"error,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Engine runs discovery rounds against one device at a time.
type Engine struct {
	gw      adb.Gateway
	queries []Query
	retries int
	delay   time.Duration
	notify  func(round int, next time.Duration)
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetries sets the maximum number of rounds.
func WithRetries(n int) Option {
	return func(e *Engine) { e.retries = n }
}

// WithDelay sets the pause after a round that found nothing.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithInterfaces replaces the interface names the scoped queries use.
func WithInterfaces(ifaces ...string) Option {
	return func(e *Engine) { e.queries = Queries(ifaces) }
}

// WithRetryNotify registers a callback run before each inter-round pause.
func WithRetryNotify(fn func(round int, next time.Duration)) Option {
	return func(e *Engine) { e.notify = fn }
}

// NewEngine returns an Engine with the default strategies, 4 rounds and an
// 800ms delay.
func NewEngine(gw adb.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:      gw,
		queries: Queries(DefaultInterfaces),
		retries: DefaultRetries,
		delay:   DefaultDelay,
		log:     config.Component("discovery"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retries returns the configured round limit.
func (e *Engine) Retries() int {
	return e.retries
}

// Discover returns the device's address along with every query tried.
// Running out of rounds yields ErrAddressNotFound; only adb.ErrLaunch is
// fatal beyond this device.
func (e *Engine) Discover(ctx context.Context, serial string) (string, []Attempt, error) {
	var (
		addr      string
		attempts  []Attempt
		launchErr error
		round     int
	)

	if e.retries < 1 {
		return "", nil, ErrAddressNotFound
	}

	op := func() error {
		round++
		found, tried, err := e.round(ctx, serial, round)
		attempts = append(attempts, tried...)
		if err != nil {
			// Returning nil ends the retry loop; the error is reported below.
			launchErr = err
			return nil
		}
		if found == "" {
			return errRoundFailed
		}
		addr = found
		return nil
	}

	notify := func(_ error, next time.Duration) {
		e.log.Debug().Str("serial", serial).Int("round", round).Dur("retry_in", next).Msg("no address this round")
		if e.notify != nil {
			e.notify(round, next)
		}
	}

	if err := backoff.RetryNotify(op, e.backOff(), notify); err != nil {
		return "", attempts, fmt.Errorf("%w after %d rounds", ErrAddressNotFound, round)
	}
	if launchErr != nil {
		return "", attempts, launchErr
	}
	return addr, attempts, nil
}

func (e *Engine) backOff() backoff.BackOff {
	if e.retries == 1 {
		return &backoff.StopBackOff{}
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(e.delay), uint64(e.retries-1))
}

// round runs the queries in order and stops at the first usable address.
func (e *Engine) round(ctx context.Context, serial string, n int) (string, []Attempt, error) {
	var tried []Attempt

	for _, q := range e.queries {
		res, err := e.gw.Execute(ctx, adb.Shell(serial, q.Command...), q.Timeout)
		if errors.Is(err, adb.ErrLaunch) {
			return "", tried, err
		}

		a := Attempt{
			Round:     n,
			Strategy:  q.Strategy,
			Interface: q.Interface,
			ExitCode:  res.ExitCode,
			Raw:       res.Stdout,
		}
		if err != nil {
			a.Err = err.Error()
		} else if res.OK() && res.Stdout != "" {
			if found, ok := q.Extract(res.Stdout); ok {
				a.Address = found
			}
		}
		tried = append(tried, a)

		if a.Address != "" {
			e.log.Debug().
				Str("serial", serial).
				Str("strategy", q.Strategy).
				Str("iface", q.Interface).
				Str("addr", a.Address).
				Msg("address found")
			return a.Address, tried, nil
		}
	}

	return "", tried, nil
}
