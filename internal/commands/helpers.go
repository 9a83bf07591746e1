// Package commands implements the work behind each CLI command.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
	"github.com/vitaminmoo/adbw-tool/internal/bridge"
	"github.com/vitaminmoo/adbw-tool/internal/config"
	"github.com/vitaminmoo/adbw-tool/internal/discovery"
)

// PrintJSON pretty-prints v to w.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Tuning holds the per-run knobs shared by batch and single device commands.
type Tuning struct {
	Retries    int
	RetryDelay time.Duration
	Settle     time.Duration
	// Interfaces overrides discovery.DefaultInterfaces when set.
	Interfaces []string
}

// DefaultTuning matches the library defaults.
func DefaultTuning() Tuning {
	return Tuning{
		Retries:    discovery.DefaultRetries,
		RetryDelay: discovery.DefaultDelay,
		Settle:     bridge.DefaultSettleDelay,
	}
}

// NewEngine builds a discovery engine from t.
func NewEngine(gw adb.Gateway, t Tuning) *discovery.Engine {
	opts := []discovery.Option{
		discovery.WithRetries(t.Retries),
		discovery.WithDelay(t.RetryDelay),
		discovery.WithRetryNotify(func(round int, next time.Duration) {
			config.Debugf("no address after round %d, retrying in %s", round, next)
		}),
	}
	if len(t.Interfaces) > 0 {
		opts = append(opts, discovery.WithInterfaces(t.Interfaces...))
	}
	return discovery.NewEngine(gw, opts...)
}

// NewRunner builds a batch runner from t reporting to obs.
func NewRunner(gw adb.Gateway, t Tuning, obs bridge.Observer) *bridge.Runner {
	return bridge.NewRunner(gw,
		bridge.WithDiscoverer(NewEngine(gw, t)),
		bridge.WithSettleDelay(t.Settle),
		bridge.WithObserver(obs),
	)
}
