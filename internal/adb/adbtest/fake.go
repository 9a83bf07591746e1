// Package adbtest provides a scripted adb.Gateway for tests.
package adbtest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vitaminmoo/adbw-tool/internal/adb"
)

// Call is one recorded invocation.
type Call struct {
	Args    []string
	Timeout time.Duration
}

// Serial returns the -s argument of the call, if any.
func (c Call) Serial() string {
	if i := slices.Index(c.Args, "-s"); i >= 0 && i+1 < len(c.Args) {
		return c.Args[i+1]
	}
	return ""
}

type response struct {
	res adb.Result
	err error
}

// Fake answers commands from a script keyed by exact argv. Responses queued
// for the same argv are returned in order; the last one repeats. Unscripted
// commands exit 1 with "unexpected command" on stderr.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]response
	calls     []Call
}

// New returns an empty script.
func New() *Fake {
	return &Fake{responses: make(map[string][]response)}
}

func key(args []string) string {
	return strings.Join(args, "\x00")
}

// Respond queues a full result for args.
func (f *Fake) Respond(args []string, res adb.Result, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(args)
	f.responses[k] = append(f.responses[k], response{res: res, err: err})
	return f
}

// Stdout queues a successful result printing out.
func (f *Fake) Stdout(args []string, out string) *Fake {
	return f.Respond(args, adb.Result{Stdout: out}, nil)
}

// Fail queues an exit 1 result printing msg on stderr.
func (f *Fake) Fail(args []string, msg string) *Fake {
	return f.Respond(args, adb.Result{ExitCode: 1, Stderr: msg}, nil)
}

// Execute implements adb.Gateway.
func (f *Fake) Execute(_ context.Context, args []string, timeout time.Duration) (adb.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Args: slices.Clone(args), Timeout: timeout})

	k := key(args)
	queue := f.responses[k]
	if len(queue) == 0 {
		return adb.Result{ExitCode: 1, Stderr: "unexpected command"}, nil
	}
	r := queue[0]
	if len(queue) > 1 {
		f.responses[k] = queue[1:]
	}
	return r.res, r.err
}

// Calls returns every invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsFor returns the invocations targeting serial with -s.
func (f *Fake) CallsFor(serial string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Serial() == serial {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times exactly args was invoked.
func (f *Fake) Count(args ...string) int {
	n := 0
	k := key(args)
	for _, c := range f.Calls() {
		if key(c.Args) == k {
			n++
		}
	}
	return n
}

// Ran reports whether any invocation contained verb as an argument.
func (f *Fake) Ran(serial, verb string) bool {
	for _, c := range f.CallsFor(serial) {
		if slices.Contains(c.Args, verb) {
			return true
		}
	}
	return false
}
