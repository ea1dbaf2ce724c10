// Package executortest provides a canned executor for tests.
package executortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ifexport/ifexport/internal/executor"
)

// Fake answers commands from Outputs, keyed by the full command line.
// A command with no canned output fails like a missing binary.
type Fake struct {
	Host    string
	Outputs map[string]string
	Errors  map[string]error

	mu    sync.Mutex
	calls []string
}

// New returns a Fake for "testhost" with the given outputs.
func New(outputs map[string]string) *Fake {
	return &Fake{Host: "testhost", Outputs: outputs, Errors: map[string]error{}}
}

func (f *Fake) Describe() string { return f.Host }

func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	line := executor.CommandLine(name, args...)

	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	if err, ok := f.Errors[line]; ok {
		return "", err
	}
	out, ok := f.Outputs[line]
	if !ok {
		return "", &executor.ExternalCommandError{Command: line, ExitCode: -1, Err: fmt.Errorf("executable file not found")}
	}
	return out, nil
}

// Calls returns the command lines run so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
