package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ifexport/ifexport/internal/config"
	"github.com/ifexport/ifexport/internal/util"
	"github.com/ifexport/ifexport/pkg/logger"
	"github.com/ifexport/ifexport/pkg/ssh"
)

// Executor runs a host utility and returns its standard output as text.
// Any failure is an *ExternalCommandError.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	// Describe names the host the commands run on, for logs.
	Describe() string
}

// ExternalCommandError reports a missing utility, a non-zero exit or output
// that could not be understood.
type ExternalCommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalCommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "external command %q failed", e.Command)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", stderr)
	}
	return b.String()
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// CommandLine renders name and args the way an operator would type them.
func CommandLine(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// New picks the remote executor when SSH is configured.
func New(cfg *config.Config) Executor {
	if cfg.SSH.Enabled() {
		return NewRemote(ssh.NewClient(ssh.ConnectionInfo{
			Host:           cfg.SSH.Host,
			Port:           cfg.SSH.Port,
			Username:       cfg.SSH.Username,
			Password:       cfg.SSH.Password,
			KeyFile:        cfg.SSH.KeyFile,
			KnownHostsFile: cfg.SSH.KnownHostsFile,
			Timeout:        cfg.SSH.Timeout,
		}))
	}
	return NewLocal()
}

// maxStderrLen bounds the diagnostic text kept from a failing command.
const maxStderrLen = 4096

// Local runs utilities on this machine.
type Local struct{}

// NewLocal returns an executor for the local host.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Describe() string { return "localhost" }

// Run captures all of stdout. Stderr is kept for diagnostics, truncated to
// maxStderrLen bytes.
func (l *Local) Run(ctx context.Context, name string, args ...string) (string, error) {
	line := CommandLine(name, args...)

	if _, err := exec.LookPath(name); err != nil {
		return "", &ExternalCommandError{Command: line, ExitCode: -1, Err: err}
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout bytes.Buffer
	stderr := &boundedBuffer{max: maxStderrLen}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &ExternalCommandError{Command: line, ExitCode: -1, Stderr: stderr.String(), Err: err}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cmdErr.Err = ctxErr
			return "", cmdErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}

	text := util.EnsureUTF8Bytes(stdout.Bytes())
	logger.DebugCommandOutput(line, text, 5)
	return text, nil
}

// boundedBuffer keeps the first max bytes written and drops the rest.
type boundedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string { return b.buf.String() }
