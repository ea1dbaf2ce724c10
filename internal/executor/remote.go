package executor

import (
	"context"
	"errors"
	"strings"

	"github.com/ifexport/ifexport/internal/util"
	"github.com/ifexport/ifexport/pkg/logger"
	"github.com/ifexport/ifexport/pkg/ssh"
)

// Session is the part of ssh.Client the remote executor needs.
type Session interface {
	Connect(ctx context.Context) error
	Run(ctx context.Context, command string) (*ssh.CommandResult, error)
	Close() error
}

// Remote runs utilities on another host over SSH, connecting lazily.
type Remote struct {
	session Session
	host    string
}

// NewRemote wraps an SSH client.
func NewRemote(client *ssh.Client) *Remote {
	return &Remote{session: client, host: client.Address()}
}

func (r *Remote) Describe() string { return r.host }

func (r *Remote) Run(ctx context.Context, name string, args ...string) (string, error) {
	line := CommandLine(name, args...)

	if err := r.session.Connect(ctx); err != nil {
		return "", &ExternalCommandError{Command: line, ExitCode: -1, Err: err}
	}

	res, err := r.session.Run(ctx, ShellJoin(name, args...))
	if err != nil {
		cmdErr := &ExternalCommandError{Command: line, ExitCode: -1, Err: err}
		if res != nil {
			cmdErr.ExitCode = res.ExitCode
			cmdErr.Stderr = res.Stderr
		}
		return "", cmdErr
	}
	if res == nil {
		return "", &ExternalCommandError{Command: line, ExitCode: -1, Err: errors.New("no result from remote session")}
	}

	text := util.EnsureUTF8Bytes(res.Stdout)
	logger.DebugCommandOutput(line, text, 5)
	return text, nil
}

// Close releases the SSH connection.
func (r *Remote) Close() error {
	return r.session.Close()
}

// ShellJoin quotes every word for a POSIX shell.
func ShellJoin(name string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{name}, args...) {
		words = append(words, shellQuote(w))
	}
	return strings.Join(words, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:@,+", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
