package executor

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifexport/ifexport/internal/config"
	"github.com/ifexport/ifexport/pkg/ssh"
)

func TestLocalRunSuccess(t *testing.T) {
	l := NewLocal()
	out, err := l.Run(context.Background(), "sh", "-c", "printf host1")
	require.NoError(t, err)
	assert.Equal(t, "host1", out)
	assert.Equal(t, "localhost", l.Describe())
}

func TestLocalRunLargeOutput(t *testing.T) {
	out, err := NewLocal().Run(context.Background(), "seq", "1", "5000")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5000)
	assert.Equal(t, "1", lines[0])
	assert.Equal(t, "5000", lines[4999])
	assert.Greater(t, len(out), 4096)
}

func TestLocalRunExitStatus(t *testing.T) {
	_, err := NewLocal().Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	var cmdErr *ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "boom\n", cmdErr.Stderr)
	assert.Equal(t, "sh -c echo boom >&2; exit 3", cmdErr.Command)
}

func TestLocalRunStderrBounded(t *testing.T) {
	_, err := NewLocal().Run(context.Background(), "sh", "-c", "seq 1 5000 >&2; exit 1")

	var cmdErr *ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Len(t, cmdErr.Stderr, maxStderrLen)
	assert.True(t, strings.HasPrefix(cmdErr.Stderr, "1\n2\n3\n"))
}

func TestLocalRunMissingBinary(t *testing.T) {
	_, err := NewLocal().Run(context.Background(), "ifexport-no-such-binary", "a")
	var cmdErr *ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, -1, cmdErr.ExitCode)
}

func TestLocalRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal().Run(ctx, "sleep", "5")
	var cmdErr *ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExternalCommandErrorMessage(t *testing.T) {
	err := &ExternalCommandError{Command: "ip -j a", ExitCode: 255, Stderr: "Object \"a\" is unknown\n", Err: errors.New("exit status 255")}
	assert.Equal(t, `external command "ip -j a" failed with exit code 255: exit status 255 (stderr: Object "a" is unknown)`, err.Error())
}

type fakeSession struct {
	connectErr error
	result     *ssh.CommandResult
	runErr     error
	commands   []string
}

func (f *fakeSession) Connect(context.Context) error { return f.connectErr }
func (f *fakeSession) Close() error { return nil }
func (f *fakeSession) Run(_ context.Context, command string) (*ssh.CommandResult, error) {
	f.commands = append(f.commands, command)
	return f.result, f.runErr
}

func TestRemoteRun(t *testing.T) {
	sess := &fakeSession{result: &ssh.CommandResult{Stdout: []byte("[]")}}
	r := &Remote{session: sess, host: "10.0.0.5:22"}

	out, err := r.Run(context.Background(), "ip", "-j", "-d", "-p", "address", "show")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, []string{"ip -j -d -p address show"}, sess.commands)
	assert.Equal(t, "10.0.0.5:22", r.Describe())
}

func TestRemoteRunExitStatus(t *testing.T) {
	sess := &fakeSession{
		result: &ssh.CommandResult{ExitCode: 127, Stderr: "sh: ip: not found"},
		runErr: errors.New("Process exited with status 127"),
	}
	r := &Remote{session: sess, host: "h:22"}

	_, err := r.Run(context.Background(), "ip", "-j", "link")
	var cmdErr *ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 127, cmdErr.ExitCode)
	assert.Equal(t, "sh: ip: not found", cmdErr.Stderr)
}

func TestRemoteConnectFailure(t *testing.T) {
	r := &Remote{session: &fakeSession{connectErr: errors.New("connection refused")}, host: "h:22"}
	_, err := r.Run(context.Background(), "hostname", "-s")
	var cmdErr *ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "ip -j link", ShellJoin("ip", "-j", "link"))
	assert.Equal(t, "cat /sys/class/net/bonding_masters", ShellJoin("cat", "/sys/class/net/bonding_masters"))
	assert.Equal(t, `sh -c 'cat x 2>/dev/null || true'`, ShellJoin("sh", "-c", "cat x 2>/dev/null || true"))
	assert.Equal(t, `echo 'it'"'"'s' ''`, ShellJoin("echo", "it's", ""))
}

func TestNewSelectsExecutor(t *testing.T) {
	_, isLocal := New(&config.Config{}).(*Local)
	assert.True(t, isLocal)

	remote, isRemote := New(&config.Config{SSH: config.SSHConfig{Host: "10.0.0.5", Port: 2222, Username: "u"}}).(*Remote)
	require.True(t, isRemote)
	assert.Equal(t, "10.0.0.5:2222", remote.Describe())
}
