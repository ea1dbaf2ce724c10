package bonding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"

	"github.com/ifexport/ifexport/internal/executor"
)

// DefaultMastersPath lists the bonding masters on Linux.
const DefaultMastersPath = "/sys/class/net/bonding_masters"

// ReadError reports a masters file that exists but could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Resolver returns the configured link-aggregation group names.
type Resolver interface {
	Resolve(ctx context.Context) ([]string, error)
}

// ParseMasters splits the bonding_masters line into unique names, keeping
// their order.
func ParseMasters(content string) []string {
	fields := strings.Fields(content)
	names := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		names = append(names, f)
	}
	return names
}

// FSResolver reads the masters file from a filesystem.
type FSResolver struct {
	fs   afero.Fs
	path string
}

// NewFSResolver reads path from fs. An empty path means DefaultMastersPath.
func NewFSResolver(fs afero.Fs, path string) *FSResolver {
	if path == "" {
		path = DefaultMastersPath
	}
	return &FSResolver{fs: fs, path: path}
}

// Resolve returns no names when the file does not exist.
func (r *FSResolver) Resolve(context.Context) ([]string, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ReadError{Path: r.path, Err: err}
	}
	return ParseMasters(string(data)), nil
}

// CommandResolver reads the masters file on the host behind an executor.
type CommandResolver struct {
	exec executor.Executor
	path string
}

// NewCommandResolver is used for remote hosts.
func NewCommandResolver(exec executor.Executor, path string) *CommandResolver {
	if path == "" {
		path = DefaultMastersPath
	}
	return &CommandResolver{exec: exec, path: path}
}

// Resolve treats an absent file like an empty one.
func (r *CommandResolver) Resolve(ctx context.Context) ([]string, error) {
	out, err := r.exec.Run(ctx, "sh", "-c", r.Script())
	if err != nil {
		return nil, err
	}
	return ParseMasters(out), nil
}

// Script is the shell snippet run on the host.
func (r *CommandResolver) Script() string {
	return "cat '" + strings.ReplaceAll(r.path, "'", `'"'"'`) + "' 2>/dev/null || true"
}
