package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"

	"github.com/ifexport/ifexport/internal/bonding"
	"github.com/ifexport/ifexport/internal/classify"
	"github.com/ifexport/ifexport/internal/executor"
	"github.com/ifexport/ifexport/internal/export"
	"github.com/ifexport/ifexport/internal/publish"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"command", fmt.Errorf("failed to fetch link data: %w", &executor.ExternalCommandError{Command: "ip"}), exitExternalCommand},
		{"missing field", &classify.MissingFieldError{Interface: "eth0", Field: "mtu"}, exitRecord},
		{"aggregated", multierror.Append(nil,
			&classify.UnknownLinkTypeError{Interface: "ib0", LinkType: "infiniband"},
			&classify.MissingFieldError{Interface: "eth1", Field: "mtu"}), exitRecord},
		{"io", &export.IOError{Path: "x", Op: "write", Err: errors.New("read-only file system")}, exitIO},
		{"publish", &publish.Error{Object: "x", Err: errors.New("denied")}, exitPublish},
		{"bond file", fmt.Errorf("failed to resolve bond names: %w", &bonding.ReadError{Path: "/sys/class/net/bonding_masters", Err: errors.New("permission denied")}), exitExternalCommand},
		{"canceled", fmt.Errorf("failed to read hostname: %w", &executor.ExternalCommandError{Command: "hostname -s", Err: context.Canceled}), exitInterrupted},
		{"deadline", context.DeadlineExceeded, exitInterrupted},
		{"other", errors.New("boom"), exitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRunUsage(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "-virtual")
	assert.NotContains(t, stderr.String(), "-config")
	assert.Contains(t, stderr.String(), "Exit codes:")

	stderr.Reset()
	assert.Equal(t, exitConfig, run(context.Background(), []string{"--bogus"}, &stderr))

	stderr.Reset()
	assert.Equal(t, exitConfig, run(context.Background(), []string{"extra"}, &stderr))
	assert.Contains(t, stderr.String(), "unexpected arguments")
}

func TestRunRejectsExtraFlags(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", "/etc/ifexport/ifexport.yaml"}, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "flag provided but not defined: -config")
}
