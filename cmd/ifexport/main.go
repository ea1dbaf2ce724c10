package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/ifexport/ifexport/internal/bonding"
	"github.com/ifexport/ifexport/internal/classify"
	"github.com/ifexport/ifexport/internal/config"
	"github.com/ifexport/ifexport/internal/executor"
	"github.com/ifexport/ifexport/internal/export"
	"github.com/ifexport/ifexport/internal/publish"
	"github.com/ifexport/ifexport/internal/service"
	"github.com/ifexport/ifexport/pkg/logger"
)

// Exit codes.
const (
	exitOK = iota
	exitConfig
	exitExternalCommand
	exitRecord
	exitIO
	exitPublish
	exitInterrupted
	exitInternal
)

const usageTail = `
Exit codes:
  0  export written
  1  configuration or usage error
  2  external command failed, its output was unreadable, or host state could not be read
  3  interface record incomplete or of an unmapped link type
  4  export file could not be written
  5  export written but could not be published
  6  interrupted or timed out
  7  any other failure
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("ifexport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	virtual := fs.Bool("virtual", false, "export the virtual machine interface schema instead of the physical device one")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ifexport [--virtual]\n\n")
		fs.PrintDefaults()
		fmt.Fprint(stderr, usageTail)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return exitConfig
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitConfig
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitConfig
	}

	exec := executor.New(cfg)
	if closer, ok := exec.(io.Closer); ok {
		defer closer.Close()
	}

	svc, err := service.NewExportService(cfg, exec, afero.NewOsFs(), *virtual)
	if err != nil {
		logger.Errorf("Failed to set up export: %v", err)
		return exitConfig
	}

	summary, err := svc.Run(ctx)
	if err != nil {
		logger.Errorf("Export failed: %v", err)
		return exitCode(err)
	}
	logger.Infof("Exported %d interfaces of %s to %s", summary.Rows, summary.Hostname, summary.Path)
	return exitOK
}

// exitCode maps a pipeline error to the documented exit status.
func exitCode(err error) int {
	var (
		readErr    *bonding.ReadError
		cmdErr     *executor.ExternalCommandError
		missingErr *classify.MissingFieldError
		unknownErr *classify.UnknownLinkTypeError
		ioErr      *export.IOError
		pubErr     *publish.Error
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitInterrupted
	case errors.As(err, &cmdErr), errors.As(err, &readErr):
		return exitExternalCommand
	case errors.As(err, &missingErr), errors.As(err, &unknownErr):
		return exitRecord
	case errors.As(err, &ioErr):
		return exitIO
	case errors.As(err, &pubErr):
		return exitPublish
	default:
		return exitInternal
	}
}
