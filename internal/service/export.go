package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ifexport/ifexport/internal/bonding"
	"github.com/ifexport/ifexport/internal/classify"
	"github.com/ifexport/ifexport/internal/config"
	"github.com/ifexport/ifexport/internal/executor"
	"github.com/ifexport/ifexport/internal/export"
	"github.com/ifexport/ifexport/internal/linksource"
	"github.com/ifexport/ifexport/internal/metrics"
	"github.com/ifexport/ifexport/internal/publish"
	"github.com/ifexport/ifexport/pkg/logger"
)

// LinkSource provides the raw interface records of a host.
type LinkSource interface {
	Hostname(ctx context.Context) (string, error)
	FetchLinkData(ctx context.Context) ([]linksource.Interface, []linksource.Interface, error)
}

// Publisher uploads the finished export somewhere else.
type Publisher interface {
	Publish(ctx context.Context, hostname, localPath string) (publish.StoredObject, error)
}

// ExportService runs one inventory export: hostname, bonds, address and link
// queries, classification, then the CSV write.
type ExportService struct {
	host        string
	source      LinkSource
	bonds       bonding.Resolver
	classifier  *classify.Classifier
	variant     export.Variant
	writer      *export.Writer
	publisher   Publisher
	metricsPath string
	now         func() time.Time
}

// ExportSummary describes a finished run.
type ExportSummary struct {
	RunID     string                `json:"run_id"`
	Host      string                `json:"host"`
	Hostname  string                `json:"hostname"`
	Variant   string                `json:"variant"`
	Path      string                `json:"path"`
	Rows      int                   `json:"rows"`
	Skipped   int                   `json:"skipped"`
	Bytes     int                   `json:"bytes"`
	Published *publish.StoredObject `json:"published,omitempty"`
	Duration  time.Duration         `json:"duration"`
}

// NewExportService wires the pipeline from configuration. Bond names come from
// fs for the local host and through exec for a remote one.
func NewExportService(cfg *config.Config, exec executor.Executor, fs afero.Fs, virtual bool) (*ExportService, error) {
	variant, err := export.Get(export.VariantName(virtual))
	if err != nil {
		return nil, err
	}

	var bonds bonding.Resolver
	if cfg.SSH.Enabled() {
		bonds = bonding.NewCommandResolver(exec, cfg.Host.BondingMastersPath)
	} else {
		bonds = bonding.NewFSResolver(fs, cfg.Host.BondingMastersPath)
	}

	svc := &ExportService{
		host:        exec.Describe(),
		source:      linksource.New(exec, cfg.Host.IPCommand, cfg.Host.HostnameCommand),
		bonds:       bonds,
		classifier:  classify.New(cfg.Classify),
		variant:     variant,
		writer:      export.NewWriter(fs, cfg.Export.OutputPath, cfg.Export.TempSuffix),
		metricsPath: cfg.Metrics.TextfilePath,
		now:         time.Now,
	}

	pub, err := publish.New(cfg.Storage.Minio, fs)
	if err != nil {
		return nil, err
	}
	if pub != nil {
		svc.publisher = pub
	}
	return svc, nil
}

// Run performs the export. Any classification problem aborts the run before
// the output file is touched; all of them are reported together.
func (s *ExportService) Run(ctx context.Context) (*ExportSummary, error) {
	start := s.now()
	summary := &ExportSummary{
		RunID:   uuid.New().String(),
		Host:    s.host,
		Variant: s.variant.Name(),
		Path:    s.writer.Path(),
	}
	log := logger.WithFields(logrus.Fields{
		"run_id":  summary.RunID,
		"host":    summary.Host,
		"variant": summary.Variant,
	})
	log.Info("Starting interface export")

	hostname, err := s.source.Hostname(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read hostname: %w", err)
	}
	summary.Hostname = hostname

	bondNames, err := s.bonds.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bond names: %w", err)
	}
	log.WithField("bonds", bondNames).Debug("Bond names resolved")

	addrs, links, err := s.source.FetchLinkData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch link data: %w", err)
	}
	index := linksource.NewLinkIndex(links)

	run, err := metrics.NewRun(summary.Variant)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	records := make([]export.Record, 0, len(addrs))
	for _, iface := range addrs {
		res, skip, err := s.classifier.Classify(iface, bondNames, index)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if skip {
			summary.Skipped++
			run.Skip(classify.LinkTypeLoopback)
			continue
		}
		records = append(records, export.Normalize(s.variant, iface, res, hostname))
		run.Observe(res.Type)
	}
	if err := errs.ErrorOrNil(); err != nil {
		log.WithField("errors", len(errs.Errors)).Error("Interface classification failed, no export written")
		return nil, err
	}
	summary.Rows = len(records)

	n, err := s.writer.Write(s.variant.Header(), records)
	if err != nil {
		return nil, err
	}
	summary.Bytes = n
	log.WithFields(logrus.Fields{
		"path":    summary.Path,
		"rows":    summary.Rows,
		"skipped": summary.Skipped,
	}).Info("Export written")

	if s.publisher != nil {
		obj, err := s.publisher.Publish(ctx, hostname, summary.Path)
		if err != nil {
			return summary, err
		}
		summary.Published = &obj
		log.WithField("uri", obj.URI).Info("Export published")
	}

	end := s.now()
	summary.Duration = end.Sub(start)
	if s.metricsPath != "" {
		run.Succeed(start, end)
		if err := run.WriteTextfile(s.metricsPath); err != nil {
			log.Warnf("Metrics not written: %v", err)
		}
	}
	return summary, nil
}
