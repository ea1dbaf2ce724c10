package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *logrus.Logger

// Config describes where and how the exporter logs.
type Config struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"` // stderr | stdout | file | both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"`
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"`
	Compress   bool   `json:"compress"`
}

// Init (re)builds the package logger from cfg.
func Init(cfg Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:   "2006-01-02 15:04:05",
			DisableHTMLEscape: true,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	out, err := buildOutput(cfg)
	if err != nil {
		return err
	}
	l.SetOutput(out)

	log = l
	return nil
}

// buildOutput keeps stdout free for the operator unless asked otherwise;
// "both" pairs the console stream with the rotating file.
func buildOutput(cfg Config) (io.Writer, error) {
	var writers []io.Writer

	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "stdout", "console":
		writers = append(writers, os.Stdout)
	case "file":
	case "both":
		writers = append(writers, os.Stderr)
	default:
		writers = append(writers, os.Stderr)
	}

	output := strings.ToLower(strings.TrimSpace(cfg.Output))
	if output == "file" || output == "both" {
		if cfg.FilePath == "" {
			cfg.FilePath = "logs/ifexport.log"
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	return io.MultiWriter(writers...), nil
}

// GetLogger returns the package logger, creating a stderr default if Init was never called.
func GetLogger() *logrus.Logger {
	if log == nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
	}
	return log
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

// WithFields adds several structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}
