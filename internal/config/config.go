package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the exporter configuration. Everything has a default, so a run
// without any config file inventories the local host into interfaces.csv.
type Config struct {
	Export   ExportConfig   `mapstructure:"export"`
	Host     HostConfig     `mapstructure:"host"`
	Classify ClassifyConfig `mapstructure:"classify"`
	SSH      SSHConfig      `mapstructure:"ssh"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ExportConfig controls the CSV artifact.
type ExportConfig struct {
	OutputPath string `mapstructure:"output_path"`
	TempSuffix string `mapstructure:"temp_suffix"`
}

// HostConfig names the host utilities and pseudo-files that are read.
type HostConfig struct {
	IPCommand          string `mapstructure:"ip_command"`
	HostnameCommand    string `mapstructure:"hostname_command"`
	BondingMastersPath string `mapstructure:"bonding_masters_path"`
}

// ClassifyConfig tunes interface classification.
type ClassifyConfig struct {
	// BondMatch is one of substring, prefix, exact.
	BondMatch string `mapstructure:"bond_match"`
	// TypeMap is merged over the built-in link_type table.
	TypeMap     map[string]string `mapstructure:"type_map"`
	LagType     string            `mapstructure:"lag_type"`
	BridgeType  string            `mapstructure:"bridge_type"`
	VirtualType string            `mapstructure:"virtual_type"`
}

// SSHConfig selects a remote host. An empty Host means the local machine.
type SSHConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	KeyFile        string        `mapstructure:"key_file"`
	KnownHostsFile string        `mapstructure:"known_hosts_file"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether commands should run over SSH.
func (c SSHConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// StorageConfig holds optional publication targets for the export file.
type StorageConfig struct {
	Minio MinioConfig `mapstructure:"minio"`
}

// MinioConfig is an S3-compatible object store. Disabled when Host is empty.
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig enables the node_exporter textfile when TextfilePath is set.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Bond match policies.
const (
	BondMatchSubstring = "substring"
	BondMatchPrefix    = "prefix"
	BondMatchExact     = "exact"
)

// keyDelimiter separates nested keys. It is not "." so that classify.type_map
// keys such as ieee802.15.4 stay whole.
const keyDelimiter = "::"

// Load reads configPath, or searches ./configs and /etc/ifexport for
// ifexport.yaml when it is empty. Only an explicitly requested file has to
// exist.
func Load(configPath string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ifexport")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/ifexport")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("export::output_path", "interfaces.csv")
	v.SetDefault("export::temp_suffix", ".tmp")

	v.SetDefault("host::ip_command", "ip")
	v.SetDefault("host::hostname_command", "hostname")
	v.SetDefault("host::bonding_masters_path", "/sys/class/net/bonding_masters")

	v.SetDefault("classify::bond_match", BondMatchSubstring)
	v.SetDefault("classify::type_map", map[string]string{})
	v.SetDefault("classify::lag_type", "lag")
	v.SetDefault("classify::bridge_type", "bridge")
	v.SetDefault("classify::virtual_type", "virtual")

	v.SetDefault("ssh::port", 22)
	v.SetDefault("ssh::timeout", 10*time.Second)

	v.SetDefault("storage::minio::port", 9000)
	v.SetDefault("storage::minio::bucket", "ifexport")
	v.SetDefault("storage::minio::prefix", "interfaces")

	v.SetDefault("log::level", "info")
	v.SetDefault("log::format", "text")
	v.SetDefault("log::output", "stderr")
	v.SetDefault("log::file_path", "logs/ifexport.log")
	v.SetDefault("log::max_size", 10)
	v.SetDefault("log::max_backups", 3)
	v.SetDefault("log::max_age", 28)
}

// Validate rejects settings that would make the export ambiguous.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Classify.BondMatch)) {
	case BondMatchSubstring, BondMatchPrefix, BondMatchExact:
		c.Classify.BondMatch = strings.ToLower(strings.TrimSpace(c.Classify.BondMatch))
	default:
		return fmt.Errorf("invalid classify.bond_match %q (want substring, prefix or exact)", c.Classify.BondMatch)
	}
	if strings.TrimSpace(c.Export.OutputPath) == "" {
		return fmt.Errorf("export.output_path must not be empty")
	}
	if c.Export.TempSuffix == "" {
		return fmt.Errorf("export.temp_suffix must not be empty")
	}
	if c.SSH.Enabled() && strings.TrimSpace(c.SSH.Username) == "" {
		return fmt.Errorf("ssh.username is required when ssh.host is set")
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		c.SSH.Port = 22
	}
	return nil
}
