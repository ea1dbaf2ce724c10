package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ifexport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "interfaces.csv", cfg.Export.OutputPath)
	assert.Equal(t, ".tmp", cfg.Export.TempSuffix)
	assert.Equal(t, "ip", cfg.Host.IPCommand)
	assert.Equal(t, "hostname", cfg.Host.HostnameCommand)
	assert.Equal(t, "/sys/class/net/bonding_masters", cfg.Host.BondingMastersPath)
	assert.Equal(t, BondMatchSubstring, cfg.Classify.BondMatch)
	assert.Equal(t, "lag", cfg.Classify.LagType)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, 10*time.Second, cfg.SSH.Timeout)
	assert.False(t, cfg.SSH.Enabled())
	assert.Empty(t, cfg.Storage.Minio.Host)
	assert.Equal(t, "stderr", cfg.Log.Output)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
export:
  output_path: /tmp/netbox/interfaces.csv
classify:
  bond_match: Prefix
  type_map:
    infiniband: infiniband-sdr
ssh:
  host: 10.0.0.5
  username: inventory
  timeout: 3s
metrics:
  textfile_path: /var/lib/node_exporter/ifexport.prom
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/netbox/interfaces.csv", cfg.Export.OutputPath)
	assert.Equal(t, BondMatchPrefix, cfg.Classify.BondMatch)
	assert.Equal(t, "infiniband-sdr", cfg.Classify.TypeMap["infiniband"])
	assert.True(t, cfg.SSH.Enabled())
	assert.Equal(t, 3*time.Second, cfg.SSH.Timeout)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, "/var/lib/node_exporter/ifexport.prom", cfg.Metrics.TextfilePath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadIgnoresEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IFEXPORT_EXPORT_OUTPUT_PATH", "from-env.csv")
	t.Setenv("EXPORT_OUTPUT_PATH", "from-env.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "interfaces.csv", cfg.Export.OutputPath)
}

func TestLoadSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "ifexport.yaml"),
		[]byte("export:\n  output_path: found.csv\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "found.csv", cfg.Export.OutputPath)
}

func TestLoadTypeMapDottedKeys(t *testing.T) {
	path := writeConfig(t, `
classify:
  type_map:
    ieee802.15.4: other-wireless
    ether: 10gbase-t
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ieee802.15.4": "other-wireless",
		"ether":        "10gbase-t",
	}, cfg.Classify.TypeMap)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "bad bond match", mutate: func(c *Config) { c.Classify.BondMatch = "fuzzy" }, wantErr: true},
		{name: "empty output", mutate: func(c *Config) { c.Export.OutputPath = " " }, wantErr: true},
		{name: "empty temp suffix", mutate: func(c *Config) { c.Export.TempSuffix = "" }, wantErr: true},
		{name: "ssh without user", mutate: func(c *Config) { c.SSH.Host = "h" }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Export:   ExportConfig{OutputPath: "interfaces.csv", TempSuffix: ".tmp"},
				Classify: ClassifyConfig{BondMatch: "exact"},
				SSH:      SSHConfig{Port: 22},
			}
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
