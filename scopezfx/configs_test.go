package scopezfx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/scopez/scopezfx"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tracing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
service_name: checkout
enabled: true
buffer_size: 64
workers: 2
queue_size: 32
`)

	cfg, err := scopezfx.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 64, cfg.BufferSize)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 32, cfg.QueueSize)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "enabled: true\n")

	cfg, err := scopezfx.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, scopezfx.DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, scopezfx.DefaultBufferSize, cfg.BufferSize)
	assert.Equal(t, scopezfx.DefaultWorkers, cfg.Workers)
	assert.Equal(t, scopezfx.DefaultQueueSize, cfg.QueueSize)
}

func TestLoadConfigZeroWorkersDisablesPool(t *testing.T) {
	path := writeConfig(t, "enabled: true\nworkers: 0\n")

	cfg, err := scopezfx.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := scopezfx.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "enabled: [not a bool\n")

	_, err := scopezfx.LoadConfig(path)
	assert.Error(t, err)
}
