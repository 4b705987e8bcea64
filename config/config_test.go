package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/am2320/environment"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "I2C Sensor", cfg.Name)
	assert.Equal(t, 0x5C, cfg.Address)
	assert.Equal(t, 1, cfg.Bus)
	assert.True(t, cfg.Monitors(environment.Temperature))
	assert.True(t, cfg.Monitors(environment.Humidity))
}

func TestParse(t *testing.T) {
	t.Setenv("AM2320_NAME", "Greenhouse")
	cfg, err := Parse([]byte(`
name: ${AM2320_NAME}
adapter: periph
device: /dev/i2c-2
i2c_address: 0x5C
monitored_conditions:
  - Humidity
scan_interval: 10s
`))
	require.NoError(t, err)
	assert.Equal(t, "Greenhouse", cfg.Name)
	assert.Equal(t, AdapterPeriph, cfg.Adapter)
	assert.Equal(t, "/dev/i2c-2", cfg.Device)
	assert.Equal(t, 1, cfg.Bus)
	assert.Equal(t, []environment.Quantity{environment.Humidity}, cfg.MonitoredConditions)
	assert.False(t, cfg.Monitors(environment.Temperature))
	assert.Equal(t, 10*time.Second, cfg.ScanInterval)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"address too big":    "i2c_address: 0x80",
		"address zero":       "i2c_address: 0",
		"unknown adapter":    "adapter: spi",
		"unknown quantity":   "monitored_conditions: [pressure]",
		"no quantity":        "monitored_conditions: []",
		"duplicate quantity": "monitored_conditions: [humidity, Humidity]",
		"zero interval":      "scan_interval: 0s",
		"not yaml":           "name: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am2320.yaml")
	cfg := Default()
	cfg.Name = "Attic"
	cfg.Adapter = AdapterSim
	cfg.ScanInterval = time.Minute
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("AM2320_TEST_BUS=3\n"), 0o600))
	t.Setenv("AM2320_TEST_BUS", "")
	require.NoError(t, os.Unsetenv("AM2320_TEST_BUS"))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "3", os.Getenv("AM2320_TEST_BUS"))
}
