package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/am2320/cmd/am2320/console"
	"github.com/mklimuk/am2320/config"
	"github.com/mklimuk/am2320/environment"
	"github.com/mklimuk/am2320/poller"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	console.SetOutput(out, errOut)
	t.Cleanup(func() { console.SetOutput(os.Stdout, os.Stderr) })
	return out, errOut
}

func runApp(t *testing.T, args ...string) int {
	t.Helper()
	env := filepath.Join(t.TempDir(), ".env")
	return run(append([]string{"am2320", "--env", env}, args...))
}

func TestCheckFrame(t *testing.T) {
	tests := []struct {
		given    string
		expected string
		err      bool
	}{
		{"03 04 01 F4 00 C8", "crc 0x70b0, frame 03 04 01 f4 00 c8 b0 70", false},
		{"030401f400fa31a5", "humidity 50.0 %, temperature 25.0 °C", false},
		{"03:04:02:8a:80:32:31:af", "humidity 65.0 %, temperature -5.0 °C", false},
		{"03 04 01 f4 00 fa 31 a6", "", true},
		{"03 05 01 f4 00 fa 31 a5", "", true},
		{"03 04 01", "", true},
		{"zz", "", true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			out, err := checkFrame(test.given)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, out)
		})
	}
}

func TestOpenTransport_Sim(t *testing.T) {
	cfg := config.Default()
	cfg.Adapter = config.AdapterSim
	bus, closer, err := openTransport(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closer()) }()

	s := environment.NewAM2320(bus)
	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, environment.StateHealthy, s.State())
}

func TestOpenTransport_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Adapter = "spi"
	_, _, err := openTransport(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRead_Sim(t *testing.T) {
	out, _ := captureOutput(t)
	code := runApp(t, "read", "--adapter", "sim", "--name", "Bench")
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Bench - Temperature")
	assert.Contains(t, out.String(), "Bench - Humidity")
}

func TestRead_InvalidAddress(t *testing.T) {
	captureOutput(t)
	assert.Equal(t, 1, runApp(t, "read", "--adapter", "sim", "--address", "0x80"))
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am2320.yaml")
	cfg := config.Default()
	cfg.Name = "Greenhouse"
	cfg.MonitoredConditions = []environment.Quantity{environment.Humidity}
	require.NoError(t, config.Save(path, cfg))

	out, _ := captureOutput(t)
	require.Equal(t, 0, runApp(t, "config", "show", "--config", path, "--bus", "3"))
	loaded, err := config.Parse(out.Bytes())
	require.NoError(t, err)
	cfg.Bus = 3
	assert.Equal(t, cfg, loaded)
}

func TestPrintSnapshot(t *testing.T) {
	out, _ := captureOutput(t)
	err := printSnapshot(context.Background(), poller.Snapshot{
		Time:  time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC),
		State: environment.StateDegraded,
		Values: []poller.Value{
			{Quantity: environment.Temperature, Value: 21.5, Known: true, Unit: "°C"},
			{Quantity: environment.Humidity},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "08:30:00")
	assert.Contains(t, out.String(), "21.5 °C")
	assert.Contains(t, out.String(), "unknown")
}
