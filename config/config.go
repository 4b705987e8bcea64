// Package config loads the sensor configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/am2320"
	"github.com/mklimuk/am2320/environment"
)

// Adapter selects the transport used to reach the sensor.
type Adapter string

const (
	AdapterSMBus   Adapter = "smbus"
	AdapterPeriph  Adapter = "periph"
	AdapterGobot   Adapter = "gobot"
	AdapterMCP2221 Adapter = "mcp2221"
	AdapterSim     Adapter = "sim"
)

var adapters = []Adapter{AdapterSMBus, AdapterPeriph, AdapterGobot, AdapterMCP2221, AdapterSim}

const DefaultScanInterval = 30 * time.Second

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Name    string  `yaml:"name"`
	Adapter Adapter `yaml:"adapter"`
	// Bus is the bus number for the smbus and gobot adapters and the adapter
	// index for mcp2221.
	Bus     int    `yaml:"i2c_bus_num"`
	Device  string `yaml:"device,omitempty"`
	Address int    `yaml:"i2c_address"`
	// MonitoredConditions lists the quantities to report.
	MonitoredConditions []environment.Quantity `yaml:"monitored_conditions"`
	ScanInterval        time.Duration          `yaml:"scan_interval"`
}

// Default returns a config for the sensor at its factory address on bus 1.
func Default() Config {
	return Config{
		Name:                environment.DefaultName,
		Adapter:             AdapterSMBus,
		Bus:                 am2320.DefaultBus,
		Address:             int(am2320.DefaultAddress),
		MonitoredConditions: []environment.Quantity{environment.Temperature, environment.Humidity},
		ScanInterval:        DefaultScanInterval,
	}
}

// Load reads a YAML file on top of the defaults. Environment variables
// referenced as ${VAR} are expanded before parsing.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	for i, q := range cfg.MonitoredConditions {
		parsed, err := environment.ParseQuantity(string(q))
		if err != nil {
			return Config{}, fmt.Errorf("config: monitored_conditions[%d]: %w", i, err)
		}
		cfg.MonitoredConditions[i] = parsed
	}
	return cfg, cfg.Validate()
}

// Save writes the config as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	return nil
}

// LoadDotEnv loads environment variables from path. Missing files are ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c Config) Validate() error {
	if c.Address <= 0 || c.Address > 0x7F {
		return fmt.Errorf("%w: i2c_address %#x is not a 7-bit address", ErrInvalid, c.Address)
	}
	if c.Bus < 0 {
		return fmt.Errorf("%w: i2c_bus_num must not be negative", ErrInvalid)
	}
	known := false
	for _, a := range adapters {
		if c.Adapter == a {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalid, c.Adapter)
	}
	if len(c.MonitoredConditions) == 0 {
		return fmt.Errorf("%w: at least one monitored condition is required", ErrInvalid)
	}
	seen := make(map[environment.Quantity]struct{}, len(c.MonitoredConditions))
	for _, q := range c.MonitoredConditions {
		if _, dup := seen[q]; dup {
			return fmt.Errorf("%w: duplicate monitored condition %q", ErrInvalid, q)
		}
		seen[q] = struct{}{}
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan_interval must be positive", ErrInvalid)
	}
	return nil
}

// Monitors reports whether q is one of the monitored conditions.
func (c Config) Monitors(q environment.Quantity) bool {
	for _, m := range c.MonitoredConditions {
		if m == q {
			return true
		}
	}
	return false
}

// Adapters lists the supported adapter names.
func Adapters() []Adapter {
	return append([]Adapter(nil), adapters...)
}
