package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/am2320/cmd/am2320/console"
	"github.com/mklimuk/am2320/config"
	"github.com/mklimuk/am2320/environment"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "manage the sensor configuration file",
	Subcommands: cli.Commands{
		&configInitCmd,
		&configShowCmd,
	},
}

var configInitCmd = cli.Command{
	Name:      "init",
	Usage:     "interactively create a config file",
	ArgsUsage: "[path]",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			path = "am2320.yaml"
		}
		if _, err := os.Stat(path); err == nil {
			answer, err := console.YesOrNo(fmt.Sprintf("%s exists, overwrite?", path))
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "config left untouched")
				return nil
			}
		}
		cfg, err := askConfig(config.Default())
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := config.Save(path, cfg); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.PInfof(console.PictoNotebook, "config written to %s", console.White(path))
		return nil
	},
}

func askConfig(cfg config.Config) (config.Config, error) {
	var err error
	if cfg.Name, err = console.Ask("sensor name", cfg.Name); err != nil {
		return cfg, err
	}
	names := make([]string, 0, len(config.Adapters()))
	names = append(names, string(cfg.Adapter))
	for _, a := range config.Adapters() {
		if a != cfg.Adapter {
			names = append(names, string(a))
		}
	}
	answer, err := console.Prompt("adapter", names...)
	if err != nil {
		return cfg, err
	}
	cfg.Adapter = config.Adapter(answer)
	if answer, err = console.Ask("bus number", strconv.Itoa(cfg.Bus)); err != nil {
		return cfg, err
	}
	if cfg.Bus, err = strconv.Atoi(answer); err != nil {
		return cfg, fmt.Errorf("invalid bus number %q", answer)
	}
	if answer, err = console.Ask("sensor address", fmt.Sprintf("%#x", cfg.Address)); err != nil {
		return cfg, err
	}
	addr, err := strconv.ParseUint(answer, 0, 8)
	if err != nil {
		return cfg, fmt.Errorf("invalid address %q", answer)
	}
	cfg.Address = int(addr)
	if answer, err = console.Ask("monitored conditions", "temperature,humidity"); err != nil {
		return cfg, err
	}
	cfg.MonitoredConditions = nil
	for _, s := range strings.Split(answer, ",") {
		q, err := environment.ParseQuantity(s)
		if err != nil {
			return cfg, err
		}
		cfg.MonitoredConditions = append(cfg.MonitoredConditions, q)
	}
	if answer, err = console.Ask("scan interval", cfg.ScanInterval.String()); err != nil {
		return cfg, err
	}
	if cfg.ScanInterval, err = time.ParseDuration(answer); err != nil {
		return cfg, fmt.Errorf("invalid scan interval %q", answer)
	}
	return cfg, cfg.Validate()
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the effective configuration",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		cfg, cfgErr := loadConfig(c)
		if cfgErr != nil && !errors.Is(cfgErr, config.ErrInvalid) {
			return console.Exit(1, "%s", console.Red(cfgErr))
		}
		enc := yaml.NewEncoder(console.Writer())
		defer func() { _ = enc.Close() }()
		if err := enc.Encode(cfg); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		if cfgErr != nil {
			console.Warnf("%s", cfgErr)
		}
		return nil
	},
}
