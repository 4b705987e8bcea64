package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/am2320"
	"github.com/mklimuk/am2320/adapter"
	"github.com/mklimuk/am2320/cmd/am2320/console"
	"github.com/mklimuk/am2320/config"
	"github.com/mklimuk/am2320/environment"
	"github.com/mklimuk/am2320/i2c"
	"github.com/mklimuk/am2320/poller"
	"github.com/mklimuk/am2320/smbus"
	"github.com/mklimuk/am2320/snsctx"
)

var sensorFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML config file",
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "transport: smbus, periph, gobot, mcp2221 or sim",
	},
	&cli.IntFlag{
		Name:    "bus",
		Aliases: []string{"b"},
		Usage:   "bus number (adapter index for mcp2221)",
	},
	&cli.StringFlag{
		Name:  "device",
		Usage: "periph bus name",
	},
	&cli.StringFlag{
		Name:  "address",
		Usage: "7-bit sensor address",
	},
	&cli.StringFlag{
		Name:  "name",
		Usage: "sensor display name",
	},
}

// loadConfig merges the config file, if any, with the command line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") {
		cfg.Adapter = config.Adapter(c.String("adapter"))
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("address") {
		addr, err := strconv.ParseUint(c.String("address"), 0, 8)
		if err != nil {
			return cfg, fmt.Errorf("invalid address %q: %w", c.String("address"), err)
		}
		cfg.Address = int(addr)
	}
	if c.IsSet("name") {
		cfg.Name = c.String("name")
	}
	if c.IsSet("interval") {
		cfg.ScanInterval = c.Duration("interval")
	}
	return cfg, cfg.Validate()
}

type closeFunc func() error

// openTransport opens the bus described by cfg.
func openTransport(ctx context.Context, cfg config.Config) (am2320.SMBus, closeFunc, error) {
	nop := func() error { return nil }
	switch cfg.Adapter {
	case config.AdapterSMBus:
		b, err := smbus.Open(cfg.Bus, byte(cfg.Address))
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.AdapterPeriph:
		dev := cfg.Device
		if dev == "" {
			dev = strconv.Itoa(cfg.Bus)
		}
		b, err := i2c.NewGenericBus(dev)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.AdapterGobot:
		b, err := adapter.NewNanoPiBus(cfg.Bus)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.AdapterMCP2221:
		m := adapter.NewMCP2221(adapter.WithDeviceIndex(cfg.Bus))
		if err := m.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return m, nop, nil
	case config.AdapterSim:
		return environment.NewAM2320Simulator(simulatedClimate()), nop, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}

// simulatedClimate drifts slowly around 21°C and 45%.
func simulatedClimate() environment.FrameBehaviorFunc {
	temp, hum := 21.0, 45.0
	return func(ctx context.Context) (environment.Frame, error) {
		temp += (rand.Float64() - 0.5) / 5
		hum += (rand.Float64() - 0.5) / 2
		return environment.EncodeFrame(hum, temp), nil
	}
}

func openSensor(c *cli.Context) (*environment.AM2320, config.Config, closeFunc, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cfg, nil, console.Exit(1, "configuration error: %s", console.Red(err))
	}
	bus, closer, err := openTransport(c.Context, cfg)
	if err != nil {
		return nil, cfg, nil, console.Exit(1, "could not open %s adapter: %s", cfg.Adapter, console.Red(err))
	}
	s := environment.NewAM2320(bus,
		environment.WithAM2320Address(byte(cfg.Address)),
		environment.WithName(cfg.Name),
	)
	return s, cfg, closer, nil
}

var readCmd = cli.Command{
	Name:  "read",
	Usage: "run a single measurement cycle",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		s, cfg, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		if err := s.Update(ctx); err != nil {
			return console.Exit(1, "measurement interrupted: %s", console.Red(err))
		}
		if s.State() != environment.StateHealthy {
			return console.Exit(1, "measurement failed: %s", console.Red(s.LastError()))
		}
		for _, q := range cfg.MonitoredConditions {
			printReading(s.Reading(q))
		}
		return nil
	},
}

func printReading(r *environment.Reading) {
	picto := console.PictoThermometer
	if r.Quantity() == environment.Humidity {
		picto = console.PictoHumidity
	}
	v, ok := r.Value()
	if !ok {
		console.PInfof(picto, "%s %s", r.Name(), console.Red("unknown"))
		return
	}
	console.PInfof(picto, "%s %s", r.Name(), console.White(fmt.Sprintf("%.1f %s", v, r.Unit())))
}

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the sensor until interrupted",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "scan interval",
		},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		ctx = snsctx.SetVerbose(ctx, c.Bool("verbose"))
		s, cfg, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		p, err := poller.New(s, cfg.MonitoredConditions, poller.ReporterFunc(printSnapshot), poller.WithInterval(cfg.ScanInterval))
		if err != nil {
			return console.Exit(1, "could not start polling: %s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "watching %s every %s", s, cfg.ScanInterval)
		if err := p.Run(ctx); err != nil {
			return console.Exit(1, "polling stopped: %s", console.Red(err))
		}
		console.PInfof(console.PictoFinish, "done")
		return nil
	},
}

func printSnapshot(ctx context.Context, snap poller.Snapshot) error {
	line := fmt.Sprintf("%s [%s]", snap.Time.Format(time.TimeOnly), console.StateColor(snap.State.String()))
	for _, v := range snap.Values {
		picto := console.PictoThermometer
		if v.Quantity == environment.Humidity {
			picto = console.PictoHumidity
		}
		if v.Known {
			line += fmt.Sprintf("  %s %s", picto, console.White(fmt.Sprintf("%.1f %s", v.Value, v.Unit)))
		} else {
			line += fmt.Sprintf("  %s %s", picto, console.Red("unknown"))
		}
	}
	console.Print(line)
	return nil
}
