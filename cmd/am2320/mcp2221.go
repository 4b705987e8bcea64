package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/am2320/adapter"
	"github.com/mklimuk/am2320/cmd/am2320/console"
	"github.com/mklimuk/am2320/snsctx"
)

var mcp2221Flags = []cli.Flag{
	&cli.IntFlag{
		Name:    "index",
		Aliases: []string{"n"},
		Usage:   "bridge index as listed by usb detect",
	},
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "talk to the MCP2221 USB to I2C bridge",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge I2C engine status",
	Flags: mcp2221Flags,
	Action: func(c *cli.Context) error {
		return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return a.Status(ctx)
		})
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck transfer and free the bus",
	Flags: mcp2221Flags,
	Action: func(c *cli.Context) error {
		return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return a.ReleaseBus(ctx)
		})
	},
}

func bridgeStatus(c *cli.Context, call func(context.Context, *adapter.MCP2221) (*adapter.MCP2221Status, error)) error {
	a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	status, err := call(ctx, a)
	if err != nil {
		return console.Exit(1, "adapter communication error: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(status); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
