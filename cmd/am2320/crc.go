package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/am2320/cmd/am2320/console"
	"github.com/mklimuk/am2320/environment"
)

var crcCmd = cli.Command{
	Name:      "crc",
	Usage:     "compute the checksum of 6 frame bytes or verify a full 8 byte frame",
	ArgsUsage: "<hex bytes>",
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return console.Exit(1, "missing frame bytes")
		}
		out, err := checkFrame(strings.Join(c.Args().Slice(), ""))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.Print(out)
		return nil
	},
}

// checkFrame accepts hex with optional spaces or colons.
func checkFrame(input string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(strings.ToLower(input))
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid hex: %w", err)
	}
	switch len(data) {
	case environment.FrameSize - 2:
		sum := environment.Checksum(data)
		return fmt.Sprintf("crc %#04x, frame % x %02x %02x", sum, data, byte(sum), byte(sum>>8)), nil
	case environment.FrameSize:
		var f environment.Frame
		copy(f[:], data)
		if err := f.Validate(); err != nil {
			return "", err
		}
		return fmt.Sprintf("humidity %.1f %%, temperature %.1f °C", f.Humidity(), f.Temperature()), nil
	}
	return "", fmt.Errorf("expected %d or %d bytes, got %d", environment.FrameSize-2, environment.FrameSize, len(data))
}
