package i2c

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/am2320"
	"github.com/mklimuk/am2320/snsctx"
)

var _ am2320.SMBus = &GenericBus{}

// GenericBus exposes a periph.io I²C bus through SMBus style calls.
type GenericBus struct {
	mx  sync.Mutex
	bus i2c.Bus
}

// NewGenericBus initializes the host drivers and opens the named bus
// ("1", "/dev/i2c-1" or "" for the first available one).
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return NewBus(bus), nil
}

// NewBus wraps an already opened bus.
func NewBus(bus i2c.Bus) *GenericBus {
	return &GenericBus{bus: bus}
}

func (b *GenericBus) WriteByteToAddr(ctx context.Context, address byte, value byte) error {
	return b.tx(ctx, address, []byte{value}, nil)
}

func (b *GenericBus) WriteBlockToAddr(ctx context.Context, address byte, register byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, register)
	w = append(w, data...)
	return b.tx(ctx, address, w, nil)
}

// ReadBlockFromAddr writes the register and reads back with a repeated start.
func (b *GenericBus) ReadBlockFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error {
	return b.tx(ctx, address, []byte{register}, buffer)
}

func (b *GenericBus) tx(ctx context.Context, address byte, w, r []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c tx", "addr", fmt.Sprintf("%#x", address), "write", hex.EncodeToString(w), "read", len(r))
	}
	err := b.bus.Tx(uint16(address), w, r)
	if err != nil {
		return fmt.Errorf("i2c transaction with %#x failed: %w", address, err)
	}
	return nil
}

// SetSpeed changes the bus clock, if the bus supports it.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) String() string {
	return fmt.Sprintf("periph(%s)", b.bus)
}

func (b *GenericBus) Close() error {
	if c, ok := b.bus.(i2c.BusCloser); ok {
		return c.Close()
	}
	return nil
}
