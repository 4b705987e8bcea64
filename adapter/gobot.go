package adapter

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/am2320"
)

var _ am2320.SMBus = &GobotBus{}

// gobotConn is the part of i2c.Connection used by the bus.
type gobotConn interface {
	WriteByte(val byte) error
	WriteBlockData(reg uint8, data []byte) error
	ReadBlockData(reg uint8, data []byte) error
	Close() error
}

type connectFunc func(address int, bus int) (gobotConn, error)

// GobotBus talks to devices through a gobot I²C connector, keeping one
// connection per device address.
type GobotBus struct {
	mx       sync.Mutex
	bus      int
	connect  connectFunc
	conns    map[byte]gobotConn
	finalize func() error
}

// NewGobotBus uses the connector's bus number busNr.
func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	return &GobotBus{
		bus: busNr,
		connect: func(address int, bus int) (gobotConn, error) {
			c, err := connector.GetI2cConnection(address, bus)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		conns: make(map[byte]gobotConn),
	}
}

// NewNanoPiBus connects to the I²C bus of a NanoPi NEO board.
func NewNanoPiBus(busNr int) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	b := NewGobotBus(npi, busNr)
	b.finalize = npi.I2cBusAdaptor.Finalize
	return b, nil
}

func (b *GobotBus) conn(address byte) (gobotConn, error) {
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.connect(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %#x on bus %d: %w", address, b.bus, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) WriteByteToAddr(ctx context.Context, address byte, value byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	if err := c.WriteByte(value); err != nil {
		return fmt.Errorf("write byte to %#x failed: %w", address, err)
	}
	return nil
}

func (b *GobotBus) WriteBlockToAddr(ctx context.Context, address byte, register byte, data []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	if err := c.WriteBlockData(register, data); err != nil {
		return fmt.Errorf("write block to %#x failed: %w", address, err)
	}
	return nil
}

func (b *GobotBus) ReadBlockFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	if err := c.ReadBlockData(register, buffer); err != nil {
		return fmt.Errorf("read block from %#x failed: %w", address, err)
	}
	return nil
}

func (b *GobotBus) String() string {
	return fmt.Sprintf("gobot(bus %d)", b.bus)
}

// Close releases every connection and finalizes the board adaptor, if the
// bus owns one.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var first error
	for addr, c := range b.conns {
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("could not close connection to %#x: %w", addr, err)
		}
		delete(b.conns, addr)
	}
	if b.finalize != nil {
		if err := b.finalize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
