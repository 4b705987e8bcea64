// Package smbus drives the sensor through the Linux i2c-dev SMBus ioctls,
// the same byte/block primitives the sensor is usually scripted with.
package smbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-daq/smbus"

	"github.com/mklimuk/am2320"
)

var _ am2320.SMBus = &Bus{}

// conn is the subset of *smbus.Conn used here.
type conn interface {
	SetAddr(addr uint8) error
	SendByte(v uint8) error
	WriteBlockData(addr, reg uint8, buf []byte) error
	ReadBlockData(addr, reg uint8, buf []byte) error
	Close() error
}

// Bus is an am2320.SMBus backed by /dev/i2c-<n>.
type Bus struct {
	mx   sync.Mutex
	num  int
	conn conn
}

// Open opens /dev/i2c-<bus> with addr as the initial slave address.
func Open(bus int, addr byte) (*Bus, error) {
	c, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("could not open smbus %d: %w", bus, err)
	}
	return &Bus{num: bus, conn: devConn{c}}, nil
}

type devConn struct {
	*smbus.Conn
}

// SendByte writes a single byte with no command code.
func (c devConn) SendByte(v uint8) error {
	_, err := c.Conn.WriteByte(v)
	return err
}

func (b *Bus) WriteByteToAddr(ctx context.Context, address byte, value byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.conn.SetAddr(address); err != nil {
		return fmt.Errorf("could not select %#x on smbus %d: %w", address, b.num, err)
	}
	if err := b.conn.SendByte(value); err != nil {
		return fmt.Errorf("could not write byte to %#x: %w", address, err)
	}
	return nil
}

func (b *Bus) WriteBlockToAddr(ctx context.Context, address byte, register byte, data []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.conn.WriteBlockData(address, register, data); err != nil {
		return fmt.Errorf("could not write block to %#x: %w", address, err)
	}
	return nil
}

func (b *Bus) ReadBlockFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.conn.ReadBlockData(address, register, buffer); err != nil {
		return fmt.Errorf("could not read block from %#x: %w", address, err)
	}
	return nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("smbus(/dev/i2c-%d)", b.num)
}

func (b *Bus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.conn.Close()
}
