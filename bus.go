package am2320

import (
	"context"
	"errors"
	"fmt"
)

// DefaultAddress is the fixed 7-bit address of the AM2320. The datasheet
// quotes 0xB8, which is the 8-bit write address (0x5C<<1).
const DefaultAddress byte = 0x5C

// DefaultBus is the bus number used when none is configured (/dev/i2c-1).
const DefaultBus = 1

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrTransport marks a failure of the underlying bus, as opposed to a
// response that arrived but could not be decoded.
var ErrTransport = errors.New("bus transport error")

type ByteWriter interface {
	WriteByteToAddr(ctx context.Context, address byte, value byte) error
}

type BlockWriter interface {
	WriteBlockToAddr(ctx context.Context, address byte, register byte, data []byte) error
}

type BlockReader interface {
	// ReadBlockFromAddr fills buffer with len(buffer) bytes read starting at register.
	ReadBlockFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error
}

// SMBus is the byte/block level bus the AM2320 driver talks through.
type SMBus interface {
	ByteWriter
	BlockWriter
	BlockReader
}

// TransportError wraps err so that errors.Is(err, ErrTransport) holds.
func TransportError(op string, address byte, err error) error {
	return fmt.Errorf("%s %#x: %w: %w", op, address, ErrTransport, err)
}
