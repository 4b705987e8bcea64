package environment

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/am2320"
)

// FrameBehaviorFunc produces the response frame for one simulated read.
type FrameBehaviorFunc func(ctx context.Context) (Frame, error)

// StaticFrame returns a behavior that always answers with the given values.
func StaticFrame(humidity, temperature float64) FrameBehaviorFunc {
	frame := EncodeFrame(humidity, temperature)
	return func(ctx context.Context) (Frame, error) {
		return frame, nil
	}
}

// AM2320Simulator is an am2320.SMBus that answers like an AM2320 without
// any hardware. It enforces the request-then-read ordering of the real
// sensor and delegates the frame content to a behavior function.
type AM2320Simulator struct {
	mx        sync.Mutex
	address   byte
	behavior  FrameBehaviorFunc
	requested bool
	reads     int
}

var _ am2320.SMBus = &AM2320Simulator{}

var errSimNoRequest = fmt.Errorf("am2320 sim: read without measurement request")

func NewAM2320Simulator(behavior FrameBehaviorFunc) *AM2320Simulator {
	return &AM2320Simulator{address: am2320.DefaultAddress, behavior: behavior}
}

func (m *AM2320Simulator) WriteByteToAddr(ctx context.Context, address byte, value byte) error {
	if address != m.address {
		return fmt.Errorf("am2320 sim: no device at %#x", address)
	}
	return nil
}

func (m *AM2320Simulator) WriteBlockToAddr(ctx context.Context, address byte, register byte, data []byte) error {
	if address != m.address {
		return fmt.Errorf("am2320 sim: no device at %#x", address)
	}
	if register != am2320CmdReadRegisters || !bytes.Equal(data, []byte{am2320RegHumidity, am2320RegisterCount}) {
		return fmt.Errorf("am2320 sim: unsupported command %#x % x", register, data)
	}
	m.mx.Lock()
	m.requested = true
	m.mx.Unlock()
	return nil
}

func (m *AM2320Simulator) ReadBlockFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error {
	if address != m.address {
		return fmt.Errorf("am2320 sim: no device at %#x", address)
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.requested {
		return errSimNoRequest
	}
	m.requested = false
	frame, err := m.behavior(ctx)
	if err != nil {
		return err
	}
	m.reads++
	copy(buffer, frame[:])
	return nil
}

// Reads returns how many frames were served.
func (m *AM2320Simulator) Reads() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.reads
}
