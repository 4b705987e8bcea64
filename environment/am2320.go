package environment

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/am2320"
	"github.com/mklimuk/am2320/snsctx"
)

const (
	// The sensor needs 0.8-3ms after the wake-up call before it accepts a
	// command.
	am2320WakeDelay = 1 * time.Millisecond
	// Conversion takes at least 1.5ms after the read command; the sensor
	// drops back to sleep if we wait much longer than a few milliseconds.
	am2320ConversionDelay = 2 * time.Millisecond
	// After this many consecutive failed cycles the last known values are
	// dropped.
	am2320FailureThreshold = 10
	// Pause imposed after escalation so a dead sensor is not hammered.
	am2320EscalationBackoff = 100 * time.Millisecond
)

const DefaultName = "I2C Sensor"

var ErrNoData = fmt.Errorf("am2320: no data")

// State describes how trustworthy the reported values are.
type State int

const (
	// StateUnknown means no value is available.
	StateUnknown State = iota
	// StateDegraded means the last cycle failed and stale values are reported.
	StateDegraded
	// StateHealthy means the last cycle succeeded.
	StateHealthy
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type measurement struct {
	humidityTenths    int
	temperatureTenths int
}

func (m measurement) humidity() float64    { return float64(m.humidityTenths) / 10.0 }
func (m measurement) temperature() float64 { return float64(m.temperatureTenths) / 10.0 }

type AM2320Config struct {
	Address byte
	Name    string
	Logger  *slog.Logger
}

type AM2320ConfigOption func(*AM2320Config)

func WithAM2320Address(address byte) AM2320ConfigOption {
	return func(c *AM2320Config) {
		c.Address = address
	}
}

func WithName(name string) AM2320ConfigOption {
	return func(c *AM2320Config) {
		c.Name = name
	}
}

func WithLogger(logger *slog.Logger) AM2320ConfigOption {
	return func(c *AM2320Config) {
		c.Logger = logger
	}
}

// AM2320 represents the Aosong AM2320 temperature/humidity sensor.
// Typical usage:
//
//	s := NewAM2320(bus, WithName("Greenhouse"))
//	temp, hum := s.Temperature(), s.Humidity()
//	for range ticker.C {
//		_ = s.Update(ctx)
//		v, ok := temp.Value()
//	}
//
// Update never fails because of the sensor: bus errors and corrupted frames
// are logged and counted, and the last known values are kept until
// am2320FailureThreshold consecutive cycles have failed.
type AM2320 struct {
	mx sync.Mutex

	transport am2320.SMBus
	address   byte
	name      string
	logger    *slog.Logger

	frame    *Frame
	last     *measurement
	failures int
	lastErr  error

	wait func(ctx context.Context, d time.Duration) error
}

func NewAM2320(transport am2320.SMBus, opts ...AM2320ConfigOption) *AM2320 {
	config := AM2320Config{
		Address: am2320.DefaultAddress,
		Name:    DefaultName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &AM2320{
		transport: transport,
		address:   config.Address,
		name:      config.Name,
		logger:    config.Logger.With("sensor", "am2320", "addr", fmt.Sprintf("%#x", config.Address)),
		wait:      sleep,
	}
}

// Temperature returns the temperature view of the device.
func (s *AM2320) Temperature() *Reading {
	return &Reading{device: s, name: s.name, quantity: Temperature}
}

// Humidity returns the humidity view of the device.
func (s *AM2320) Humidity() *Reading {
	return &Reading{device: s, name: s.name, quantity: Humidity}
}

// Reading returns the view for q.
func (s *AM2320) Reading(q Quantity) *Reading {
	return &Reading{device: s, name: s.name, quantity: q}
}

// Update runs one measurement cycle. The only error it returns is the
// context error when ctx is done before the cycle completes; in that case
// the device state is left untouched.
func (s *AM2320) Update(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	frame, err := s.read(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if frame != nil {
		s.frame = frame
	}
	if err != nil {
		return s.fail(ctx, err)
	}
	s.failures = 0
	s.lastErr = nil
	s.last = &measurement{
		humidityTenths:    frame.humidityTenths(),
		temperatureTenths: frame.temperatureTenths(),
	}
	s.logger.Debug("measurement updated", "temperature", s.last.temperature(), "humidity", s.last.humidity())
	return nil
}

// read performs wake, request and read. A non-nil frame is returned whenever
// 8 bytes were received, even if they failed validation.
func (s *AM2320) read(ctx context.Context) (*Frame, error) {
	s.wake(ctx)
	if err := s.wait(ctx, am2320WakeDelay); err != nil {
		return nil, err
	}

	err := s.transport.WriteBlockToAddr(ctx, s.address, am2320CmdReadRegisters, []byte{am2320RegHumidity, am2320RegisterCount})
	if err != nil {
		return nil, am2320.TransportError("am2320: measurement request to", s.address, err)
	}
	if err := s.wait(ctx, am2320ConversionDelay); err != nil {
		return nil, err
	}

	var frame Frame
	err = s.transport.ReadBlockFromAddr(ctx, s.address, am2320RegHumidity, frame[:])
	if err != nil {
		return nil, am2320.TransportError("am2320: read from", s.address, err)
	}
	if snsctx.IsVerbose(ctx) {
		s.logger.Debug("frame received", "raw", hex.EncodeToString(frame[:]))
	}
	return &frame, frame.Validate()
}

// wake pulls the sensor out of sleep. The sensor does not acknowledge its
// address while asleep, so the write error is expected and discarded here.
func (s *AM2320) wake(ctx context.Context) {
	_ = s.transport.WriteByteToAddr(ctx, s.address, 0x00)
}

func (s *AM2320) fail(ctx context.Context, err error) error {
	s.failures++
	s.lastErr = err
	if s.failures < am2320FailureThreshold {
		s.logger.Warn("measurement failed, keeping last known values", "failures", s.failures, "error", err)
		return nil
	}
	s.logger.Error("sensor unresponsive, values are now unknown", "failures", s.failures, "error", err)
	s.last = nil
	s.failures = 0
	return s.wait(ctx, am2320EscalationBackoff)
}

// State reports whether current values are fresh, stale or unknown.
func (s *AM2320) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	switch {
	case s.last == nil:
		return StateUnknown
	case s.failures > 0:
		return StateDegraded
	default:
		return StateHealthy
	}
}

// Failures returns the number of consecutive failed cycles.
func (s *AM2320) Failures() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.failures
}

// LastError returns the error of the last failed cycle, nil after a success.
func (s *AM2320) LastError() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.lastErr
}

// Frame returns the last received raw frame.
func (s *AM2320) Frame() (Frame, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.frame == nil {
		return Frame{}, false
	}
	return *s.frame, true
}

// Address returns the 7-bit bus address of the device.
func (s *AM2320) Address() byte {
	return s.address
}

// Name returns the configured display name of the device.
func (s *AM2320) Name() string {
	return s.name
}

func (s *AM2320) measurement() (measurement, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.last == nil {
		return measurement{}, false
	}
	return *s.last, true
}

// Sense runs a measurement cycle and fills env with the resulting values.
// It returns ErrNoData while the values are unknown.
func (s *AM2320) Sense(ctx context.Context, env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0
	if err := s.Update(ctx); err != nil {
		return err
	}
	m, ok := s.measurement()
	if !ok {
		return ErrNoData
	}
	env.Humidity = physic.RelativeHumidity(m.humidityTenths) * physic.MilliRH
	env.Temperature = physic.ZeroCelsius + (physic.Celsius/10)*physic.Temperature(m.temperatureTenths)
	return nil
}

// Precision returns the resolution of the device for its measured parameters.
func (s *AM2320) Precision(env *physic.Env) {
	env.Temperature = physic.Celsius / 10
	env.Pressure = 0
	env.Humidity = physic.MilliRH
}

func (s *AM2320) String() string {
	return fmt.Sprintf("am2320(%#x): %s", s.address, s.name)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
