// Package poller refreshes a sensor on a fixed interval and hands every
// result to a Reporter.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/am2320/environment"
)

var ErrNoQuantities = errors.New("no quantities to poll")

// Device is the sensor being polled.
type Device interface {
	Update(ctx context.Context) error
	State() environment.State
	Reading(q environment.Quantity) *environment.Reading
}

// Value is one quantity as seen at the end of a cycle.
type Value struct {
	Name     string               `yaml:"name"`
	Quantity environment.Quantity `yaml:"quantity"`
	Value    float64              `yaml:"value"`
	Known    bool                 `yaml:"known"`
	Unit     string               `yaml:"unit"`
	Icon     string               `yaml:"icon"`
}

func (v Value) String() string {
	if !v.Known {
		return fmt.Sprintf("%s: unknown", v.Name)
	}
	return fmt.Sprintf("%s: %.1f %s", v.Name, v.Value, v.Unit)
}

type Snapshot struct {
	Time   time.Time         `yaml:"time"`
	State  environment.State `yaml:"state"`
	Values []Value           `yaml:"values"`
}

type Reporter interface {
	Report(ctx context.Context, s Snapshot) error
}

type ReporterFunc func(ctx context.Context, s Snapshot) error

func (f ReporterFunc) Report(ctx context.Context, s Snapshot) error {
	return f(ctx, s)
}

type Poller struct {
	device   Device
	readings []*environment.Reading
	reporter Reporter
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		p.interval = interval
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// New polls the given quantities of device. The default interval is 30s.
func New(device Device, quantities []environment.Quantity, reporter Reporter, opts ...Option) (*Poller, error) {
	if len(quantities) == 0 {
		return nil, ErrNoQuantities
	}
	p := &Poller{
		device:   device,
		reporter: reporter,
		interval: 30 * time.Second,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		return nil, fmt.Errorf("invalid poll interval %s", p.interval)
	}
	for _, q := range quantities {
		p.readings = append(p.readings, device.Reading(q))
	}
	return p, nil
}

// Poll runs a single update cycle and reports the result.
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	if err := p.device.Update(ctx); err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		Time:   p.now(),
		State:  p.device.State(),
		Values: make([]Value, 0, len(p.readings)),
	}
	for _, r := range p.readings {
		v, ok := r.Value()
		s.Values = append(s.Values, Value{
			Name:     r.Name(),
			Quantity: r.Quantity(),
			Value:    v,
			Known:    ok,
			Unit:     r.Unit(),
			Icon:     r.Icon(),
		})
	}
	if err := p.reporter.Report(ctx, s); err != nil {
		p.logger.Warn("could not report readings", "error", err)
	}
	return s, nil
}

// Run polls immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
