package environment

import (
	"fmt"
	"strings"
)

// Quantity is a physical value measured by the AM2320.
type Quantity string

const (
	Temperature Quantity = "temperature"
	Humidity    Quantity = "humidity"
)

var quantityMeta = map[Quantity]struct {
	label string
	icon  string
	unit  string
}{
	Temperature: {"Temperature", "mdi:thermometer", "°C"},
	Humidity:    {"Humidity", "mdi:water-percent", "%"},
}

// ParseQuantity accepts the configuration spelling of a quantity.
func ParseQuantity(s string) (Quantity, error) {
	q := Quantity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := quantityMeta[q]; !ok {
		return "", fmt.Errorf("unknown monitored condition %q", s)
	}
	return q, nil
}

// Label is the human readable quantity name ("Temperature").
func (q Quantity) Label() string { return quantityMeta[q].label }

// Unit is the unit of measurement ("°C" or "%").
func (q Quantity) Unit() string { return quantityMeta[q].unit }

// Icon is the Material Design icon identifier used by dashboards.
func (q Quantity) Icon() string { return quantityMeta[q].icon }

// Reading is a read-only view of one quantity of a shared AM2320 device.
// Temperature and humidity readings of the same sensor reference the same
// device, so one bus transaction feeds both.
type Reading struct {
	device   *AM2320
	name     string
	quantity Quantity
}

// Name returns "<device name> - <Quantity>".
func (r *Reading) Name() string {
	return fmt.Sprintf("%s - %s", r.name, r.quantity.Label())
}

func (r *Reading) Quantity() Quantity { return r.quantity }

func (r *Reading) Unit() string { return r.quantity.Unit() }

func (r *Reading) Icon() string { return r.quantity.Icon() }

// Value returns the last known value. ok is false while the value is unknown.
func (r *Reading) Value() (value float64, ok bool) {
	m, ok := r.device.measurement()
	if !ok {
		return 0, false
	}
	if r.quantity == Temperature {
		return m.temperature(), true
	}
	return m.humidity(), true
}

// String renders the value with its unit or "unknown".
func (r *Reading) String() string {
	v, ok := r.Value()
	if !ok {
		return fmt.Sprintf("%s: unknown", r.Name())
	}
	return fmt.Sprintf("%s: %.1f %s", r.Name(), v, r.Unit())
}
