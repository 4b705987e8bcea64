package environment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReading_Metadata(t *testing.T) {
	s, _ := newTestAM2320(t, NewAM2320Simulator(StaticFrame(50.0, 20.0)), WithName("Attic"))

	temp := s.Temperature()
	assert.Equal(t, "Attic - Temperature", temp.Name())
	assert.Equal(t, "°C", temp.Unit())
	assert.Equal(t, "mdi:thermometer", temp.Icon())
	assert.Equal(t, Temperature, temp.Quantity())

	hum := s.Reading(Humidity)
	assert.Equal(t, "Attic - Humidity", hum.Name())
	assert.Equal(t, "%", hum.Unit())
	assert.Equal(t, "mdi:water-percent", hum.Icon())
}

func TestReading_DefaultName(t *testing.T) {
	s, _ := newTestAM2320(t, NewAM2320Simulator(StaticFrame(50.0, 20.0)))
	assert.Equal(t, "I2C Sensor - Humidity", s.Humidity().Name())
}

func TestReading_String(t *testing.T) {
	s, _ := newTestAM2320(t, NewAM2320Simulator(StaticFrame(50.0, -5.0)), WithName("Cellar"))
	assert.Equal(t, "Cellar - Temperature: unknown", s.Temperature().String())

	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, "Cellar - Temperature: -5.0 °C", s.Temperature().String())
	assert.Equal(t, "Cellar - Humidity: 50.0 %", s.Humidity().String())
}

func TestReading_SharesDevice(t *testing.T) {
	sim := NewAM2320Simulator(StaticFrame(40.0, 18.0))
	s, _ := newTestAM2320(t, sim)
	temp, hum := s.Temperature(), s.Humidity()

	require.NoError(t, s.Update(context.Background()))

	// one bus transaction feeds both views
	assert.Equal(t, 1, sim.Reads())
	v, ok := temp.Value()
	require.True(t, ok)
	assert.Equal(t, 18.0, v)
	v, ok = hum.Value()
	require.True(t, ok)
	assert.Equal(t, 40.0, v)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		given    string
		expected Quantity
		err      bool
	}{
		{"temperature", Temperature, false},
		{"Humidity", Humidity, false},
		{" humidity ", Humidity, false},
		{"pressure", "", true},
		{"", "", true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			q, err := ParseQuantity(test.given)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, q)
		})
	}
}
