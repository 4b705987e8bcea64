package environment

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameFromHex(t *testing.T, s string) Frame {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, FrameSize)
	var f Frame
	copy(f[:], b)
	return f
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		given    []byte
		expected uint16
	}{
		{[]byte{0x03, 0x04, 0x01, 0xF4, 0x00, 0xC8}, 0x70B0},
		{[]byte{0x03, 0x04, 0x01, 0xF4, 0x00, 0xFA}, 0xA531},
		{[]byte{0x03, 0x04, 0x01, 0x5C, 0x00, 0xEF}, 0x8A71},
		{[]byte{0x03, 0x04, 0x02, 0x8A, 0x80, 0x32}, 0xAF31},
		{[]byte{0x03, 0x04, 0x00, 0x00, 0x00, 0x00}, 0xE8F1},
		{[]byte{}, 0xFFFF},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, Checksum(test.given))
		})
	}
}

func TestFrame_Decode(t *testing.T) {
	tests := []struct {
		given       string
		humidity    float64
		temperature float64
	}{
		// sample frame from the datasheet
		{"030401f400fa31a5", 50.0, 25.0},
		{"030401f400c8b070", 50.0, 20.0},
		{"0304015c00ef718a", 34.8, 23.9},
		{"0304028a803231af", 65.0, -5.0},
		{"030400000000f1e8", 0, 0},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			f := frameFromHex(t, test.given)
			require.NoError(t, f.Validate())
			assert.Equal(t, test.humidity, f.Humidity())
			assert.Equal(t, test.temperature, f.Temperature())
		})
	}
}

func TestFrame_TemperatureSign(t *testing.T) {
	tests := []struct {
		given    []byte
		expected float64
	}{
		{[]byte{0x00, 0xC8}, 20.0},
		{[]byte{0x80, 0x32}, -5.0},
		{[]byte{0x80, 0x00}, 0.0},
		{[]byte{0x81, 0x90}, -40.0},
		{[]byte{0x03, 0x20}, 80.0},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			var f Frame
			f[4], f[5] = test.given[0], test.given[1]
			assert.Equal(t, test.expected, f.Temperature())
		})
	}
}

func TestFrame_HeaderMismatch(t *testing.T) {
	valid := frameFromHex(t, "030401f400fa31a5")
	tests := []struct {
		name string
		b0   byte
		b1   byte
	}{
		{"wrong function", 0x83, 0x04},
		{"wrong count", 0x03, 0x02},
		{"bus idle", 0xFF, 0xFF},
		{"zeroes", 0x00, 0x00},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := valid
			f[0], f[1] = test.b0, test.b1
			assert.ErrorIs(t, f.Validate(), ErrHeaderMismatch)
		})
	}
}

func TestFrame_ChecksumDetectsSingleBitFlips(t *testing.T) {
	valid := frameFromHex(t, "030401f400c8b070")
	require.NoError(t, valid.Validate())
	for i := 0; i < 6; i++ {
		for bit := 0; bit < 8; bit++ {
			f := valid
			f[i] ^= 1 << bit
			err := f.Validate()
			if i < 2 {
				// header bytes are rejected before the CRC is looked at
				assert.Error(t, err, "byte %d bit %d", i, bit)
				continue
			}
			assert.ErrorIs(t, err, ErrChecksumMismatch, "byte %d bit %d", i, bit)
		}
	}
}

func TestFrame_ChecksumByteOrder(t *testing.T) {
	f := frameFromHex(t, "030401f400c8b070")
	// same checksum in data-word byte order must be rejected
	f[6], f[7] = f[7], f[6]
	assert.ErrorIs(t, f.Validate(), ErrChecksumMismatch)
}

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		humidity    float64
		temperature float64
		expected    string
	}{
		{50.0, 20.0, "030401f400c8b070"},
		{50.0, 25.0, "030401f400fa31a5"},
		{65.0, -5.0, "0304028a803231af"},
		{34.8, 23.9, "0304015c00ef718a"},
	}
	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			f := EncodeFrame(test.humidity, test.temperature)
			assert.Equal(t, test.expected, hex.EncodeToString(f[:]))
			require.NoError(t, f.Validate())
			assert.Equal(t, test.humidity, f.Humidity())
			assert.Equal(t, test.temperature, f.Temperature())
		})
	}
}
