package environment

import (
	"encoding/binary"
	"fmt"
)

// Read registers command (Modbus-like function code 0x03).
const (
	am2320CmdReadRegisters byte = 0x03
	am2320RegHumidity      byte = 0x00
	am2320RegisterCount    byte = 0x04
)

// FrameSize is the length of a read response for 4 registers:
// {function, count, hum MSB, hum LSB, temp MSB, temp LSB, crc low, crc high}
const FrameSize = 8

const crcInit uint16 = 0xFFFF

var ErrHeaderMismatch = fmt.Errorf("am2320: frame header mismatch")
var ErrChecksumMismatch = fmt.Errorf("am2320: frame checksum mismatch")

// Frame is a raw measurement response as read from the sensor.
type Frame [FrameSize]byte

// Validate checks the echoed header and the CRC trailer.
func (f Frame) Validate() error {
	if f[0] != am2320CmdReadRegisters || f[1] != am2320RegisterCount {
		return fmt.Errorf("%w: got %#02x %#02x", ErrHeaderMismatch, f[0], f[1])
	}
	// the CRC travels low byte first, unlike the data words
	expected := combine(f[7], f[6])
	if crc := Checksum(f[:6]); crc != expected {
		return fmt.Errorf("%w: computed %#04x, frame carries %#04x", ErrChecksumMismatch, crc, expected)
	}
	return nil
}

// Humidity returns relative humidity in %RH.
func (f Frame) Humidity() float64 {
	return float64(f.humidityTenths()) / 10.0
}

// Temperature returns temperature in degrees Celsius.
func (f Frame) Temperature() float64 {
	return float64(f.temperatureTenths()) / 10.0
}

func (f Frame) humidityTenths() int {
	return int(binary.BigEndian.Uint16(f[2:4]))
}

// temperatureTenths decodes the sign-magnitude temperature word; bit 15 is
// the sign, not two's complement.
func (f Frame) temperatureTenths() int {
	raw := combine(f[4], f[5])
	if raw&0x8000 != 0 {
		return -int(raw & 0x7FFF)
	}
	return int(raw)
}

func (f Frame) String() string {
	return fmt.Sprintf("% x", f[:])
}

// EncodeFrame builds a valid response frame for the given values. Values are
// rounded to the sensor's 0.1 resolution.
func EncodeFrame(humidity, temperature float64) Frame {
	var f Frame
	f[0] = am2320CmdReadRegisters
	f[1] = am2320RegisterCount
	binary.BigEndian.PutUint16(f[2:4], uint16(tenths(humidity)))
	t := tenths(temperature)
	word := uint16(t)
	if t < 0 {
		word = uint16(-t)&0x7FFF | 0x8000
	}
	binary.BigEndian.PutUint16(f[4:6], word)
	binary.LittleEndian.PutUint16(f[6:8], Checksum(f[:6]))
	return f
}

func tenths(v float64) int {
	if v < 0 {
		return int(v*10 - 0.5)
	}
	return int(v*10 + 0.5)
}

// Checksum is the CRC-16/MODBUS variant from the AM2320 datasheet:
// reflected polynomial 0xA001, initial value 0xFFFF, LSB first.
func Checksum(data []byte) uint16 {
	crc := crcInit
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func combine(msb, lsb byte) uint16 {
	return uint16(msb)<<8 | uint16(lsb)
}
