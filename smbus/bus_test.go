package smbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/am2320"
	"github.com/mklimuk/am2320/environment"
)

type MockConn struct {
	mock.Mock
}

func (m *MockConn) SetAddr(addr uint8) error {
	return m.Called(addr).Error(0)
}

func (m *MockConn) SendByte(v uint8) error {
	return m.Called(v).Error(0)
}

func (m *MockConn) WriteBlockData(addr, reg uint8, buf []byte) error {
	return m.Called(addr, reg, buf).Error(0)
}

func (m *MockConn) ReadBlockData(addr, reg uint8, buf []byte) error {
	args := m.Called(addr, reg, buf)
	if b, ok := args.Get(1).([]byte); ok {
		copy(buf, b)
	}
	return args.Error(0)
}

func (m *MockConn) Close() error {
	return m.Called().Error(0)
}

func TestBus_AM2320Cycle(t *testing.T) {
	c := &MockConn{}
	frame := environment.EncodeFrame(34.8, 23.9)
	c.On("SetAddr", uint8(0x5c)).Return(nil).Once()
	c.On("SendByte", uint8(0x00)).Return(errors.New("remote I/O error")).Once()
	c.On("WriteBlockData", uint8(0x5c), uint8(0x03), []byte{0x00, 0x04}).Return(nil).Once()
	c.On("ReadBlockData", uint8(0x5c), uint8(0x00), mock.Anything).Return(nil, frame[:]).Once()

	s := environment.NewAM2320(&Bus{num: 1, conn: c})
	require.NoError(t, s.Update(context.Background()))
	require.NoError(t, s.LastError())

	v, ok := s.Temperature().Value()
	require.True(t, ok)
	assert.Equal(t, 23.9, v)
	v, ok = s.Humidity().Value()
	require.True(t, ok)
	assert.Equal(t, 34.8, v)
	c.AssertExpectations(t)
}

func TestBus_Errors(t *testing.T) {
	ctx := context.Background()
	c := &MockConn{}
	c.On("SetAddr", uint8(0x5c)).Return(errors.New("bad address"))
	c.On("WriteBlockData", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nack"))
	c.On("ReadBlockData", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nack"), nil)
	b := &Bus{num: 1, conn: c}

	assert.ErrorContains(t, b.WriteByteToAddr(ctx, am2320.DefaultAddress, 0x00), "bad address")
	assert.ErrorContains(t, b.WriteBlockToAddr(ctx, am2320.DefaultAddress, 0x03, []byte{0x00, 0x04}), "nack")
	assert.ErrorContains(t, b.ReadBlockFromAddr(ctx, am2320.DefaultAddress, 0x00, make([]byte, 8)), "nack")
	c.AssertNotCalled(t, "SendByte", mock.Anything)
}

func TestBus_String(t *testing.T) {
	c := &MockConn{}
	c.On("Close").Return(nil)
	b := &Bus{num: 3, conn: c}
	assert.Equal(t, "smbus(/dev/i2c-3)", b.String())
	assert.NoError(t, b.Close())
}
