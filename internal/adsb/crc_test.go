package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRCComputeReportedRoundTrip(t *testing.T) {
	bytes := make([]byte, MsgShortBytes)
	bytes[0] = 0x28 // DF5
	bytes[1] = 0x00
	bytes[2] = 0x3a
	bytes[3] = 0xa5

	computed := CRCCompute(bytes, MsgShortBits)
	bytes[4] = byte(computed >> 16)
	bytes[5] = byte(computed >> 8)
	bytes[6] = byte(computed)

	assert.Equal(t, computed, CRCReported(bytes, MsgShortBits))
}

func TestFixSingleBit(t *testing.T) {
	bytes := make([]byte, MsgShortBytes)
	bytes[0] = 0x28
	bytes[1] = 0x00
	bytes[2] = 0x3a
	bytes[3] = 0xa5
	computed := CRCCompute(bytes, MsgShortBits)
	bytes[4] = byte(computed >> 16)
	bytes[5] = byte(computed >> 8)
	bytes[6] = byte(computed)

	corrupted := make([]byte, len(bytes))
	copy(corrupted, bytes)
	flipBit(corrupted, 10)

	fix, ok := FixSingleBit(corrupted, MsgShortBits)
	assert.True(t, ok)
	assert.Equal(t, FixSingle, fix.Kind)
	assert.Equal(t, 10, fix.Pos)
	assert.Equal(t, bytes, corrupted)
}

func TestFixSingleBitNoErrorReturnsFalse(t *testing.T) {
	bytes := make([]byte, MsgShortBytes)
	bytes[0] = 0x28
	computed := CRCCompute(bytes, MsgShortBits)
	bytes[4] = byte(computed >> 16)
	bytes[5] = byte(computed >> 8)
	bytes[6] = byte(computed)

	_, ok := FixSingleBit(bytes, MsgShortBits)
	assert.False(t, ok)
}

func TestFixTwoBit(t *testing.T) {
	bytes := make([]byte, MsgShortBytes)
	bytes[0] = 0x28
	bytes[1] = 0x12
	bytes[2] = 0x3a
	bytes[3] = 0xa5
	computed := CRCCompute(bytes, MsgShortBits)
	bytes[4] = byte(computed >> 16)
	bytes[5] = byte(computed >> 8)
	bytes[6] = byte(computed)

	corrupted := make([]byte, len(bytes))
	copy(corrupted, bytes)
	flipBit(corrupted, 3)
	flipBit(corrupted, 20)

	fix, ok := FixTwoBit(corrupted, MsgShortBits)
	assert.True(t, ok)
	assert.Equal(t, FixDouble, fix.Kind)
	assert.Equal(t, bytes, corrupted)
}
