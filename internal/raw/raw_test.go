package raw

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{4 << 3, 0, 0, 0, 0, 0, 0}
	crc := adsb.CRCCompute(payload, adsb.MsgShortBits)
	payload[4], payload[5], payload[6] = byte(crc>>16), byte(crc>>8), byte(crc)

	msg := adsb.Decode(payload, 4, adsb.DecoderOptions{}, time.Now())
	require.NotNil(t, msg)

	line := Encode(msg)
	assert.True(t, strings.HasPrefix(line, "*"))
	assert.True(t, strings.HasSuffix(line, ";\n"))

	data, df, ok := Decode(line[1 : len(line)-2])
	require.True(t, ok)
	assert.Equal(t, uint8(4), df)
	assert.Equal(t, msg.Bytes, data)
}

func TestDecodeRejectsOddLength(t *testing.T) {
	_, _, ok := Decode("8D4")
	assert.False(t, ok)
}

func TestDecodeRejectsTooLongPayload(t *testing.T) {
	_, _, ok := Decode(strings.Repeat("A", 30))
	assert.False(t, ok)
}

func TestDecodeRejectsNonHex(t *testing.T) {
	_, _, ok := Decode("ZZ")
	assert.False(t, ok)
}

func TestScannerSkipsHeartbeat(t *testing.T) {
	input := "*0000;\n*0000;\n*8D4B1621583592CDFB8A45C9F7FE;\n*0000;\n"
	s := NewScanner(bufio.NewReader(strings.NewReader(input)))

	data, df, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, uint8(17), df)
	assert.Len(t, data, 14)

	_, _, ok = s.Next()
	assert.False(t, ok)
	require.NoError(t, s.Err())
	assert.EqualValues(t, 4, s.Good)
}

func TestScannerCountsUnrecognizedAndEmpty(t *testing.T) {
	input := "garbage line\n*;\n"
	s := NewScanner(bufio.NewReader(strings.NewReader(input)))

	_, _, ok := s.Next()
	assert.False(t, ok)
	assert.EqualValues(t, 1, s.Unrecognized)
	assert.EqualValues(t, 1, s.Empty)
}
