package basestation

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
	"go1090/internal/beast"
	"go1090/internal/logging"
)

func newTestWriter(t *testing.T) (*Writer, *logging.LogRotator) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rotator, err := logging.NewLogRotator(t.TempDir(), false, logger)
	require.NoError(t, err)
	t.Cleanup(func() { rotator.Close() })

	return NewWriter(rotator, logger), rotator
}

func TestWriteMessageSurveillance(t *testing.T) {
	w, rotator := newTestWriter(t)

	payload := []byte{4 << 3, 0, 0, 0, 0, 0, 0}
	crc := adsb.CRCCompute(payload, adsb.MsgShortBits)
	payload[4], payload[5], payload[6] = byte(crc>>16), byte(crc>>8), byte(crc)

	msg := &beast.Message{MessageType: beast.ModeS, Data: payload, Timestamp: time.Now()}
	require.NoError(t, w.WriteMessage(msg))

	content, err := os.ReadFile(rotator.GetCurrentLogFile())
	require.NoError(t, err)
	assert.Contains(t, string(content), "MSG,5,1,1,")
}

func TestWriteMessageNilAndInvalid(t *testing.T) {
	w, _ := newTestWriter(t)
	assert.Error(t, w.WriteMessage(nil))
	assert.Error(t, w.WriteMessage(&beast.Message{MessageType: beast.ModeS, Data: nil}))
}

func TestConvertADSBMessageIdentification(t *testing.T) {
	w, _ := newTestWriter(t)

	msg := &adsb.Message{DF: 17, METype: 4, HasFlightID: true, FlightID: "SAS123 "}
	msg.SetICAO(0x4B1621)

	baseMsg := w.convertADSBMessage(msg)
	require.NotNil(t, baseMsg)
	assert.Equal(t, TransmissionES_ID_CAT, baseMsg.TransmissionType)
	assert.Equal(t, "4B1621", baseMsg.HexIdent)
	assert.Equal(t, "SAS123 ", baseMsg.Callsign)
}

func TestFillPositionUsesLookup(t *testing.T) {
	w, _ := newTestWriter(t)
	w.SetPositionLookup(func(icao uint32) (float64, float64, bool) {
		return 52.25, 3.92, true
	})

	msg := &adsb.Message{DF: 17, METype: 11, HasAltitude: true, Altitude: 38000}
	msg.SetICAO(0x4B1621)

	baseMsg := w.convertADSBMessage(msg)
	assert.Equal(t, "52.250000", baseMsg.Latitude)
	assert.Equal(t, "3.920000", baseMsg.Longitude)
	assert.Equal(t, "38000", baseMsg.Altitude)
}

func TestFillPositionWithoutLookupLeavesBlank(t *testing.T) {
	w, _ := newTestWriter(t)
	msg := &adsb.Message{DF: 17, METype: 11}
	msg.SetICAO(0x4B1621)

	baseMsg := w.convertADSBMessage(msg)
	assert.Empty(t, baseMsg.Latitude)
	assert.Empty(t, baseMsg.Longitude)
}

func TestParseLineRoundTrip(t *testing.T) {
	original := &Message{
		MessageType:      MSG,
		TransmissionType: TransmissionES_ID_CAT,
		SessionID:        1,
		AircraftID:       1,
		HexIdent:         "4B1621",
		FlightID:         1,
		DateGenerated:    time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		TimeGenerated:    time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		DateLogged:       time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		TimeLogged:       time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		Callsign:         "SAS123",
	}
	w := &Writer{}
	line := w.formatCSV(original)

	parsed, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, original.MessageType, parsed.MessageType)
	assert.Equal(t, original.TransmissionType, parsed.TransmissionType)
	assert.Equal(t, original.HexIdent, parsed.HexIdent)
	assert.Equal(t, original.Callsign, parsed.Callsign)
	assert.Equal(t, original.DateGenerated, parsed.DateGenerated)
}

func TestParseLineNonMSGRow(t *testing.T) {
	parsed, err := ParseLine("SEL,1,1,1,4B1621,1,,,,,,,,,,,,,,,,\n")
	require.NoError(t, err)
	assert.Equal(t, SEL, parsed.MessageType)
}

func TestParseLineTooFewFields(t *testing.T) {
	_, err := ParseLine("MSG,1,1,1,4B1621")
	assert.Error(t, err)
}

func TestParseLineEmpty(t *testing.T) {
	_, err := ParseLine("")
	assert.Error(t, err)
}
