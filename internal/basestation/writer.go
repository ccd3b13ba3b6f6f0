package basestation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/beast"
	"go1090/internal/logging"
)

// BaseStation message types
const (
	SEL = "SEL" // Selection Change
	ID  = "ID"  // New ID
	AIR = "AIR" // New Aircraft
	STA = "STA" // Status Change
	CLK = "CLK" // Click
	MSG = "MSG" // Transmission
)

// BaseStation transmission types
const (
	TransmissionES_ID_CAT       = 1 // Extended Squitter Aircraft ID and Category
	TransmissionES_SURFACE      = 2 // Extended Squitter Surface Position
	TransmissionES_AIRBORNE     = 3 // Extended Squitter Airborne Position
	TransmissionES_VELOCITY     = 4 // Extended Squitter Airborne Velocity
	TransmissionSURVEILLANCE    = 5 // Surveillance Alt, Squawk change
	TransmissionSURVEILLANCE_ID = 6 // Surveillance ID change
	TransmissionAIR_TO_AIR      = 7 // Air-to-Air Message
	TransmissionALL_CALL        = 8 // All Call Reply
)

// Message represents a BaseStation format message
type Message struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// PositionLookup resolves an aircraft's current CPR-paired position, if
// any. The writer has no pairing state of its own (spec.md §4.5 pairs
// odd/even frames in the registry, not per-message); wiring this to
// registry.Registry.Get lets SBS_OUT report position once resolved.
type PositionLookup func(icao uint32) (lat, lon float64, ok bool)

// Writer writes messages in BaseStation format
type Writer struct {
	logRotator *logging.LogRotator
	logger     *logrus.Logger
	sessionID  int
	aircraftID int
	position   PositionLookup
}

// NewWriter creates a new BaseStation writer
func NewWriter(logRotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{
		logRotator: logRotator,
		logger:     logger,
		sessionID:  1,
		aircraftID: 1,
	}
}

// SetPositionLookup wires a resolved-position source (normally
// registry.Registry.Get) into the writer for airborne position rows.
func (w *Writer) SetPositionLookup(lookup PositionLookup) {
	w.position = lookup
}

// WriteMessage writes a Beast message in BaseStation format
func (w *Writer) WriteMessage(msg *beast.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	if !msg.IsValid() {
		return fmt.Errorf("invalid message")
	}

	// Convert Beast message to BaseStation format
	baseMsg := w.convertMessage(msg)
	if baseMsg == nil {
		// Message type not supported for BaseStation format
		return nil
	}

	// Format as BaseStation CSV
	csvLine := w.formatCSV(baseMsg)

	// Get current writer
	writer, err := w.logRotator.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}

	// Write to log
	if _, err := writer.Write([]byte(csvLine + "\n")); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	return nil
}

// WriteADSBMessage writes an already-decoded ADS-B message in
// BaseStation format, bypassing the Beast framing layer (used by the
// RAW_IN/SBS_IN relay paths, which never see a Beast envelope).
func (w *Writer) WriteADSBMessage(msg *adsb.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	baseMsg := w.convertADSBMessage(msg)
	if baseMsg == nil {
		return nil
	}

	csvLine := w.formatCSV(baseMsg)
	writer, err := w.logRotator.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}
	if _, err := writer.Write([]byte(csvLine + "\n")); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}
	return nil
}

// FormatLine renders a decoded ADS-B message as a BaseStation CSV
// line (no trailing newline), or "" if msg doesn't map to a
// BaseStation transmission type. Used by the network reactor's
// SBS_OUT fan-out, which broadcasts without touching the log rotator.
func (w *Writer) FormatLine(msg *adsb.Message) string {
	baseMsg := w.convertADSBMessage(msg)
	if baseMsg == nil || baseMsg.TransmissionType == 0 {
		return ""
	}
	return w.formatCSV(baseMsg)
}

// convertMessage converts a Beast message to BaseStation format
func (w *Writer) convertMessage(msg *beast.Message) *Message {
	if msg.MessageType == beast.ModeAC {
		now := time.Now()
		baseMsg := &Message{
			MessageType:      MSG,
			TransmissionType: TransmissionSURVEILLANCE,
			SessionID:        w.sessionID,
			AircraftID:       w.aircraftID,
			FlightID:         w.aircraftID,
			DateGenerated:    msg.Timestamp,
			TimeGenerated:    msg.Timestamp,
			DateLogged:       now,
			TimeLogged:       now,
		}
		if squawk := msg.GetSquawk(); squawk != 0 {
			baseMsg.Squawk = fmt.Sprintf("%04d", squawk)
		}
		return baseMsg
	}

	decoded := msg.Decode(adsb.DecoderOptions{})
	if decoded == nil {
		return nil
	}
	return w.convertADSBMessage(decoded)
}

// convertADSBMessage converts a decoded ADS-B message to BaseStation
// format, delegating all field extraction to internal/adsb.Decode
// instead of re-deriving altitude/squawk/callsign/velocity here.
func (w *Writer) convertADSBMessage(msg *adsb.Message) *Message {
	now := time.Now()
	baseMsg := &Message{
		MessageType:   MSG,
		SessionID:     w.sessionID,
		AircraftID:    w.aircraftID,
		FlightID:      w.aircraftID,
		HexIdent:      fmt.Sprintf("%06X", msg.ICAO()),
		DateGenerated: msg.Timestamp,
		TimeGenerated: msg.Timestamp,
		DateLogged:    now,
		TimeLogged:    now,
	}

	switch msg.DF {
	case 4, 5, 20, 21:
		baseMsg.TransmissionType = TransmissionSURVEILLANCE
		if msg.HasAltitude {
			baseMsg.Altitude = strconv.Itoa(msg.Altitude)
		}
		if msg.HasIdentity {
			baseMsg.Squawk = fmt.Sprintf("%04d", msg.Identity)
		}

	case 11:
		baseMsg.TransmissionType = TransmissionALL_CALL

	case 17, 18:
		switch {
		case msg.METype >= 1 && msg.METype <= 4:
			baseMsg.TransmissionType = TransmissionES_ID_CAT
			if msg.HasFlightID {
				baseMsg.Callsign = msg.FlightID
			}

		case msg.METype >= 5 && msg.METype <= 8:
			baseMsg.TransmissionType = TransmissionES_SURFACE
			w.fillPosition(baseMsg, msg)

		case msg.METype >= 9 && msg.METype <= 18:
			baseMsg.TransmissionType = TransmissionES_AIRBORNE
			if msg.HasAltitude {
				baseMsg.Altitude = strconv.Itoa(msg.Altitude)
			}
			w.fillPosition(baseMsg, msg)

		case msg.METype == 19:
			baseMsg.TransmissionType = TransmissionES_VELOCITY
			if msg.HasVelocity {
				baseMsg.GroundSpeed = strconv.Itoa(int(msg.GroundSpeed))
			}
			if msg.HasHeading {
				baseMsg.Track = fmt.Sprintf("%.1f", msg.Heading)
			}
			if msg.HasVerticalRate {
				rate := msg.VerticalRate
				if msg.VerticalSign != 0 {
					rate = -rate
				}
				baseMsg.VerticalRate = strconv.Itoa(rate)
			}
		}
	}

	return baseMsg
}

// fillPosition populates Latitude/Longitude from the registry's
// resolved position for this aircraft, if a lookup is wired and a
// position has been resolved. A single position ME field carries only
// a CPR half (spec.md §4.5), so it cannot be turned into a coordinate
// on its own.
func (w *Writer) fillPosition(baseMsg *Message, msg *adsb.Message) {
	if w.position == nil {
		return
	}
	lat, lon, ok := w.position(msg.ICAO())
	if !ok {
		return
	}
	baseMsg.Latitude = fmt.Sprintf("%.6f", lat)
	baseMsg.Longitude = fmt.Sprintf("%.6f", lon)
}

// formatCSV formats a BaseStation message as CSV
func (w *Writer) formatCSV(msg *Message) string {
	fields := []string{
		msg.MessageType,
		strconv.Itoa(msg.TransmissionType),
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format("2006/01/02"),
		msg.TimeGenerated.Format("15:04:05.000"),
		msg.DateLogged.Format("2006/01/02"),
		msg.TimeLogged.Format("15:04:05.000"),
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	}

	return strings.Join(fields, ",")
}

// ParseLine parses one BaseStation CSV line, as received over the
// SBS_IN service, into a Message. Only MSG rows carry the fixed
// 22-field layout formatCSV produces; other row types (SEL, ID, AIR,
// STA, CLK) are accepted with their type preserved but no further
// fields populated, since this relay only re-broadcasts MSG rows.
func ParseLine(line string) (*Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("empty line")
	}

	fields := strings.Split(line, ",")
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields")
	}

	msg := &Message{MessageType: fields[0]}
	if msg.MessageType != MSG {
		return msg, nil
	}
	if len(fields) < 22 {
		return nil, fmt.Errorf("MSG row has %d fields, want 22", len(fields))
	}

	var err error
	if msg.TransmissionType, err = strconv.Atoi(fields[1]); err != nil {
		return nil, fmt.Errorf("transmission type: %w", err)
	}
	if msg.SessionID, err = strconv.Atoi(fields[2]); err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	if msg.AircraftID, err = strconv.Atoi(fields[3]); err != nil {
		return nil, fmt.Errorf("aircraft id: %w", err)
	}
	msg.HexIdent = fields[4]
	if msg.FlightID, err = strconv.Atoi(fields[5]); err != nil {
		return nil, fmt.Errorf("flight id: %w", err)
	}

	msg.DateGenerated = parseDateTime(fields[6], fields[7])
	msg.TimeGenerated = msg.DateGenerated
	msg.DateLogged = parseDateTime(fields[8], fields[9])
	msg.TimeLogged = msg.DateLogged

	msg.Callsign = strings.TrimSpace(fields[10])
	msg.Altitude = fields[11]
	msg.GroundSpeed = fields[12]
	msg.Track = fields[13]
	msg.Latitude = fields[14]
	msg.Longitude = fields[15]
	msg.VerticalRate = fields[16]
	msg.Squawk = fields[17]
	msg.Alert = fields[18]
	msg.Emergency = fields[19]
	msg.SPI = fields[20]
	msg.IsOnGround = fields[21]

	return msg, nil
}

// parseDateTime combines a BaseStation "2006/01/02" date field and a
// "15:04:05.000" time field into one time.Time; either being malformed
// yields the zero time rather than an error, since SBS peers are not
// required to populate both for every row type.
func parseDateTime(date, clock string) time.Time {
	t, err := time.Parse("2006/01/02 15:04:05.000", date+" "+clock)
	if err != nil {
		return time.Time{}
	}
	return t
}

