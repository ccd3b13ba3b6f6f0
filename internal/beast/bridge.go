package beast

import (
	"go1090/internal/adsb"
)

// ADSBFrame reports whether msg carries a Mode S frame and, if so,
// returns its raw bytes and downlink format ready for adsb.Decode.
// Mode A/C and status messages carry no Mode S frame.
func (msg *Message) ADSBFrame() (data []byte, df uint8, ok bool) {
	if msg.MessageType != ModeS && msg.MessageType != ModeSLong {
		return nil, 0, false
	}
	if len(msg.Data) == 0 {
		return nil, 0, false
	}
	return msg.Data, (msg.Data[0] >> 3) & 0x1F, true
}

// SignalLevel converts the Beast signal byte (0..255) to the
// unit-interval float adsb.Message.SignalLevel expects.
func (msg *Message) SignalLevel() float64 {
	return float64(msg.Signal) / 255.0
}

// Decode decodes the Mode S frame carried by msg, if any, into an
// adsb.Message with SignalLevel and Timestamp populated from the Beast
// envelope. Returns nil for Mode A/C and status messages.
func (msg *Message) Decode(opts adsb.DecoderOptions) *adsb.Message {
	data, df, ok := msg.ADSBFrame()
	if !ok {
		return nil
	}
	m := adsb.Decode(data, df, opts, msg.Timestamp)
	if m != nil {
		m.SignalLevel = msg.SignalLevel()
	}
	return m
}
