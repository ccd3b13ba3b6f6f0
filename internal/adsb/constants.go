package adsb

// Message length constants (dump1090 naming).
const (
	MsgShortBytes = 7  // 56 bits
	MsgLongBytes  = 14 // 112 bits
	MsgShortBits  = MsgShortBytes * 8
	MsgLongBits   = MsgLongBytes * 8
)

// AltitudeUnit distinguishes the unit a decoded altitude is expressed in.
type AltitudeUnit uint8

const (
	AltitudeFeet AltitudeUnit = iota
	AltitudeMeters
)

// ADSBCharset is the 6-bit character set used to encode callsigns and
// flight identification in DF17/18 identification messages (ICAO Annex 10
// AIS alphabet, as broadcast in the ME field).
const ADSBCharset = "?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????"

// CPR decoding constants
const (
	CPR_LAT_BITS = 17
	CPR_LON_BITS = 17
	CPR_LAT_MAX  = 131072 // 2^17
	CPR_LON_MAX  = 131072 // 2^17
)

// Squawk code bit manipulation constants
const (
	SquawkA4A2A1Mask = 0x07 // Mask for A4 A2 A1 bits
	SquawkB4B2B1Mask = 0x07 // Mask for B4 B2 B1 bits
	SquawkC4C2C1Mask = 0x07 // Mask for C4 C2 C1 bits
	SquawkD4D2D1Mask = 0x07 // Mask for D4 D2 D1 bits

	SquawkA4A2A1Shift = 9 // Shift for A4 A2 A1 bits
	SquawkB4B2B1Shift = 6 // Shift for B4 B2 B1 bits
	SquawkC4C2C1Shift = 3 // Shift for C4 C2 C1 bits
	SquawkD4D2D1Shift = 0 // Shift for D4 D2 D1 bits

	SquawkAMultiplier = 1000 // Multiplier for A digit
	SquawkBMultiplier = 100  // Multiplier for B digit
	SquawkCMultiplier = 10   // Multiplier for C digit
	SquawkDMultiplier = 1    // Multiplier for D digit
)

// lengthByDF returns the message length in bits for a given Downlink
// Format: DF 16,17,19,20,21 are long (112 bits), everything else is
// short (56 bits).
func lengthByDF(df uint8) int {
	switch df {
	case 16, 17, 19, 20, 21:
		return MsgLongBits
	default:
		return MsgShortBits
	}
}
