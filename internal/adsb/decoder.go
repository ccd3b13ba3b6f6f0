package adsb

import (
	"math"
	"strings"
	"time"
)

// DecoderOptions gates the optional, more expensive correction paths.
type DecoderOptions struct {
	TwoBitCorrection bool
	ICAOKnown        func(addr uint32) bool
}

// Decode turns a raw Mode S frame into a Message, running CRC validation
// and error correction before extracting DF-specific fields. bytes must
// hold at least bits/8 bytes; extra trailing bytes are ignored.
func Decode(bytes []byte, df uint8, opts DecoderOptions, now time.Time) *Message {
	bits := lengthByDF(df)
	n := bits / 8
	if len(bytes) < n {
		return nil
	}

	buf := make([]byte, n)
	copy(buf, bytes[:n])

	m := &Message{
		DF:        df,
		MsgBits:   bits,
		Bytes:     buf,
		Timestamp: now,
	}

	m.CRCReported = CRCReported(buf, bits)
	m.CRCComputed = CRCCompute(buf, bits)
	m.CRCOK = m.CRCReported == m.CRCComputed

	if !m.CRCOK {
		correctSingle := df == 11 || df == 17 || df == 18
		if correctSingle {
			if fix, ok := FixSingleBit(buf, bits); ok {
				m.ErrorFix = fix
				m.CRCOK = true
				m.CRCReported = CRCReported(buf, bits)
				m.CRCComputed = CRCCompute(buf, bits)
			}
		}
		if !m.CRCOK && opts.TwoBitCorrection && (df == 17 || df == 18) {
			if fix, ok := FixTwoBit(buf, bits); ok {
				m.ErrorFix = fix
				m.CRCOK = true
				m.CRCReported = CRCReported(buf, bits)
				m.CRCComputed = CRCCompute(buf, bits)
			}
		}
	}

	switch df {
	case 0, 4, 5, 16, 20, 21, 24:
		if !m.CRCOK && opts.ICAOKnown != nil {
			addr := m.CRCReported ^ m.CRCComputed
			if opts.ICAOKnown(addr) {
				m.SetICAO(addr)
				m.CRCOK = true
			}
		} else if m.CRCOK {
			m.SetICAO(m.CRCReported)
		}
	default:
		if len(buf) >= 4 {
			m.AA[0], m.AA[1], m.AA[2] = buf[1], buf[2], buf[3]
		}
	}

	decodeFields(m, buf, df)

	return m
}

// decodeFields fills in DF-specific fields once CRC handling is done.
func decodeFields(m *Message, data []byte, df uint8) {
	m.CA = data[0] & 0x07

	switch df {
	case 0, 16:
		if len(data) >= 4 {
			decodeAltitudeSurveillance(m, data)
		}
	case 4, 20:
		m.FlightStatus = (data[0] >> 3) & 0x07
		m.DR = (data[1] >> 3) & 0x1F
		m.UM = ((data[1] & 0x07) << 3) | ((data[2] >> 5) & 0x07)
		decodeAltitudeSurveillance(m, data)
	case 5, 21:
		m.FlightStatus = (data[0] >> 3) & 0x07
		m.DR = (data[1] >> 3) & 0x1F
		m.UM = ((data[1] & 0x07) << 3) | ((data[2] >> 5) & 0x07)
		decodeSquawk(m, data)
	case 11:
		// no ME payload beyond CA/AA
	case 17:
		decodeExtendedSquitter(m, data, 0)
	case 18:
		// lengthByDF gives DF18 56 bits, so data holds 7 bytes here and
		// decodeExtendedSquitter returns without decoding an ME field.
		decodeExtendedSquitter(m, data, m.CA)
	case 24:
		// comm-D: ICAO only, no further decode per spec Non-goals.
	}
}

func decodeAltitudeSurveillance(m *Message, data []byte) {
	if len(data) < 4 {
		return
	}
	altCode := (uint16(data[2]&0x1F) << 8) | uint16(data[3])
	if altCode == 0 {
		return
	}
	alt, unit := decodeAC13(altCode)
	m.HasAltitude = true
	m.Altitude = alt
	m.AltUnit = unit
}

// decodeAC13 decodes the 13-bit AC altitude field used in surveillance
// replies (DF 0/4/16/20): strip the M-bit and Q-bit out of the 13-bit
// word to rebuild an 11-bit N, then altitude = 25*N - 1000, clamped to
// a minimum of 0. M=1 reports the altitude in meters (stub: the value
// is left uninterpreted, flagged via AltUnit).
func decodeAC13(code uint16) (int, AltitudeUnit) {
	n := 0
	for bitPos := 12; bitPos >= 0; bitPos-- {
		i := 13 - bitPos // 1-indexed bit number from the MSB
		if i == 7 || i == 9 {
			continue // M-bit, Q-bit
		}
		n = (n << 1) | int((code>>uint(bitPos))&1)
	}

	altitude := n*25 - 1000
	if altitude < 0 {
		altitude = 0
	}

	unit := AltitudeFeet
	if code&0x0040 != 0 {
		unit = AltitudeMeters
	}
	return altitude, unit
}

// decodeAC12 decodes the 12-bit AC altitude field used in DF17/18
// airborne position messages. Q-bit only, per spec.md §3: a clear Q-bit
// means the field isn't a 25ft-step encoding this decoder understands.
func decodeAC12(altCode uint16) (int, bool) {
	if altCode == 0 || altCode&0x10 == 0 {
		return 0, false
	}
	n := ((altCode & 0x0FE0) >> 1) | (altCode & 0x000F)
	return int(n)*25 - 1000, true
}

func decodeSquawk(m *Message, data []byte) {
	if len(data) < 4 {
		return
	}
	identity := (uint16(data[2]&0x1F) << 8) | uint16(data[3])
	squawk := 0
	squawk += int((identity>>SquawkA4A2A1Shift)&SquawkA4A2A1Mask) * SquawkAMultiplier
	squawk += int((identity>>SquawkB4B2B1Shift)&SquawkB4B2B1Mask) * SquawkBMultiplier
	squawk += int((identity>>SquawkC4C2C1Shift)&SquawkC4C2C1Mask) * SquawkCMultiplier
	squawk += int((identity>>SquawkD4D2D1Shift)&SquawkD4D2D1Mask) * SquawkDMultiplier
	m.HasIdentity = true
	m.Identity = squawk
}

// decodeExtendedSquitter decodes the ME field of a DF17/18 message.
// It decodes only when data holds a full 112-bit frame (11 bytes or more).
// ca18 carries the DF18 control field value and is not used.
func decodeExtendedSquitter(m *Message, data []byte, ca18 uint8) {
	if len(data) < 11 {
		return
	}
	me := data[4:11]
	typeCode := (me[0] >> 3) & 0x1F
	m.METype = typeCode
	m.MESubtype = me[0] & 0x07

	switch {
	case typeCode >= 1 && typeCode <= 4:
		decodeIdentification(m, me, typeCode)
	case typeCode >= 5 && typeCode <= 8:
		// Surface position: not implemented, left for a future extension.
	case typeCode >= 9 && typeCode <= 18, typeCode >= 20 && typeCode <= 22:
		decodeAirbornePosition(m, me, typeCode)
	case typeCode == 19:
		decodeVelocity(m, me)
	}
}

func decodeIdentification(m *Message, me []byte, typeCode uint8) {
	categorySet := [...]int{0, 0, 4, 2, 1}
	if int(typeCode) < len(categorySet) {
		m.Category = uint8(categorySet[typeCode])<<3 | (me[0] & 0x07)
	}

	var callsign [9]byte
	callsign[0] = ADSBCharset[getBits(me, 9, 14)]
	callsign[1] = ADSBCharset[getBits(me, 15, 20)]
	callsign[2] = ADSBCharset[getBits(me, 21, 26)]
	callsign[3] = ADSBCharset[getBits(me, 27, 32)]
	callsign[4] = ADSBCharset[getBits(me, 33, 38)]
	callsign[5] = ADSBCharset[getBits(me, 39, 44)]
	callsign[6] = ADSBCharset[getBits(me, 45, 50)]
	callsign[7] = ADSBCharset[getBits(me, 51, 56)]
	callsign[8] = 0

	valid := true
	for i := 0; i < 8; i++ {
		c := callsign[i]
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ') {
			valid = false
			break
		}
	}
	if !valid {
		return
	}
	m.FlightID = strings.TrimSpace(string(callsign[:8]))
	m.HasFlightID = true
}

func decodeAirbornePosition(m *Message, me []byte, typeCode uint8) {
	if len(me) < 7 {
		return
	}
	altCode := (uint16(me[1]) << 4) | (uint16(me[2]) >> 4)
	if alt, ok := decodeAC12(altCode); ok {
		m.HasAltitude = true
		m.Altitude = alt
		m.AltUnit = AltitudeFeet
	}

	m.UTCFlag = (me[2]>>3)&0x01 != 0
	m.OddEvenFlag = (me[2] >> 2) & 0x01

	m.RawLatCPR = ((uint32(me[2]&0x03) << 15) | (uint32(me[3]) << 7) | (uint32(me[4]) >> 1)) & 0x1FFFF
	m.RawLonCPR = ((uint32(me[4]&0x01) << 16) | (uint32(me[5]) << 8) | uint32(me[6])) & 0x1FFFF
	m.HasPosition = true

	if typeCode >= 20 {
		m.AltUnit = AltitudeMeters
	}
}

func decodeVelocity(m *Message, me []byte) {
	if len(me) < 7 {
		return
	}
	subtype := me[0] & 0x07
	m.MESubtype = subtype
	if subtype < 1 || subtype > 4 {
		return
	}

	switch subtype {
	case 1, 2:
		ewRaw := getBitsUint16(me, 15, 24)
		nsRaw := getBitsUint16(me, 26, 35)
		if ewRaw == 0 || nsRaw == 0 {
			break
		}
		mult := 1 << (subtype - 1)
		ewVel := int(ewRaw-1) * mult
		if getBits(me, 14, 14) != 0 {
			ewVel = -ewVel
		}
		nsVel := int(nsRaw-1) * mult
		if getBits(me, 25, 25) != 0 {
			nsVel = -nsVel
		}

		m.EWVelocity = ewVel
		m.NSVelocity = nsVel
		m.HasVelocity = true

		gs := math.Hypot(float64(nsVel), float64(ewVel))
		m.GroundSpeed = gs
		if gs > 0 {
			track := math.Atan2(float64(ewVel), float64(nsVel)) * 180.0 / math.Pi
			if track < 0 {
				track += 360
			}
			m.Heading = track
			m.HasHeading = true
		}
	case 3, 4:
		if getBits(me, 14, 14) != 0 {
			m.Heading = float64(getBits(me, 15, 21)) * 360.0 / 128.0
			m.HasHeading = true
		}
		airspeedRaw := getBitsUint16(me, 26, 35)
		if airspeedRaw != 0 {
			mult := 1 << (subtype - 3)
			m.GroundSpeed = float64(int(airspeedRaw-1) * mult)
			m.HasVelocity = true
		}
	}

	vrRaw := getBitsUint16(me, 38, 46)
	if vrRaw != 0 {
		vr := int(vrRaw-1) * 64
		if getBits(me, 37, 37) != 0 {
			vr = -vr
		}
		m.VerticalRate = vr
		m.HasVerticalRate = true
		if getBits(me, 36, 36) != 0 {
			m.VerticalSource = 1
		}
	}
}

// getBits extracts up to 8 bits from data using 1-based bit indexing
// (bit 1 is the MSB of data[0]), matching the convention Mode S field
// tables use.
func getBits(data []byte, firstBit, lastBit int) uint8 {
	if firstBit < 1 || lastBit < firstBit || len(data) == 0 {
		return 0
	}
	fbi := firstBit - 1
	lbi := lastBit - 1
	nbi := lastBit - firstBit + 1
	if nbi > 8 {
		return 0
	}

	fby := fbi / 8
	lby := lbi / 8
	if lby >= len(data) {
		return 0
	}

	shift := 7 - (lbi % 8)
	topMask := uint8(0xFF >> (fbi % 8))

	switch {
	case fby == lby:
		return (data[fby] & topMask) >> shift
	case lby == fby+1:
		return ((data[fby] & topMask) << (8 - shift)) | (data[lby] >> shift)
	case lby == fby+2:
		return ((data[fby] & topMask) << (16 - shift)) | (data[fby+1] << (8 - shift)) | (data[lby] >> shift)
	}

	var result uint32
	for i := fby; i <= lby && i < len(data); i++ {
		if i == fby {
			result = uint32(data[i] & topMask)
		} else {
			result = (result << 8) | uint32(data[i])
		}
	}
	if nbi <= 32 {
		return uint8((result >> shift) & ((1 << nbi) - 1))
	}
	return uint8(result >> shift)
}

// getBitsUint16 is getBits widened to 16 bits, needed for velocity fields.
func getBitsUint16(data []byte, firstBit, lastBit int) uint16 {
	if firstBit < 1 || lastBit < firstBit || len(data) == 0 {
		return 0
	}
	fbi := firstBit - 1
	lbi := lastBit - 1
	nbi := lastBit - firstBit + 1
	if nbi > 16 {
		return 0
	}

	fby := fbi / 8
	lby := lbi / 8
	if lby >= len(data) {
		return 0
	}

	shift := 7 - (lbi % 8)
	topMask := uint8(0xFF >> (fbi % 8))

	var result uint32
	for i := fby; i <= lby && i < len(data); i++ {
		if i == fby {
			result = uint32(data[i] & topMask)
		} else {
			result = (result << 8) | uint32(data[i])
		}
	}
	return uint16((result >> shift) & ((1 << nbi) - 1))
}
