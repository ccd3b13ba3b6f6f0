// Package httpapi serves the HTTP JSON surface of spec.md §4.9: the
// legacy bare-array aircraft snapshot, the extended {now, messages,
// aircraft} shape, and the receiver metadata endpoint.
package httpapi

import (
	"time"

	"go1090/internal/registry"
)

// AircraftJSON is one aircraft entry in a JSON snapshot. Field tags
// and omitempty usage are grounded on
// other_examples/650388cf_billglover-go-adsb-console__aircraft.go's
// Aircraft/Scan shape, trimmed to the fields registry.Aircraft
// actually tracks.
type AircraftJSON struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight,omitempty"`
	AltBaro  int     `json:"alt_baro,omitempty"`
	Gs       float64 `json:"gs,omitempty"`
	Track    float64 `json:"track,omitempty"`
	BaroRate int     `json:"baro_rate,omitempty"`
	Squawk   string  `json:"squawk,omitempty"`
	Category string  `json:"category,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	SeenPos  float64 `json:"seen_pos,omitempty"`
	Messages int     `json:"messages,omitempty"`
	Seen     float64 `json:"seen,omitempty"`
	Rssi     float64 `json:"rssi,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// Snapshot is the extended {now, messages, aircraft} response shape
// for GET /data/aircraft.json.
type Snapshot struct {
	Now      float64        `json:"now"`
	Messages int            `json:"messages"`
	Aircraft []AircraftJSON `json:"aircraft"`
}

// ReceiverInfo is the GET /data/receiver.json response shape.
type ReceiverInfo struct {
	Version   string  `json:"version"`
	RefreshMS int     `json:"refresh"`
	History   int     `json:"history"`
	Lat       float64 `json:"lat,omitempty"`
	Lon       float64 `json:"lon,omitempty"`
	HasHome   bool    `json:"-"`
}

func toAircraftJSON(a *registry.Aircraft, now time.Time) AircraftJSON {
	j := AircraftJSON{
		Hex:      hexAddr(a.Addr),
		Messages: a.Messages,
		Seen:     now.Sub(a.SeenLast).Seconds(),
	}
	if a.HasFlightID {
		j.Flight = a.FlightID
	}
	if a.HasAltitude {
		j.AltBaro = a.Altitude
	}
	if a.GroundSpeed > 0 {
		j.Gs = a.GroundSpeed
	}
	if a.HasHeading {
		j.Track = a.Heading
	}
	if a.HasVerticalRate {
		j.BaroRate = a.VerticalRate
	}
	if a.HasIdentity {
		j.Squawk = squawkString(a.Identity)
	}
	if a.Category != 0 {
		j.Category = categoryString(a.Category)
	}
	pos := a.EstPosition
	if pos == nil {
		pos = a.Position
	}
	if pos != nil {
		j.Lat = pos.Latitude
		j.Lon = pos.Longitude
		j.SeenPos = now.Sub(pos.Timestamp).Seconds()
	}
	if a.HasDistance {
		j.Distance = a.EstDistance
	}
	return j
}

// BuildSnapshot renders the extended JSON shape from the registry's
// current aircraft table.
func BuildSnapshot(reg *registry.Registry, totalMessages int, now time.Time) Snapshot {
	aircraft := reg.Snapshot()
	out := make([]AircraftJSON, 0, len(aircraft))
	for _, a := range aircraft {
		out = append(out, toAircraftJSON(a, now))
	}
	return Snapshot{
		Now:      float64(now.UnixNano()) / 1e9,
		Messages: totalMessages,
		Aircraft: out,
	}
}

// BuildLegacyArray renders the legacy bare-array shape GET /data.json
// served for older dump1090 clients.
func BuildLegacyArray(reg *registry.Registry, now time.Time) []AircraftJSON {
	aircraft := reg.Snapshot()
	out := make([]AircraftJSON, 0, len(aircraft))
	for _, a := range aircraft {
		out = append(out, toAircraftJSON(a, now))
	}
	return out
}

func hexAddr(addr uint32) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		b[i] = hexDigits[addr&0xF]
		addr >>= 4
	}
	return string(b)
}

func squawkString(identity int) string {
	if identity < 0 {
		identity = 0
	}
	digits := [4]byte{}
	for i := 3; i >= 0; i-- {
		digits[i] = byte('0' + identity%10)
		identity /= 10
	}
	return string(digits[:])
}

// categoryString renders an emitter category byte as dump1090's
// "A0".."D7" label.
func categoryString(cat uint8) string {
	set := cat >> 3
	sub := cat & 0x07
	if set == 0 {
		return ""
	}
	letter := byte('A' + (set - 1))
	return string([]byte{letter, byte('0' + sub)})
}
