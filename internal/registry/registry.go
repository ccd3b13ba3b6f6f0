// Package registry tracks one Aircraft per ICAO address, mutated by
// incoming decoded messages and periodically swept for staleness.
package registry

import (
	"math"
	"sync"
	"time"

	"go1090/internal/adsb"
	"go1090/internal/metadata"
)

// ShowState is the interactive display lifecycle of a tracked aircraft.
// Transitions only ever run FirstTime -> Normal -> LastTime -> None.
type ShowState uint8

const (
	ShowFirstTime ShowState = iota
	ShowNormal
	ShowLastTime
	ShowNone
)

const (
	rssiRingSize  = 4
	cprPairWindow = 10 * time.Minute
)

// Aircraft is a per-ICAO tracked entity, updated in place by OnMessage.
type Aircraft struct {
	Addr uint32

	FlightID    string
	HasFlightID bool
	Category    uint8

	Altitude    int
	AltUnit     adsb.AltitudeUnit
	HasAltitude bool

	Identity    int
	HasIdentity bool

	GroundSpeed float64
	Heading     float64
	HasHeading  bool

	VerticalRate    int
	HasVerticalRate bool

	ShowState ShowState

	SeenFirst   time.Time
	SeenLast    time.Time
	EstSeenLast time.Time

	Messages int

	rssiRing   [rssiRingSize]float64
	rssiNext   int
	rssiFilled int

	EvenCPR *adsb.CPRFrame
	OddCPR  *adsb.CPRFrame

	Position    *adsb.Position
	EstPosition *adsb.Position

	Distance    float64
	EstDistance float64
	HasDistance bool

	// Info is an immutable borrow of static metadata (registration,
	// type, operator) resolved once at creation time; the registry
	// never owns or mutates the pointed-to record.
	Info *metadata.AircraftInfo
}

// Helicopter reports whether the decoded emitter category is set A,
// subcategory 7 (rotorcraft).
func (a *Aircraft) Helicopter() bool {
	return a.Category == 0x0F
}

// pushRSSI records a signal level sample into the round-robin ring and
// returns the estimated power in dB, per spec.md §4.6: 10*log10(sum/8 +
// 1.125e-5) once the ring is full, half-scale (sum/(2*n)) while filling.
func (a *Aircraft) pushRSSI(level float64) float64 {
	a.rssiRing[a.rssiNext] = level
	a.rssiNext = (a.rssiNext + 1) % rssiRingSize
	if a.rssiFilled < rssiRingSize {
		a.rssiFilled++
	}

	var sum float64
	for i := 0; i < a.rssiFilled; i++ {
		sum += a.rssiRing[i]
	}
	return 10 * math.Log10(sum/float64(2*a.rssiFilled)+1.125e-5)
}

// Registry is a hash-map-backed table of tracked aircraft, one per ICAO
// address, guarded by a RWMutex for concurrent readers (HTTP snapshot,
// SBS broadcaster) alongside the single decoder writer.
//
// Grounded on the teacher's ADSBProcessor.aircraft and CPRDecoder's
// aircraftPositions maps (merged into one table here), and on
// other_examples' billglover-go-adsb-console Store type for the
// TTL-eviction/show-state shape.
type Registry struct {
	mu       sync.RWMutex
	aircraft map[uint32]*Aircraft

	ttl            time.Duration
	homeLat        float64
	homeLon        float64
	homeConfigured bool

	lookup metadata.Lookup
}

// New builds an empty Registry. homeLat/homeLon configure the distance
// and est_distance calculations; pass hasHome=false if no home position
// is configured (distances are left unset). Static aircraft metadata
// lookups are disabled until SetLookup is called.
func New(ttl time.Duration, homeLat, homeLon float64, hasHome bool) *Registry {
	return &Registry{
		aircraft:       make(map[uint32]*Aircraft),
		ttl:            ttl,
		homeLat:        homeLat,
		homeLon:        homeLon,
		homeConfigured: hasHome,
		lookup:         metadata.Noop{},
	}
}

// SetLookup installs the static aircraft metadata provider consulted
// when a new Aircraft is first created. Passing nil restores the noop
// lookup.
func (r *Registry) SetLookup(lookup metadata.Lookup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lookup == nil {
		lookup = metadata.Noop{}
	}
	r.lookup = lookup
}

// FindOrCreate returns the tracked Aircraft for addr, creating it (in
// ShowFirstTime state) if this is the first sighting.
func (r *Registry) FindOrCreate(addr uint32, now time.Time) *Aircraft {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.aircraft[addr]; ok {
		return a
	}
	a := &Aircraft{
		Addr:      addr,
		ShowState: ShowFirstTime,
		SeenFirst: now,
		SeenLast:  now,
	}
	if info, ok := r.lookup.AircraftByICAO(addr); ok {
		a.Info = info
	}
	r.aircraft[addr] = a
	return a
}

// Get returns the tracked aircraft for addr, if any.
func (r *Registry) Get(addr uint32) (*Aircraft, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aircraft[addr]
	return a, ok
}

// Len reports the number of tracked aircraft.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.aircraft)
}

// Snapshot returns a shallow copy of the tracked aircraft, safe for a
// caller to range over without holding the registry lock.
func (r *Registry) Snapshot() []*Aircraft {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Aircraft, 0, len(r.aircraft))
	for _, a := range r.aircraft {
		out = append(out, a)
	}
	return out
}

// OnMessage applies a decoded message to its owning aircraft, creating
// the entry if this is a new address. It updates seen_last, pushes the
// signal level into the RSSI ring, and conditionally updates
// altitude/identity/call-sign/position/velocity/heading per the DF and
// ME subtype fields the decoder already populated (spec.md §4.4/§4.6).
func (r *Registry) OnMessage(msg *adsb.Message, now time.Time) *Aircraft {
	addr := msg.ICAO()
	a := r.FindOrCreate(addr, now)

	r.mu.Lock()
	defer r.mu.Unlock()

	a.SeenLast = now
	a.EstSeenLast = now
	a.Messages++
	if a.ShowState == ShowFirstTime {
		a.ShowState = ShowNormal
	}
	a.pushRSSI(msg.SignalLevel)

	if msg.HasAltitude {
		a.Altitude = msg.Altitude
		a.AltUnit = msg.AltUnit
		a.HasAltitude = true
	}
	if msg.HasIdentity {
		a.Identity = msg.Identity
		a.HasIdentity = true
	}
	if msg.HasFlightID {
		a.FlightID = msg.FlightID
		a.HasFlightID = true
		a.Category = msg.Category
	}
	if msg.HasVelocity {
		a.GroundSpeed = msg.GroundSpeed
	}
	if msg.HasHeading {
		a.Heading = msg.Heading
		a.HasHeading = true
	}
	if msg.HasVerticalRate {
		a.VerticalRate = msg.VerticalRate
		a.HasVerticalRate = true
	}

	if msg.HasPosition {
		r.applyPosition(a, msg, now)
	}

	return a
}

// applyPosition stores the odd/even CPR half msg carries and, once both
// halves of a pair are present within the 10-minute window, resolves
// the globally-unambiguous position (spec.md §4.5).
func (r *Registry) applyPosition(a *Aircraft, msg *adsb.Message, now time.Time) {
	frame := &adsb.CPRFrame{LatCPR: msg.RawLatCPR, LonCPR: msg.RawLonCPR, Timestamp: now}
	if msg.OddEvenFlag == 0 {
		a.EvenCPR = frame
	} else {
		a.OddCPR = frame
	}

	if a.EvenCPR == nil || a.OddCPR == nil {
		return
	}
	if absDuration(a.EvenCPR.Timestamp.Sub(a.OddCPR.Timestamp)) > cprPairWindow {
		return
	}

	lat, lon, ok := adsb.DecodeGlobalAirborne(*a.EvenCPR, *a.OddCPR)
	if !ok {
		return
	}
	pos := &adsb.Position{Latitude: lat, Longitude: lon, Timestamp: now}
	a.Position = pos
	a.EstPosition = &adsb.Position{Latitude: lat, Longitude: lon, Timestamp: now}

	if r.homeConfigured {
		d := greatCircleDistance(r.homeLat, r.homeLon, lat, lon)
		a.Distance = d
		a.EstDistance = d
		a.HasDistance = true
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// EvictStale transitions aircraft into LastTime at ttl-1000ms of
// silence and removes them entirely once seen_last exceeds ttl, per
// spec.md §4.6.
func (r *Registry) EvictStale(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for addr, a := range r.aircraft {
		age := now.Sub(a.SeenLast)
		switch {
		case age > r.ttl:
			delete(r.aircraft, addr)
		case age >= r.ttl-time.Second && a.ShowState == ShowNormal:
			a.ShowState = ShowLastTime
		}
	}
}

// PropagateEstimates projects the estimated position of every aircraft
// with a recent valid speed and heading forward from its last fixed
// position, using elapsed time and heading converted to a Cartesian
// offset, per spec.md §4.5. est_distance is updated to the lesser of
// great-circle and Cartesian distance to the configured home position.
func (r *Registry) PropagateEstimates(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.aircraft {
		if a.Position == nil || !a.HasHeading || a.GroundSpeed <= 0 {
			continue
		}
		elapsed := now.Sub(a.Position.Timestamp).Seconds()
		if elapsed <= 0 {
			continue
		}

		// knots -> meters/second, heading measured clockwise from north.
		v := a.GroundSpeed * 0.514444
		theta := a.Heading * math.Pi / 180
		dx := v * elapsed * math.Sin(theta)
		dy := v * elapsed * math.Cos(theta)

		lat, lon := cartesianOffsetToLatLon(a.Position.Latitude, a.Position.Longitude, dx, dy)
		a.EstPosition = &adsb.Position{Latitude: lat, Longitude: lon, Timestamp: now}
		a.EstSeenLast = now

		if r.homeConfigured {
			gc := greatCircleDistance(r.homeLat, r.homeLon, lat, lon)
			cart := cartesianDistance(r.homeLat, r.homeLon, lat, lon)
			a.EstDistance = math.Min(gc, cart)
			a.HasDistance = true
		}
	}
}

const earthRadiusMeters = 6371000.0

func greatCircleDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)
	a := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// cartesianDistance approximates distance using an equirectangular
// projection, cheap relative to the great-circle formula.
func cartesianDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	x := (lon2 - lon1) * math.Pi / 180 * math.Cos((phi1+phi2)/2)
	y := phi2 - phi1
	return earthRadiusMeters * math.Hypot(x, y)
}

func cartesianOffsetToLatLon(lat, lon, dx, dy float64) (float64, float64) {
	phi := lat * math.Pi / 180
	dLat := dy / earthRadiusMeters
	dLon := dx / (earthRadiusMeters * math.Cos(phi))
	return lat + dLat*180/math.Pi, lon + dLon*180/math.Pi
}
