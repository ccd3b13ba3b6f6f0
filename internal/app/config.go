package app

import "time"

// Default configuration constants
const (
	DefaultFrequency  = 1090000000 // 1090 MHz
	DefaultSampleRate = 2400000    // 2.4 MHz (same as dump1090)
	DefaultGain       = 40         // Manual gain

	DefaultAircraftTTL  = 60 * time.Second
	DefaultICAOCacheTTL = 60 * time.Second
	DefaultHousekeeping = 125 * time.Millisecond
	DefaultDataTimeout  = 2 * time.Second
	DefaultHTTPVersion  = "1.0.0"
)

// Config holds application configuration
type Config struct {
	// Sampler: exactly one of a local RTL-SDR device or a remote
	// RTL_TCP server is used as the I/Q source. RTLTCPAddr set
	// (non-empty) selects the remote client; otherwise DeviceIndex
	// selects a local dongle.
	Frequency   uint32
	SampleRate  uint32
	Gain        int
	DeviceIndex int
	RTLTCPAddr  string

	LogDir       string
	LogRotateUTC bool
	Verbose      bool
	ShowVersion  bool

	// Network manager listener addresses (spec.md §4.8). An empty
	// address disables the corresponding service.
	RawInAddr  string
	RawOutAddr string
	SBSInAddr  string
	SBSOutAddr string
	HTTPAddr   string

	// Home position for the registry's distance/est_distance fields
	// and the HTTP receiver.json response.
	HomeLat float64
	HomeLon float64
	HasHome bool

	// DenyCIDRs are networks (or bare IPs) rejected at accept time on
	// every listening network service.
	DenyCIDRs []string

	// MetadataDBPath, if non-empty, is opened as a read-only SQLite
	// static aircraft/airport lookup (internal/metadata).
	MetadataDBPath string

	AircraftTTL  time.Duration
	ICAOCacheTTL time.Duration
}
