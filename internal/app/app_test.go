package app

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
)

func testConfig(t *testing.T) Config {
	return Config{
		Frequency:    DefaultFrequency,
		SampleRate:   DefaultSampleRate,
		Gain:         DefaultGain,
		DeviceIndex:  0,
		LogDir:       t.TempDir(),
		LogRotateUTC: true,
		AircraftTTL:  DefaultAircraftTTL,
		ICAOCacheTTL: DefaultICAOCacheTTL,
	}
}

// TestConstants tests the default configuration constants
func TestConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant interface{}
		expected interface{}
	}{
		{name: "DefaultFrequency", constant: uint32(DefaultFrequency), expected: uint32(1090000000)},
		{name: "DefaultSampleRate", constant: uint32(DefaultSampleRate), expected: uint32(2400000)},
		{name: "DefaultGain", constant: DefaultGain, expected: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.constant)
		})
	}
}

// TestShowVersion tests the version display functionality
func TestShowVersion(t *testing.T) {
	assert.NotPanics(t, func() {
		ShowVersion()
	})
}

// TestNewApplication tests the application constructor
func TestNewApplication(t *testing.T) {
	app := NewApplication(testConfig(t))

	assert.NotNil(t, app)
	assert.NotNil(t, app.logger)
	assert.NotNil(t, app.ctx)
}

// TestApplication_LoggerConfiguration tests logger level selection.
func TestApplication_LoggerConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		level   string
	}{
		{name: "Verbose logging", verbose: true, level: "debug"},
		{name: "Normal logging", verbose: false, level: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Verbose = tt.verbose

			app := NewApplication(cfg)
			assert.Equal(t, tt.level, app.logger.GetLevel().String())
		})
	}
}

// TestWireCoreBuildsRegistryAndReactor exercises the part of
// initializeComponents that doesn't touch a real RTL-SDR device or the
// network: registry, ICAO cache, reactor, and deny-list wiring.
func TestWireCoreBuildsRegistryAndReactor(t *testing.T) {
	cfg := testConfig(t)
	cfg.HasHome = true
	cfg.HomeLat = 52.25
	cfg.HomeLon = 3.92
	cfg.DenyCIDRs = []string{"10.0.0.0/8"}

	app := NewApplication(cfg)
	require.NoError(t, app.wireCore())

	assert.NotNil(t, app.registry)
	assert.NotNil(t, app.reactor)
	assert.True(t, app.reactor.DenyList.Denied(net.ParseIP("10.1.2.3")))
}

// TestLookupPositionPrefersConfirmedFix exercises lookupPosition's
// Position-over-EstPosition preference.
func TestLookupPositionPrefersConfirmedFix(t *testing.T) {
	app := NewApplication(testConfig(t))
	require.NoError(t, app.wireCore())

	a := app.registry.FindOrCreate(0x4B1621, time.Now())
	a.Position = &adsb.Position{Latitude: 52.3, Longitude: 4.8, Timestamp: time.Now()}
	a.EstPosition = &adsb.Position{Latitude: 0, Longitude: 0, Timestamp: time.Now()}

	lat, lon, ok := app.lookupPosition(0x4B1621)
	require.True(t, ok)
	assert.InDelta(t, 52.3, lat, 0.0001)
	assert.InDelta(t, 4.8, lon, 0.0001)
}

func TestLookupPositionMissReturnsFalse(t *testing.T) {
	app := NewApplication(testConfig(t))
	require.NoError(t, app.wireCore())

	_, _, ok := app.lookupPosition(0xFFFFFF)
	assert.False(t, ok)
}

// Cleanup test logs
func TestMain(m *testing.M) {
	code := m.Run()
	os.RemoveAll("./test_logs")
	os.Exit(code)
}
