package adsb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCPRNFunction(t *testing.T) {
	tests := []struct {
		name     string
		latitude float64
		oddFlag  int
	}{
		{"Equator, even frame", 0.0, 0},
		{"Equator, odd frame", 0.0, 1},
		{"Latitude 30, even frame", 30.0, 0},
		{"Latitude 30, odd frame", 30.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CPRNFunction(tt.latitude, tt.oddFlag)
			assert.Greater(t, result, 0)
			assert.LessOrEqual(t, result, 59)
		})
	}
}

func TestCPRDlonFunction(t *testing.T) {
	tests := []struct {
		name     string
		latitude float64
		oddFlag  int
	}{
		{"Equator, even frame", 0.0, 0},
		{"Equator, odd frame", 0.0, 1},
		{"Latitude 30, even frame", 30.0, 0},
		{"Latitude 30, odd frame", 30.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CPRDlonFunction(tt.latitude, tt.oddFlag)
			assert.Greater(t, result, 0.0)
			assert.LessOrEqual(t, result, 360.0)
		})
	}
}

func TestCPRNLTableMonotonic(t *testing.T) {
	prev := CPRNLTable(0)
	for lat := 1.0; lat < 87.0; lat += 1.0 {
		nl := CPRNLTable(lat)
		assert.LessOrEqual(t, nl, prev, "NL must not increase with latitude")
		prev = nl
	}
	assert.Equal(t, 1, CPRNLTable(89.9))
}

func TestDecodeGlobalAirborne(t *testing.T) {
	now := time.Now()
	even := CPRFrame{LatCPR: 93000, LonCPR: 51372, Timestamp: now}
	odd := CPRFrame{LatCPR: 74158, LonCPR: 50194, Timestamp: now.Add(time.Second)}

	lat, lon, ok := DecodeGlobalAirborne(even, odd)
	assert.True(t, ok)
	assert.True(t, lat >= -90 && lat <= 90)
	assert.True(t, lon >= -180 && lon <= 180)
}

func TestDecodeGlobalAirborneCrossedZone(t *testing.T) {
	now := time.Now()
	// rlat0 ~= 10.464 (NL 59) and rlat1 ~= 10.480 (NL 58) straddle the
	// 10.4705 degree NL boundary.
	even := CPRFrame{LatCPR: 97518, LonCPR: 0, Timestamp: now}
	odd := CPRFrame{LatCPR: 94050, LonCPR: 131071, Timestamp: now.Add(time.Second)}

	_, _, ok := DecodeGlobalAirborne(even, odd)
	assert.False(t, ok)
}

func TestDecodeLocalAirborne(t *testing.T) {
	frame := CPRFrame{LatCPR: 93000, LonCPR: 51372, Timestamp: time.Now()}
	lat, lon, ok := DecodeLocalAirborne(frame, 0, 52.0, 4.0)
	assert.True(t, ok)
	assert.True(t, lat >= -90 && lat <= 90)
	assert.True(t, lon >= -180 && lon <= 180)
}

func TestCPRModInt(t *testing.T) {
	assert.Equal(t, 1, cprModInt(-59, 60))
	assert.Equal(t, 0, cprModInt(60, 60))
	assert.Equal(t, 5, cprModInt(5, 60))
}

func TestCPRConstants(t *testing.T) {
	assert.Equal(t, 131072, CPR_LAT_MAX)
	assert.Equal(t, 131072, CPR_LON_MAX)
}
