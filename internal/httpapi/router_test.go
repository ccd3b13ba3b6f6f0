package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
	"go1090/internal/registry"
)

func TestHandleAircraftSnapshotServesJSON(t *testing.T) {
	reg := registry.New(time.Minute, 0, 0, false)
	msg := &adsb.Message{DF: 11}
	msg.SetICAO(0x123456)
	reg.OnMessage(msg, time.Now())

	s := NewServer(reg, "test", 0, 0, false)
	s.CountMessage()

	req := httptest.NewRequest(http.MethodGet, "/data/aircraft.json", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Messages)
	assert.Len(t, snap.Aircraft, 1)
}

func TestHandleReceiverInfoReportsHome(t *testing.T) {
	reg := registry.New(time.Minute, 0, 0, false)
	s := NewServer(reg, "1.2.3", 52.25, 3.92, true)

	req := httptest.NewRequest(http.MethodGet, "/data/receiver.json", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var info ReceiverInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, 52.25, info.Lat)
}

func TestHandleLegacyArrayServesBareArray(t *testing.T) {
	reg := registry.New(time.Minute, 0, 0, false)
	s := NewServer(reg, "test", 0, 0, false)

	req := httptest.NewRequest(http.MethodGet, "/data.json", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var arr []AircraftJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &arr))
	assert.Empty(t, arr)
}

func TestNonGetMethodRejected(t *testing.T) {
	reg := registry.New(time.Minute, 0, 0, false)
	s := NewServer(reg, "test", 0, 0, false)

	req := httptest.NewRequest(http.MethodPost, "/data.json", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRootRedirects(t *testing.T) {
	reg := registry.New(time.Minute, 0, 0, false)
	s := NewServer(reg, "test", 0, 0, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
}
