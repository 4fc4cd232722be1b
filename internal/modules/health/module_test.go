package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/health/service"
	stream "trade_engine/internal/modules/stream/service"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadyz(t *testing.T) {
	state := service.NewState()
	mux := NewMux(state, stream.NewServer())

	assert.Equal(t, http.StatusOK, get(t, mux, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/readyz").Code)

	state.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, mux, "/readyz").Code)
}

func TestHealthz(t *testing.T) {
	state := service.NewState()
	state.SetReady(true)
	state.SetSeeded(3)
	at := time.Unix(1_700_000_000, 0)
	state.TouchCycle(at)
	state.TouchCycle(at)

	rec := get(t, NewMux(state, stream.NewServer()), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Ready         bool  `json:"ready"`
		Seeded        int   `json:"seeded"`
		Cycles        int64 `json:"cycles"`
		LastCycleUnix int64 `json:"lastCycleUnix"`
		LastTickUnix  int64 `json:"lastTickUnix"`
		WSMembers     int   `json:"wsMembers"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, 3, body.Seeded)
	assert.Equal(t, int64(2), body.Cycles)
	assert.Equal(t, at.Unix(), body.LastCycleUnix)
	assert.Zero(t, body.LastTickUnix)
	assert.Zero(t, body.WSMembers)
}

func TestNewConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Service.Host = "127.0.0.1"
	cfg.Service.PublicPort = 5000
	assert.Equal(t, "127.0.0.1:5000", NewConfig(cfg).Addr)
}
