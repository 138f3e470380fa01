package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appswitch-io/appswitch/internal/config"
	"github.com/appswitch-io/appswitch/pkg/types"
)

func testServer() *Server {
	cfg := config.Default()
	cfg.WorkerName = "menu_router"
	cfg.ReceiveInboundConnectors = []string{"transport"}
	cfg.ReceiveOutboundConnectors = []string{"app1"}
	cfg.Entries = []types.MenuEntry{{Label: "Flappy Bird", Endpoint: "flappy-bird"}}
	return New(config.NewProvider(cfg))
}

func TestHealth(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatus(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "menu_router", body["worker_name"])
	assert.Equal(t, float64(1), body["menu_entries"])
}
