package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socktun/socktun/orchestrator"
)

func TestConnectDelegatesToOrchestrator(t *testing.T) {
	svc := &stubService{connectResult: orchestrator.Result{Success: true, Message: "connected"}}
	router := testRouter(Config{Port: 18080}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/connect",
		strings.NewReader(`{"host":"192.168.1.100","port":9852,"username":"u","password":"p"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastConfig)
	assert.Equal(t, "192.168.1.100", svc.lastConfig.ProxyHost)
	assert.Equal(t, 9852, svc.lastConfig.ProxyPort)
	assert.Equal(t, "u", svc.lastConfig.Username)
	assert.Equal(t, "p", svc.lastConfig.Password)

	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "connected", resp.Message)
}

func TestConnectFailureMapsTo400(t *testing.T) {
	svc := &stubService{connectResult: orchestrator.Result{Success: false, Message: "tunnel failed to connect"}}
	router := testRouter(Config{Port: 18080}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(`{"host":"10.0.0.1","port":1080}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestConnectValidation(t *testing.T) {
	svc := &stubService{}
	router := testRouter(Config{Port: 18080}, svc)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"host":`},
		{"wrong type", `{"host":"a","port":"not a number"}`},
		{"missing host", `{"port":1080}`},
		{"empty host", `{"host":"","port":1080}`},
		{"port zero", `{"host":"a","port":0}`},
		{"port too large", `{"host":"a","port":70000}`},
		{"empty body", ``},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(tc.body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)
		var resp GenericResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), tc.name)
		assert.False(t, resp.Success, tc.name)
		assert.NotEmpty(t, resp.Message, tc.name)
	}
	assert.Nil(t, svc.lastConfig, "invalid bodies must never reach the orchestrator")
}

func TestDisconnectNeedsNoBody(t *testing.T) {
	svc := &stubService{disconnectResult: orchestrator.Result{Success: true, Message: "already disconnected"}}
	router := testRouter(Config{Port: 18080}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/disconnect", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already disconnected")
}

func TestStatusProjection(t *testing.T) {
	svc := &stubService{status: orchestrator.Status{Connected: true, State: "connected", Host: "192.168.1.100", Port: 9852}}
	router := testRouter(Config{Port: 18080}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"connected":true,"state":"connected","host":"192.168.1.100","port":9852}`,
		w.Body.String())
}

func TestStatusOmitsTargetWhenDisconnected(t *testing.T) {
	svc := &stubService{status: orchestrator.Status{Connected: false, State: "disconnected"}}
	router := testRouter(Config{Port: 18080}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	router.ServeHTTP(w, req)

	assert.JSONEq(t, `{"connected":false,"state":"disconnected"}`, w.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	router := testRouter(Config{Port: 18080}, &stubService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uploadBytes":0,"downloadBytes":0,"activeConnections":0}`, w.Body.String())
}

func TestUnknownRouteIs404(t *testing.T) {
	router := testRouter(Config{Port: 18080}, &stubService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
