package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/square-key-labs/voicebridge/src/config"
)

func testServer() *Server {
	return New(&config.Config{Host: "127.0.0.1", Port: 5000}, nil)
}

func TestHealthz(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTwiMLPointsStreamAtRequestHost(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/twiml", nil)
	req.Host = "relay.example.com"
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<Stream url="wss://relay.example.com/twilio" />`)
	assert.Contains(t, rec.Body.String(), "<Connect>")
}

func TestTwiMLRejectsOtherMethods(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodDelete, "/twiml", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
