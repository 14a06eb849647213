package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/dispatch-api/models"
)

type stubHandle struct{ id string }

func (s stubHandle) ID() string                   { return s.id }
func (stubHandle) Join(string)                    {}
func (stubHandle) Leave(string)                   {}
func (stubHandle) Emit(string, interface{}) error { return nil }

func newRequest(method, target, body string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorMessageResponse {
	t.Helper()
	var resp models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

type broadcast struct {
	room    string
	event   string
	payload interface{}
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []broadcast
}

func (t *recordingTransport) BroadcastToRoom(room, event string, payload interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, broadcast{room: room, event: event, payload: payload})
}

func (t *recordingTransport) events() []broadcast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]broadcast(nil), t.sent...)
}
