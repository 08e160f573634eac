package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/internal/hub"
	"github.com/DoyleJ11/pixlnary-backend/internal/lobby"
	"github.com/DoyleJ11/pixlnary-backend/internal/words"
	"github.com/DoyleJ11/pixlnary-backend/internal/ws"
)

func newRouter(t *testing.T) (http.Handler, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, lobby.Config{BoardSize: 4, Words: words.MustDefault()})
	return SetupRoutes(h, ws.Options{AllowedOrigins: []string{"http://localhost:5173"}}, zap.NewNop()), h
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Regexp(t, `^[A-Z0-9]+$`, code)
}

func TestHealthz(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRoomThenSnapshotAndStats(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rooms", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Code, codeLength)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/"+created.Code+"/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		Type    string `json:"type"`
		Payload struct {
			Size   int        `json:"size"`
			Pixels [][]string `json:"pixels"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "full-state-snapshot", snap.Type)
	assert.Equal(t, 4, snap.Payload.Size)
	assert.Len(t, snap.Payload.Pixels, 4)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/"+created.Code+"/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats roomStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, roomStats{Code: created.Code}, stats)
}

func TestSnapshot_UnknownRoom(t *testing.T) {
	router, _ := newRouter(t)

	for _, path := range []string{"/api/rooms/NOPE/snapshot", "/api/rooms/NOPE/stats"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"room not found"}`, rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
