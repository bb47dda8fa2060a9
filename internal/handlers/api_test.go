// internal/handlers/api_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/room"
)

func TestHealthzHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoomsHandler(t *testing.T) {
	reg := room.NewRegistry(testLogger())
	reg.ConnectTable("dungeon-1", room.NewConn(&memSink{}))
	reg.ConnectPlayer("dungeon-1", "alice", room.NewConn(&memSink{}))

	rec := httptest.NewRecorder()
	RoomsHandler(reg)(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Rooms []room.RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, room.RoomInfo{Name: "dungeon-1", Players: 1, TableOnline: true}, body.Rooms[0])
}
