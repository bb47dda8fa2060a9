// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/room"
)

// HealthzHandler reports liveness.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// RoomsHandler lists the active rooms with player counts and table presence.
func RoomsHandler(reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Rooms []room.RoomInfo `json:"rooms"`
		}{Rooms: reg.Rooms()})
	}
}
