// internal/room/registry.go
package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/game"
)

// writeTimeout bounds each best-effort send to a single connection.
const writeTimeout = 3 * time.Second

// Sink is the narrow send surface the registry needs from a connection, so
// the registry and game logic can be exercised without sockets.
type Sink interface {
	Send(ctx context.Context, data []byte) error
}

// Role tags a connection as the room's shared display or a controller.
type Role string

const (
	RoleTable  Role = "table"
	RolePlayer Role = "player"
)

// Conn is one tracked connection in a room.
type Conn struct {
	ID       uuid.UUID
	Room     string
	Role     Role
	PlayerID string // set for RolePlayer
	sink     Sink
}

// NewConn wraps a sink into a trackable connection.
func NewConn(sink Sink) *Conn {
	return &Conn{ID: uuid.New(), sink: sink}
}

// Room holds one table connection, the connected player controllers keyed by
// player id, and the room's game state. Created lazily, deleted when the
// table and all players are gone.
type Room struct {
	Name    string
	Table   *Conn
	Players []*Conn // join order; duplicate player ids replace in place
	Game    *game.DungeonGame
}

// Departure describes what Disconnect removed, for the caller to announce.
type Departure struct {
	Room       string
	WasTable   bool
	PlayerLeft bool
	PlayerID   string
	PlayerList []string
}

// Registry owns the mapping from room name to room record. All structural
// mutation happens under mu; sends never hold it.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	logger *logrus.Logger
}

// NewRegistry builds an empty room registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: logger,
	}
}

// ensureRoom creates the room record and its game lazily, wiring the game's
// broadcast closures back through the registry. Assumes mu is held.
func (r *Registry) ensureRoom(name string) *Room {
	rm, ok := r.rooms[name]
	if ok {
		return rm
	}
	g := game.NewDungeonGame(name)
	g.BroadcastFn = func(ev any) { r.Broadcast(name, ev) }
	g.BroadcastToPlayerFn = func(playerID string, ev any) { r.SendToPlayer(name, playerID, ev) }
	rm = &Room{Name: name, Game: g}
	r.rooms[name] = rm
	r.logger.Infof("room %q created", name)
	return rm
}

// ConnectTable registers (or replaces) the room's table connection and
// returns the room's game.
func (r *Registry) ConnectTable(name string, c *Conn) *game.DungeonGame {
	r.mu.Lock()
	rm := r.ensureRoom(name)
	c.Room = name
	c.Role = RoleTable
	rm.Table = c
	g := rm.Game
	r.mu.Unlock()
	return g
}

// ConnectPlayer registers a player connection, replacing any prior connection
// with the same player id (reconnect after sleep, duplicate tab). Returns the
// room's game.
func (r *Registry) ConnectPlayer(name, playerID string, c *Conn) *game.DungeonGame {
	r.mu.Lock()
	rm := r.ensureRoom(name)
	c.Room = name
	c.Role = RolePlayer
	c.PlayerID = playerID
	kept := rm.Players[:0]
	for _, p := range rm.Players {
		if p.PlayerID != playerID {
			kept = append(kept, p)
		}
	}
	rm.Players = append(kept, c)
	g := rm.Game
	r.mu.Unlock()
	return g
}

// Lookup returns a room's game without creating the room. Operations like
// start_battle on an unregistered room are no-ops.
func (r *Registry) Lookup(name string) (*game.DungeonGame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		return nil, false
	}
	return rm.Game, true
}

// PlayerIDs lists the connected player ids for a room in join order.
func (r *Registry) PlayerIDs(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rm.Players))
	for _, p := range rm.Players {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// HasTable reports whether the room currently has a table connection.
func (r *Registry) HasTable(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	return ok && rm.Table != nil
}

// Rooms reports the current room names with their player counts and table
// presence, for the ops listing endpoint.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]RoomInfo, 0, len(r.rooms))
	for name, rm := range r.rooms {
		infos = append(infos, RoomInfo{
			Name:        name,
			Players:     len(rm.Players),
			TableOnline: rm.Table != nil,
		})
	}
	return infos
}

// RoomInfo is a point-in-time summary of one room.
type RoomInfo struct {
	Name        string `json:"name"`
	Players     int    `json:"players"`
	TableOnline bool   `json:"tableOnline"`
}

// Broadcast fans a payload out to the table and every player connection in
// the room. Sends are fire-and-forget; one failed recipient never aborts
// delivery to the rest.
func (r *Registry) Broadcast(name string, payload any) {
	r.mu.Lock()
	rm, ok := r.rooms[name]
	if !ok {
		r.mu.Unlock()
		return
	}
	targets := make([]*Conn, 0, len(rm.Players)+1)
	if rm.Table != nil {
		targets = append(targets, rm.Table)
	}
	targets = append(targets, rm.Players...)
	r.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Errorf("room %q: failed to marshal broadcast payload: %v", name, err)
		return
	}

	go func() {
		for _, c := range targets {
			r.send(c, data)
		}
	}()
}

// SendToPlayer delivers a payload to a single player's connection, if
// present.
func (r *Registry) SendToPlayer(name, playerID string, payload any) {
	r.mu.Lock()
	var target *Conn
	if rm, ok := r.rooms[name]; ok {
		for _, p := range rm.Players {
			if p.PlayerID == playerID {
				target = p
				break
			}
		}
	}
	r.mu.Unlock()
	if target == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Errorf("room %q: failed to marshal payload for player %s: %v", name, playerID, err)
		return
	}
	go r.send(target, data)
}

// SendTo delivers a payload to one specific connection (replies to the
// sender, e.g. deck validation results).
func (r *Registry) SendTo(c *Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Errorf("failed to marshal payload for conn %s: %v", c.ID, err)
		return
	}
	go r.send(c, data)
}

func (r *Registry) send(c *Conn, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.sink.Send(ctx, data); err != nil {
		r.logger.Warnf("room %q: send to %s failed: %v", c.Room, c.ID, err)
	}
}

// Disconnect removes a connection from its room, marks the player session
// disconnected in the game, and tears the room down when the table and all
// players are gone. Returns what was removed so the caller can announce it.
func (r *Registry) Disconnect(c *Conn) *Departure {
	if c == nil || c.Room == "" {
		return nil
	}

	r.mu.Lock()
	rm, ok := r.rooms[c.Room]
	if !ok {
		r.mu.Unlock()
		return nil
	}

	dep := &Departure{Room: c.Room, PlayerID: c.PlayerID}
	if rm.Table == c {
		rm.Table = nil
		dep.WasTable = true
	}
	kept := rm.Players[:0]
	for _, p := range rm.Players {
		if p == c {
			dep.PlayerLeft = c.Role == RolePlayer
			continue
		}
		kept = append(kept, p)
	}
	rm.Players = kept
	for _, p := range rm.Players {
		dep.PlayerList = append(dep.PlayerList, p.PlayerID)
	}

	var g *game.DungeonGame
	if dep.PlayerLeft {
		g = rm.Game
	}
	if rm.Table == nil && len(rm.Players) == 0 {
		delete(r.rooms, c.Room)
		r.logger.Infof("room %q destroyed", c.Room)
	}
	r.mu.Unlock()

	// Game lock is taken outside the registry lock.
	if g != nil {
		g.DisconnectPlayer(c.PlayerID)
	}
	return dep
}
