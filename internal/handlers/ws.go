// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/deck"
	"github.com/shiveeshfotedar/dungeon-dashers/internal/room"
)

// ClientMessage is the inbound envelope; Type selects the operation and the
// remaining fields are populated per message type.
type ClientMessage struct {
	Type     string   `json:"type"`
	Room     string   `json:"room,omitempty"`
	PlayerID string   `json:"playerId,omitempty"`
	Deck     []string `json:"deck,omitempty"`
	DeckID   string   `json:"deckId,omitempty"`
	CardID   string   `json:"cardId,omitempty"`
	Card     string   `json:"card,omitempty"`
}

// WSHandler upgrades the connection and runs the read loop, dispatching each
// inbound message to registry and game operations. A parse failure is
// reported to the sender and never disturbs room state.
func WSHandler(logger *logrus.Logger, reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		logger.Infof("websocket connected from %s", r.RemoteAddr)

		conn := room.NewConn(wsSink{c})
		readMessages(r.Context(), c, conn, reg, logger)

		// Cleanup after the read loop exits for any reason.
		announceDeparture(reg, reg.Disconnect(conn))
		logger.Infof("websocket from %s cleaned up", r.RemoteAddr)
	}
}

// wsSink adapts a coder/websocket connection to the registry's Sink.
type wsSink struct {
	c *websocket.Conn
}

func (s wsSink) Send(ctx context.Context, data []byte) error {
	return s.c.Write(ctx, websocket.MessageText, data)
}

// readMessages consumes inbound frames until the connection closes or the
// request context is cancelled.
func readMessages(ctx context.Context, c *websocket.Conn, conn *room.Conn, reg *room.Registry, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("websocket closed normally")
			} else {
				logger.Warnf("websocket read error: %v", err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid json from client: %v", err)
			reg.SendTo(conn, map[string]any{"type": "error", "message": "invalid JSON"})
			continue
		}

		dispatch(conn, reg, msg, logger)
	}
}

// dispatch routes one inbound message by type. Unknown rooms on start or
// continue are dropped; join operations create rooms lazily.
func dispatch(conn *room.Conn, reg *room.Registry, msg ClientMessage, logger *logrus.Logger) {
	switch msg.Type {
	case "join_table":
		if msg.Room == "" {
			return
		}
		rebindIfNeeded(conn, reg, msg.Room)
		g := reg.ConnectTable(msg.Room, conn)
		logger.Infof("table joined room %q", msg.Room)

		reg.SendTo(conn, map[string]any{
			"type":    "room_state",
			"players": reg.PlayerIDs(msg.Room),
		})
		g.TableJoined()

	case "start_battle":
		g, ok := reg.Lookup(msg.Room)
		if !ok {
			return
		}
		logger.Infof("battle starting in room %q", msg.Room)
		g.StartBattle()

	case "continue_to_next_room":
		g, ok := reg.Lookup(msg.Room)
		if !ok {
			return
		}
		logger.Infof("continuing to next room in %q", msg.Room)
		g.ContinueToNextRoom()

	case "join_player":
		if msg.Room == "" || msg.PlayerID == "" {
			return
		}
		rebindIfNeeded(conn, reg, msg.Room)
		g := reg.ConnectPlayer(msg.Room, msg.PlayerID, conn)
		logger.Infof("player %s joined room %q", msg.PlayerID, msg.Room)

		playerList := reg.PlayerIDs(msg.Room)
		reg.Broadcast(msg.Room, map[string]any{
			"type":        "player_joined",
			"playerId":    msg.PlayerID,
			"playerCount": len(playerList),
			"playerList":  playerList,
		})

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		deckList := deck.Resolve(msg.DeckID, msg.Deck, rng)
		ok, reason := deck.Validate(deckList, deck.DefaultRules)
		if !ok {
			// Advisory only: the player stays in the room on a fallback deck.
			reg.SendTo(conn, map[string]any{"type": "deck_invalid", "reason": reason})
			deckList = deck.Resolve("ember-ward", nil, rng)
		} else {
			reg.SendTo(conn, map[string]any{
				"type":     "deck_info",
				"playerId": msg.PlayerID,
				"deckSize": len(deckList),
			})
		}
		g.ConnectPlayer(msg.PlayerID, deckList)

		reg.Broadcast(msg.Room, map[string]any{
			"type":     "deck_info",
			"playerId": msg.PlayerID,
			"deckSize": len(deckList),
		})

		if len(playerList) == 1 && reg.HasTable(msg.Room) {
			g.AnnounceIfUnstarted()
		}

	case "play_card":
		roomName := msg.Room
		if roomName == "" {
			roomName = conn.Room
		}
		g, ok := reg.Lookup(roomName)
		if !ok {
			return
		}
		cardID := msg.CardID
		if cardID == "" {
			cardID = msg.Card
		}
		playerID := msg.PlayerID
		if playerID == "" {
			playerID = conn.PlayerID
		}
		g.SubmitPlay(playerID, cardID)

	default:
		logger.Warnf("unknown message type %q", msg.Type)
		reg.SendTo(conn, map[string]any{"type": "error", "message": "unknown message type: " + msg.Type})
	}
}

// rebindIfNeeded detaches a connection that re-joins under a different room
// so the old room does not keep a stale entry; the old room's members get the
// same player_left announcement as a socket close.
func rebindIfNeeded(conn *room.Conn, reg *room.Registry, newRoom string) {
	if conn.Room != "" && conn.Room != newRoom {
		announceDeparture(reg, reg.Disconnect(conn))
	}
}

// announceDeparture broadcasts the updated roster to a room a player just
// left. Table departures and no-op disconnects are silent.
func announceDeparture(reg *room.Registry, dep *room.Departure) {
	if dep == nil || !dep.PlayerLeft {
		return
	}
	reg.Broadcast(dep.Room, map[string]any{
		"type":        "player_left",
		"playerId":    dep.PlayerID,
		"playerCount": len(dep.PlayerList),
		"playerList":  dep.PlayerList,
	})
}
