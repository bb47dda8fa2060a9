// internal/game/game.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/catalog"
	"github.com/shiveeshfotedar/dungeon-dashers/internal/deck"
)

// MaxPartyHP is the shared party hit point pool cap.
const MaxPartyHP = 100

// HandSize is the number of cards dealt to each player every turn.
const HandSize = 5

// Phase is the turn cycle position of a room's game.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseTurnActive Phase = "turn_active"
	PhaseResolving  Phase = "resolving"
	PhaseMonster    Phase = "monster"
)

// Timings collects every scheduled delay in the phase pipeline. Tests inject
// short values; production uses DefaultTimings.
type Timings struct {
	TurnSeconds    int           // countdown advertised in turn_start
	Turn           time.Duration // submission window before timeout resolution
	ResolveDelay   time.Duration // Stage A announcement
	MonsterDelay   time.Duration // Stage B announcement
	NextTurnPacing time.Duration // gap between boss_resolve and the next turn
	ContinuePacing time.Duration // gap after continue_to_next_room auto-start
	StartRetry     time.Duration // retry interval when starting with no players
}

// DefaultTimings matches the reference pacing.
var DefaultTimings = Timings{
	TurnSeconds:    10,
	Turn:           10 * time.Second,
	ResolveDelay:   3 * time.Second,
	MonsterDelay:   5 * time.Second,
	NextTurnPacing: 2 * time.Second,
	ContinuePacing: 2 * time.Second,
	StartRetry:     time.Second,
}

// Session is one player's membership in the room's game: their resolved deck
// (which grows with reward cards) and the hand dealt this turn. Hands do not
// persist across turns.
type Session struct {
	PlayerID  string
	Deck      []string
	Hand      []string
	Connected bool
}

// DungeonGame holds the entire encounter and turn state for a single room.
// All mutation happens under Mu, from message handlers or timer callbacks.
type DungeonGame struct {
	Room string
	Mu   sync.Mutex

	Timings Timings

	EncounterIndex int
	TurnIndex      int
	Monster        catalog.Monster
	PartyHP        int
	Rage           int
	Completed      bool

	phase Phase

	sessions []*Session

	// pending plays for the current turn, keyed by player id, with a stable
	// first-submission order. Resubmission replaces the card but keeps the
	// original position.
	pending      map[string]string
	pendingOrder []string

	// Single outstanding phase timer. Arming a new timer always cancels the
	// previous one, and timerGen invalidates callbacks that already fired.
	phaseTimer *time.Timer
	timerGen   uint64

	rng *rand.Rand

	// BroadcastFn fans an event out to every connection in the room. If nil,
	// events are dropped.
	BroadcastFn func(ev any)

	// BroadcastToPlayerFn sends an event to a single player's connection.
	BroadcastToPlayerFn func(playerID string, ev any)
}

// NewDungeonGame builds a fresh game at the first encounter with a full
// party pool.
func NewDungeonGame(room string) *DungeonGame {
	g := &DungeonGame{
		Room:    room,
		Timings: DefaultTimings,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	g.reset()
	return g
}

// SetRand replaces the game's random source. Test hook for deterministic
// hands, ranges and boss moves.
func (g *DungeonGame) SetRand(rng *rand.Rand) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.rng = rng
}

// reset reinitializes encounter progression. Sessions keep their decks
// (including earned rewards). Assumes lock is held or game is unshared.
func (g *DungeonGame) reset() {
	g.cancelTimer()
	g.EncounterIndex = 0
	g.TurnIndex = 0
	g.Monster = catalog.Monsters[0]
	g.PartyHP = MaxPartyHP
	g.Rage = 0
	g.Completed = false
	g.phase = PhaseIdle
	g.pending = make(map[string]string)
	g.pendingOrder = nil
}

// cancelTimer stops the outstanding phase timer, if any, and invalidates any
// callback that already fired but has not yet taken the lock.
func (g *DungeonGame) cancelTimer() {
	g.timerGen++
	if g.phaseTimer != nil {
		g.phaseTimer.Stop()
		g.phaseTimer = nil
	}
}

// schedule arms the room's single phase timer. fn runs with the lock held and
// only if no newer timer or cancellation superseded it.
func (g *DungeonGame) schedule(d time.Duration, fn func()) {
	if g.phaseTimer != nil {
		g.phaseTimer.Stop()
	}
	g.timerGen++
	gen := g.timerGen
	g.phaseTimer = time.AfterFunc(d, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if gen != g.timerGen {
			return
		}
		fn()
	})
}

// fireEvent broadcasts to the whole room. Assumes lock is held; delivery is
// best-effort and must not block game logic.
func (g *DungeonGame) fireEvent(ev any) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends a private event. Assumes lock is held.
func (g *DungeonGame) fireEventToPlayer(playerID string, ev any) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// ConnectPlayer registers a player session or refreshes an existing one on
// reconnect. The deck list replaces the session's previous deck.
func (g *DungeonGame) ConnectPlayer(playerID string, deckList []string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, s := range g.sessions {
		if s.PlayerID == playerID {
			s.Connected = true
			if len(deckList) > 0 {
				s.Deck = deckList
			}
			return
		}
	}
	g.sessions = append(g.sessions, &Session{PlayerID: playerID, Deck: deckList, Connected: true})
}

// DisconnectPlayer marks a session disconnected. Its pending play for the
// current turn, if any, stays in the turn.
func (g *DungeonGame) DisconnectPlayer(playerID string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, s := range g.sessions {
		if s.PlayerID == playerID {
			s.Connected = false
			return
		}
	}
}

// TableJoined handles a table (display) connection: a completed game is
// reinitialized from scratch, and a not-yet-started game announces its first
// encounter without arming any timers.
func (g *DungeonGame) TableJoined() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Completed {
		g.reset()
	}
	if g.TurnIndex == 0 {
		g.enterEncounter(false)
	}
}

// AnnounceIfUnstarted re-broadcasts the first encounter for a room that has
// not begun its first turn. Used when the first player joins a hosted room.
// Broadcast only: a deferred start pending on player arrival stays armed.
func (g *DungeonGame) AnnounceIfUnstarted() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.Completed && g.TurnIndex == 0 && g.phase == PhaseIdle {
		g.fireEvent(RoomEnteredEvent{
			Type:      EventRoomEntered,
			RoomIndex: g.EncounterIndex,
			Monster:   g.Monster,
			PartyHP:   g.PartyHP,
		})
	}
}

// StartBattle begins the first turn of the current encounter. Explicit table
// command; encounters never start their own timers on entry. Ignored outside
// the idle phase so a repeated or mistimed command cannot abort an active
// turn or an in-flight resolution pipeline.
func (g *DungeonGame) StartBattle() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Completed || g.phase != PhaseIdle {
		return
	}
	g.startTurn()
}

// ContinueToNextRoom re-enters the current encounter (already advanced by the
// victory path) and auto-starts the next turn after a pacing delay. Like
// StartBattle, it only applies from the idle phase.
func (g *DungeonGame) ContinueToNextRoom() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Completed || g.phase != PhaseIdle {
		return
	}
	g.enterEncounter(true)
}

// enterEncounter snapshots the encounter's stat block, resets per-encounter
// counters and broadcasts room_entered. Any timer left over from the previous
// encounter (turn pacing, deferred start) is disarmed first. Assumes lock is
// held.
func (g *DungeonGame) enterEncounter(autoStart bool) {
	g.cancelTimer()
	idx := g.EncounterIndex
	if idx >= len(catalog.Monsters) {
		idx = len(catalog.Monsters) - 1
	}
	g.Monster = catalog.Monsters[idx]
	g.TurnIndex = 0
	g.pending = make(map[string]string)
	g.pendingOrder = nil
	g.phase = PhaseIdle

	g.fireEvent(RoomEnteredEvent{
		Type:      EventRoomEntered,
		RoomIndex: g.EncounterIndex,
		Monster:   g.Monster,
		PartyHP:   g.PartyHP,
	})

	if autoStart && g.connectedCount() > 0 {
		g.schedule(g.Timings.ContinuePacing, g.startTurn)
	}
}

// startTurn opens a new submission window: clears pending plays, deals fresh
// hands, broadcasts the countdown and arms the timeout fallback. With no
// connected players the start is deferred via a short retry timer. Assumes
// lock is held.
func (g *DungeonGame) startTurn() {
	if g.Completed {
		return
	}
	if g.connectedCount() == 0 {
		g.schedule(g.Timings.StartRetry, g.startTurn)
		return
	}

	g.TurnIndex++
	g.pending = make(map[string]string)
	g.pendingOrder = nil
	g.phase = PhaseTurnActive

	for _, s := range g.sessions {
		if !s.Connected || len(s.Deck) == 0 {
			continue
		}
		s.Hand = deck.Deal(s.Deck, HandSize, g.rng)
		g.fireEventToPlayer(s.PlayerID, HandEvent{Type: EventHand, Hand: s.Hand})
	}

	g.fireEvent(TurnStartEvent{Type: EventTurnStart, TurnIndex: g.TurnIndex, Seconds: g.Timings.TurnSeconds})

	g.schedule(g.Timings.Turn, g.resolveTurn)
}

// SubmitPlay records a player's card for the active turn. Last write wins per
// player; the first submission fixes the play's resolution order. When every
// currently connected player has submitted, resolution begins immediately and
// the timeout timer is cancelled.
func (g *DungeonGame) SubmitPlay(playerID, cardID string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Completed || g.phase != PhaseTurnActive {
		return
	}
	if !g.hasSession(playerID) {
		return
	}

	if _, resubmit := g.pending[playerID]; !resubmit {
		g.pendingOrder = append(g.pendingOrder, playerID)
	}
	g.pending[playerID] = cardID

	name := cardID
	if e, ok := catalog.EffectOf(cardID); ok {
		name = e.Name
	}
	g.fireEvent(CardActionEvent{
		Type:      EventCardAction,
		PlayerID:  playerID,
		CardID:    cardID,
		CardName:  name,
		Action:    "play",
		Timestamp: time.Now().UnixMilli(),
	})

	if g.allConnectedSubmitted() {
		g.resolveTurn()
	}
}

// allConnectedSubmitted is the fast-path check: every currently connected
// player has a pending play. Stale entries from players who disconnected
// mid-turn do not count toward it. Assumes lock is held.
func (g *DungeonGame) allConnectedSubmitted() bool {
	connected := 0
	submitted := 0
	for _, s := range g.sessions {
		if !s.Connected {
			continue
		}
		connected++
		if _, ok := g.pending[s.PlayerID]; ok {
			submitted++
		}
	}
	return connected > 0 && submitted >= connected
}

func (g *DungeonGame) connectedCount() int {
	n := 0
	for _, s := range g.sessions {
		if s.Connected {
			n++
		}
	}
	return n
}

func (g *DungeonGame) hasSession(playerID string) bool {
	for _, s := range g.sessions {
		if s.PlayerID == playerID && s.Connected {
			return true
		}
	}
	return false
}

// PlayerIDs returns the ids of all sessions currently connected, in join
// order.
func (g *DungeonGame) PlayerIDs() []string {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	var ids []string
	for _, s := range g.sessions {
		if s.Connected {
			ids = append(ids, s.PlayerID)
		}
	}
	return ids
}

// SessionDeck returns a copy of a session's current deck, reward cards
// included. Test and diagnostics accessor.
func (g *DungeonGame) SessionDeck(playerID string) []string {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, s := range g.sessions {
		if s.PlayerID == playerID {
			out := make([]string, len(s.Deck))
			copy(out, s.Deck)
			return out
		}
	}
	return nil
}

// PhaseNow reports the current turn cycle phase.
func (g *DungeonGame) PhaseNow() Phase {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.phase
}
