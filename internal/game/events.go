// internal/game/events.go
package game

import "github.com/shiveeshfotedar/dungeon-dashers/internal/catalog"

// EventType tags every outbound payload so clients can dispatch on it.
type EventType string

const (
	EventRoomEntered EventType = "room_entered"
	EventTurnStart   EventType = "turn_start"
	EventPhaseChange EventType = "phase_change"
	EventTurnState   EventType = "turn_state"
	EventTurnResult  EventType = "turn_result"
	EventCardAction  EventType = "card_action"
	EventRoomVictory EventType = "room_victory"
	EventGameOver    EventType = "game_over"
	EventHand        EventType = "hand"
)

// Combo names recorded in TurnResults.Combos.
const (
	ComboTeamStrike     = "TEAM_STRIKE"
	ComboPerfectDefense = "PERFECT_DEFENSE"
	ComboWeakness       = "WEAKNESS_COMBO"
	ComboFreezeLock     = "FREEZE_LOCK"
	ComboRageStrike     = "RAGE_STRIKE"
)

// TurnResults is the itemized outcome of one turn. The same totals are
// broadcast as an intermediate turn_state snapshot and as the turn_result
// record; Stage B then updates BossAttack, PartyHP and Rage in place before
// the final boss_resolve broadcast.
type TurnResults struct {
	Attacks         int      `json:"attacks"`
	Defense         int      `json:"defense"`
	Heals           int      `json:"heals"`
	Combos          []string `json:"combosTriggered"`
	BossAttack      int      `json:"bossAttack"`
	PartyHP         int      `json:"partyHp"`
	MonsterHP       int      `json:"monsterHp"`
	Rage            int      `json:"rage"`
	InfiniteDefense bool     `json:"infiniteDefense,omitempty"`
}

// RoomEnteredEvent announces the current encounter's stat block.
type RoomEnteredEvent struct {
	Type      EventType       `json:"type"`
	RoomIndex int             `json:"roomIndex"`
	Monster   catalog.Monster `json:"monster"`
	PartyHP   int             `json:"partyHp"`
}

// TurnStartEvent opens the submission window.
type TurnStartEvent struct {
	Type      EventType `json:"type"`
	TurnIndex int       `json:"turnIndex"`
	Seconds   int       `json:"seconds"`
}

// PhaseChangeEvent announces a resolution stage; Duration is for client-side
// animation pacing only, the server never blocks on acknowledgement.
type PhaseChangeEvent struct {
	Type     EventType `json:"type"`
	Phase    string    `json:"phase"`
	Message  string    `json:"message"`
	Duration int64     `json:"duration"` // milliseconds
}

// TurnStateEvent is the incremental UI snapshot of Stage A.
type TurnStateEvent struct {
	Type    EventType    `json:"type"`
	Phase   string       `json:"phase"`
	Results *TurnResults `json:"results"`
}

// TurnResultEvent is the authoritative record of the turn so far. The totals
// are flattened to the top level alongside the phase tag.
type TurnResultEvent struct {
	Type EventType `json:"type"`
	TurnResults
	Phase string `json:"phase"`
}

// CardActionEvent logs a single card play, by a player or by the boss.
type CardActionEvent struct {
	Type      EventType `json:"type"`
	PlayerID  string    `json:"playerId"`
	CardID    string    `json:"cardId"`
	CardName  string    `json:"cardName"`
	Action    string    `json:"action"`
	Damage    *int      `json:"damage,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// RoomVictoryEvent announces a cleared non-terminal encounter and the reward
// granted to every player deck.
type RoomVictoryEvent struct {
	Type        EventType      `json:"type"`
	RoomIndex   int            `json:"roomIndex"`
	TotalRooms  int            `json:"totalRooms"`
	RewardCard  catalog.Reward `json:"rewardCard"`
	NextMonster string         `json:"nextMonster"`
	PartyHP     int            `json:"partyHp"`
}

// GameOverEvent is terminal for the room: either defeat or final victory.
type GameOverEvent struct {
	Type         EventType `json:"type"`
	Result       string    `json:"result"`
	PartyHP      int       `json:"partyHp"`
	RoomsCleared int       `json:"roomsCleared,omitempty"`
	TotalRooms   int       `json:"totalRooms,omitempty"`
}

// HandEvent privately delivers a player's fresh hand for the turn.
type HandEvent struct {
	Type EventType `json:"type"`
	Hand []string  `json:"hand"`
}
