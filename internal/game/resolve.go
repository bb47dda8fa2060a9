// internal/game/resolve.go
package game

import (
	"math"
	"time"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/catalog"
)

// comboFlags are the boolean card properties accumulated across the turn's
// plays; co-occurrence triggers the named combos.
type comboFlags struct {
	Trap           bool
	Freeze         bool
	Barrier        bool
	RevealWeakness bool
}

// resolveTurn closes the submission window and announces Stage A. Reached via
// the fast path (all connected players submitted) or the timeout fallback;
// whichever fires first invalidates the other through the timer generation.
// Assumes lock is held.
func (g *DungeonGame) resolveTurn() {
	if g.Completed || g.phase != PhaseTurnActive {
		return
	}
	g.phase = PhaseResolving
	g.fireEvent(PhaseChangeEvent{
		Type:     EventPhaseChange,
		Phase:    "resolving",
		Message:  "Resolving player actions...",
		Duration: g.Timings.ResolveDelay.Milliseconds(),
	})
	g.schedule(g.Timings.ResolveDelay, g.resolvePlayers)
}

// resolvePlayers is Stage A: accumulate submitted card effects in submission
// order, apply combo rules in fixed precedence, commit damage and healing,
// then announce the monster phase. Assumes lock is held.
func (g *DungeonGame) resolvePlayers() {
	res := &TurnResults{
		Combos:    []string{},
		PartyHP:   g.PartyHP,
		MonsterHP: g.Monster.HP,
		Rage:      g.Rage,
	}

	var flags comboFlags
	attackCards := 0
	shieldPlayed := false
	healPlayed := false

	// Boost and rageDown apply inline at the card's position, so submission
	// order is part of the result.
	for _, pid := range g.pendingOrder {
		effect, ok := catalog.EffectOf(g.pending[pid])
		if !ok {
			continue
		}
		if effect.HasAttack() {
			res.Attacks += effect.Attack.Roll(g.rng)
			attackCards++
		}
		if effect.Defense > 0 {
			res.Defense += effect.Defense
			shieldPlayed = true
		}
		if effect.Heal > 0 {
			res.Heals += effect.Heal
			healPlayed = true
		}
		if effect.Trap {
			flags.Trap = true
		}
		if effect.Freeze {
			flags.Freeze = true
		}
		if effect.Barrier {
			flags.Barrier = true
		}
		if effect.RevealWeakness {
			flags.RevealWeakness = true
		}
		if effect.Boost > 0 {
			res.Attacks = roundInt(float64(res.Attacks) * (1 + effect.Boost))
		}
		if effect.RageDown > 0 {
			g.Rage = max(0, g.Rage-effect.RageDown)
		}
	}

	if attackCards >= 3 {
		res.Attacks = roundInt(float64(res.Attacks) * 1.5)
		res.Combos = append(res.Combos, ComboTeamStrike)
	}
	if shieldPlayed && healPlayed {
		res.InfiniteDefense = true
		res.Combos = append(res.Combos, ComboPerfectDefense)
	}
	if flags.RevealWeakness && attackCards >= 2 {
		res.Attacks = roundInt(float64(res.Attacks) * 2.5)
		res.Combos = append(res.Combos, ComboWeakness)
	}
	bossSkips := flags.Freeze && flags.Barrier
	if bossSkips {
		res.Combos = append(res.Combos, ComboFreezeLock)
	}

	g.Monster.HP = max(0, g.Monster.HP-res.Attacks)
	res.MonsterHP = g.Monster.HP
	g.PartyHP = min(MaxPartyHP, g.PartyHP+res.Heals)
	res.PartyHP = g.PartyHP
	res.Rage = g.Rage

	// Same totals twice: turn_state feeds incremental UI, turn_result is the
	// authoritative record. turn_state gets its own copy because the monster
	// phase keeps mutating res.
	snapshot := *res
	g.fireEvent(TurnStateEvent{Type: EventTurnState, Phase: "player_resolve", Results: &snapshot})
	g.fireEvent(TurnResultEvent{Type: EventTurnResult, TurnResults: *res, Phase: "player_resolve"})

	g.phase = PhaseMonster
	g.fireEvent(PhaseChangeEvent{
		Type:     EventPhaseChange,
		Phase:    "monster",
		Message:  "Monster's Turn...",
		Duration: g.Timings.MonsterDelay.Milliseconds(),
	})
	g.schedule(g.Timings.MonsterDelay, func() {
		g.monsterPhase(res, bossSkips)
	})
}

// monsterPhase is Stage B: the boss acts (unless frozen), rage accrues, and
// the turn's termination checks run in order. Assumes lock is held.
func (g *DungeonGame) monsterPhase(res *TurnResults, bossSkips bool) {
	var move *catalog.Move
	if !bossSkips {
		m := catalog.MonsterMoves[g.rng.Intn(len(catalog.MonsterMoves))]
		move = &m
		raw := m.Attack.Roll(g.rng)
		final := 0
		if !res.InfiniteDefense {
			final = max(0, raw-res.Defense)
		}
		res.BossAttack = final
		g.PartyHP = max(0, g.PartyHP-final)
		res.PartyHP = g.PartyHP
	}

	// Rage accrues even under freeze lock.
	g.Rage += g.Monster.RagePerTurn
	if g.Rage >= 100 {
		g.Rage = 0
		g.PartyHP = max(0, g.PartyHP-g.Monster.Attack*2)
		res.PartyHP = g.PartyHP
		res.Combos = append(res.Combos, ComboRageStrike)
	}
	res.Rage = g.Rage

	if move != nil {
		dmg := res.BossAttack
		g.fireEvent(CardActionEvent{
			Type:      EventCardAction,
			PlayerID:  "BOSS",
			CardID:    move.ID,
			CardName:  move.Name,
			Action:    "play",
			Damage:    &dmg,
			Phase:     "boss_play",
			Timestamp: time.Now().UnixMilli(),
		})
	}

	g.fireEvent(TurnResultEvent{Type: EventTurnResult, TurnResults: *res, Phase: "boss_resolve"})

	if g.PartyHP <= 0 {
		g.Completed = true
		g.phase = PhaseIdle
		g.cancelTimer()
		g.fireEvent(GameOverEvent{Type: EventGameOver, Result: "defeat", PartyHP: 0})
		return
	}

	if g.Monster.HP <= 0 {
		g.clearEncounter()
		return
	}

	g.phase = PhaseIdle
	g.schedule(g.Timings.NextTurnPacing, g.startTurn)
}

// clearEncounter handles a monster reaching zero hit points: reward and
// advance for a regular encounter, final victory for the terminal boss.
// The next turn only begins on an explicit continue. Assumes lock is held.
func (g *DungeonGame) clearEncounter() {
	cleared := g.EncounterIndex
	next := cleared + 1

	if next >= len(catalog.Monsters) {
		g.Completed = true
		g.phase = PhaseIdle
		g.cancelTimer()
		g.fireEvent(GameOverEvent{
			Type:         EventGameOver,
			Result:       "victory",
			PartyHP:      g.PartyHP,
			RoomsCleared: len(catalog.Monsters),
			TotalRooms:   len(catalog.Monsters),
		})
		return
	}

	reward := catalog.Rewards[cleared]
	g.fireEvent(RoomVictoryEvent{
		Type:        EventRoomVictory,
		RoomIndex:   cleared,
		TotalRooms:  len(catalog.Monsters),
		RewardCard:  reward,
		NextMonster: catalog.Monsters[next].Name,
		PartyHP:     g.PartyHP,
	})

	for _, s := range g.sessions {
		if len(s.Deck) > 0 {
			s.Deck = append(s.Deck, reward.ID)
		}
	}

	g.EncounterIndex = next
	g.Monster = catalog.Monsters[next]
	g.phase = PhaseIdle
	g.cancelTimer()
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
