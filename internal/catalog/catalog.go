// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// ValueKind discriminates how a card encodes a numeric amount.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueFixed
	ValueRange
	ValueProduct
)

// Value is a card amount: a fixed number, a uniform random range resolved at
// play time, or a fixed product ("AxB" shorthand).
type Value struct {
	Kind ValueKind
	N    int // fixed amount
	Min  int // inclusive range bounds
	Max  int
	A    int // product factors
	B    int
}

// Fixed returns a constant value.
func Fixed(n int) Value { return Value{Kind: ValueFixed, N: n} }

// Range returns a uniform random value in [min, max].
func Range(min, max int) Value { return Value{Kind: ValueRange, Min: min, Max: max} }

// Product returns the fixed product a*b.
func Product(a, b int) Value { return Value{Kind: ValueProduct, A: a, B: b} }

// ParseValue accepts the catalog shorthand used by card data: a plain number
// ("7"), a range ("3-9"), or a product ("2x3").
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, fmt.Errorf("empty value")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Fixed(n), nil
	}
	if min, max, ok := strings.Cut(s, "-"); ok {
		lo, err1 := strconv.Atoi(min)
		hi, err2 := strconv.Atoi(max)
		if err1 != nil || err2 != nil || hi < lo {
			return Value{}, fmt.Errorf("bad range %q", s)
		}
		return Range(lo, hi), nil
	}
	if a, b, ok := strings.Cut(s, "x"); ok {
		fa, err1 := strconv.Atoi(a)
		fb, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil {
			return Value{}, fmt.Errorf("bad product %q", s)
		}
		return Product(fa, fb), nil
	}
	return Value{}, fmt.Errorf("unrecognized value %q", s)
}

// Roll resolves the value to a concrete amount. Range values are rolled
// independently per call.
func (v Value) Roll(rng *rand.Rand) int {
	switch v.Kind {
	case ValueFixed:
		return v.N
	case ValueRange:
		return v.Min + rng.Intn(v.Max-v.Min+1)
	case ValueProduct:
		return v.A * v.B
	default:
		return 0
	}
}

// Effect is the combat effect of a single card. Zero-valued fields mean the
// card does not contribute that effect.
type Effect struct {
	Name           string
	Attack         Value
	Defense        int
	Heal           int
	Trap           bool
	Freeze         bool
	Barrier        bool
	RevealWeakness bool
	Boost          float64 // fractional attack multiplier, applied inline
	RageDown       int
	Kind           string
	Tags           []string
}

// HasAttack reports whether the card contributes to the attack total.
func (e Effect) HasAttack() bool { return e.Attack.Kind != ValueNone }

// Monster is one encounter's stat block. Game state takes copies, never
// references.
type Monster struct {
	Name        string `json:"name"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
	RagePerTurn int    `json:"ragePerTurn"`
	Boss        bool   `json:"isBoss"`
}

// Move is one entry of the automated opponent's move list.
type Move struct {
	ID     string
	Name   string
	Attack Value
}

// Reward identifies the card granted to every player deck after clearing a
// non-terminal encounter.
type Reward struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Monsters is the fixed campaign: four regular encounters then the terminal
// boss. EncounterIndex in game state walks this list.
var Monsters = []Monster{
	{Name: "Goblin Pack", HP: 30, Attack: 5, RagePerTurn: 8},
	{Name: "Shield Troll", HP: 40, Attack: 7, RagePerTurn: 10},
	{Name: "Rune Sentinel", HP: 50, Attack: 9, RagePerTurn: 12},
	{Name: "Ogre Captain", HP: 60, Attack: 11, RagePerTurn: 14},
	{Name: "Dragon Warden", HP: 100, Attack: 15, RagePerTurn: 20, Boss: true},
}

// MonsterMoves is the opponent's fixed move list; one is chosen uniformly at
// random each monster phase.
var MonsterMoves = []Move{
	{ID: "brutal_claw", Name: "Brutal Claw", Attack: Fixed(8)},
	{ID: "overhead_smash", Name: "Overhead Smash", Attack: Fixed(12)},
	{ID: "cursed_howl", Name: "Cursed Howl", Attack: Fixed(6)},
	{ID: "flame_breath", Name: "Flame Breath", Attack: Fixed(10)},
	{ID: "tail_sweep", Name: "Tail Sweep", Attack: Fixed(7)},
}

// Rewards holds one card per non-terminal encounter, indexed by the
// encounter just cleared.
var Rewards = []Reward{
	{ID: "goblin-trophy", Name: "Goblin Trophy", Kind: "attack"},
	{ID: "troll-shield", Name: "Troll Shield", Kind: "defense"},
	{ID: "rune-power", Name: "Rune Power", Kind: "skill"},
	{ID: "ogre-might", Name: "Ogre Might", Kind: "attack"},
}

// effects maps card id to combat effect. Read-only after package init.
var effects = map[string]Effect{
	// Starting cards.
	"ember-burst": {Name: "Ember Burst", Attack: Fixed(6), Kind: "attack", Tags: []string{"ignite", "attack"}},
	"aegis-wave":  {Name: "Aegis Wave", Defense: 6, Barrier: true, Kind: "defense", Tags: []string{"shield"}},
	"storm-quill": {Name: "Storm Quill", Attack: Fixed(3), Kind: "attack", Tags: []string{"utility", "storm"}},
	"void-lotus":  {Name: "Void Lotus", Freeze: true, Kind: "utility", Tags: []string{"void"}},
	"gale-warden": {Name: "Gale Warden", Attack: Fixed(5), Heal: 2, Kind: "skill", Tags: []string{"wind", "attack"}},

	// Collection cards.
	"blade-flurry":  {Name: "Blade Flurry", Attack: Product(2, 3), Kind: "attack", Tags: []string{"attack"}},
	"arcane-bolt":   {Name: "Arcane Bolt", Attack: Range(3, 9), Kind: "attack", Tags: []string{"attack", "arcane"}},
	"shield-bash":   {Name: "Shield Bash", Attack: Fixed(3), Defense: 2, Kind: "attack", Tags: []string{"attack", "shield"}},
	"iron-bulwark":  {Name: "Iron Bulwark", Defense: 8, Kind: "defense", Tags: []string{"defense"}},
	"healing-light": {Name: "Healing Light", Heal: 5, Kind: "skill", Tags: []string{"skill", "holy"}},
	"rallying-cry":  {Name: "Rallying Cry", Defense: 2, Heal: 2, Kind: "skill", Tags: []string{"skill"}},
	"spike-trap":    {Name: "Spike Trap", Trap: true, Kind: "utility", Tags: []string{"utility", "trap"}},
	"frost-sigil":   {Name: "Frost Sigil", Freeze: true, Kind: "utility", Tags: []string{"utility", "frost"}},
	"mirror-ward":   {Name: "Mirror Ward", Barrier: true, Kind: "defense", Tags: []string{"defense", "arcane"}},
	"keen-eye":      {Name: "Keen Eye", RevealWeakness: true, Kind: "utility", Tags: []string{"utility"}},
	"calm-mind":     {Name: "Calm Mind", RageDown: 20, Kind: "skill", Tags: []string{"skill"}},

	// Reward cards, indexed by Rewards.
	"goblin-trophy": {Name: "Goblin Trophy", Attack: Fixed(8), Boost: 0.15, Kind: "attack", Tags: []string{"attack"}},
	"troll-shield":  {Name: "Troll Shield", Defense: 10, Heal: 3, Kind: "defense", Tags: []string{"defense"}},
	"rune-power":    {Name: "Rune Power", Attack: Fixed(10), RageDown: 15, Kind: "skill", Tags: []string{"skill"}},
	"ogre-might":    {Name: "Ogre Might", Attack: Fixed(12), RevealWeakness: true, Kind: "attack", Tags: []string{"attack"}},
}

// EffectOf looks up the combat effect for a card id. Unknown ids report
// ok=false; callers treat those plays as no-op contributions.
func EffectOf(cardID string) (Effect, bool) {
	e, ok := effects[cardID]
	return e, ok
}

// KnownCard reports whether a card id exists in the catalog.
func KnownCard(cardID string) bool {
	_, ok := effects[cardID]
	return ok
}

// CardIDs returns every card id in the catalog. Order is unspecified.
func CardIDs() []string {
	ids := make([]string, 0, len(effects))
	for id := range effects {
		ids = append(ids, id)
	}
	return ids
}

// StartingCardIDs are the ids every fresh player is assumed to own; the
// fallback deck resolver samples from these.
var StartingCardIDs = []string{"ember-burst", "aegis-wave", "storm-quill", "void-lotus", "gale-warden"}
