// internal/deck/deck.go
package deck

import (
	"fmt"
	"math/rand"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/catalog"
)

// Rules are the deck-construction limits enforced by Validate.
type Rules struct {
	MinSize   int
	MaxSize   int
	MaxCopies int // per card id
}

// DefaultRules matches the published deck-building constraints.
var DefaultRules = Rules{MinSize: 10, MaxSize: 40, MaxCopies: 3}

// Premade holds the named quick-start decks.
var Premade = map[string][]string{
	"ember-ward": {"ember-burst", "ember-burst", "aegis-wave", "aegis-wave", "storm-quill", "storm-quill", "void-lotus", "gale-warden", "storm-quill", "aegis-wave"},
	"wind-surge": {"gale-warden", "gale-warden", "storm-quill", "storm-quill", "storm-quill", "void-lotus", "aegis-wave", "ember-burst", "ember-burst", "ember-burst"},
}

// Resolve expands a premade deck name or passes an explicit card list
// through. With neither, it falls back to a random sample of starting cards
// so a player can always sit down with something playable.
func Resolve(name string, list []string, rng *rand.Rand) []string {
	if len(list) > 0 {
		out := make([]string, len(list))
		copy(out, list)
		return out
	}
	if ids, ok := Premade[name]; ok {
		out := make([]string, len(ids))
		copy(out, ids)
		return out
	}
	pool := catalog.StartingCardIDs
	out := make([]string, DefaultRules.MinSize)
	for i := range out {
		out[i] = pool[rng.Intn(len(pool))]
	}
	return out
}

// Validate checks a resolved deck list against Rules. A failure is advisory:
// the caller reports the reason to the submitter but keeps them in the room.
func Validate(list []string, rules Rules) (bool, string) {
	if len(list) < rules.MinSize {
		return false, fmt.Sprintf("deck too small (min %d)", rules.MinSize)
	}
	if len(list) > rules.MaxSize {
		return false, fmt.Sprintf("deck too large (max %d)", rules.MaxSize)
	}
	counts := make(map[string]int, len(list))
	for _, id := range list {
		if !catalog.KnownCard(id) {
			return false, fmt.Sprintf("unknown card id: %s", id)
		}
		counts[id]++
		if counts[id] > rules.MaxCopies {
			return false, fmt.Sprintf("too many copies of %s (max %d)", id, rules.MaxCopies)
		}
	}
	return true, ""
}

// Deal samples n cards from the deck without replacement within the draw.
// Hands do not persist across turns, so each call starts from the full deck.
func Deal(deckList []string, n int, rng *rand.Rand) []string {
	pool := make([]string, len(deckList))
	copy(pool, deckList)
	if n > len(pool) {
		n = len(pool)
	}
	hand := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(len(pool))
		hand = append(hand, pool[idx])
		pool[idx] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return hand
}
