// Package party models one side of a battle: the roster of combatants, the
// fixed array of active slots that reference into it, the bag, and the
// actions a slot can submit each turn.
package party

import (
	"cmp"
	"fmt"
	"strings"
)

// TeamID identifies one side of a battle (a player, a trainer, a wild
// encounter). It is ordered so it can key deterministic structures.
type TeamID string

// PokemonIndex addresses one active slot across messages: a team and the
// slot position within that team's active array.
type PokemonIndex struct {
	Team  TeamID
	Index int
}

// Compare orders indices by team, then slot.
func (p PokemonIndex) Compare(o PokemonIndex) int {
	if c := strings.Compare(string(p.Team), string(o.Team)); c != 0 {
		return c
	}
	return cmp.Compare(p.Index, o.Index)
}

// Less reports whether p sorts before o.
func (p PokemonIndex) Less(o PokemonIndex) bool {
	return p.Compare(o) < 0
}

// IsZero reports whether the index was left unset.
func (p PokemonIndex) IsZero() bool {
	return p.Team == ""
}

func (p PokemonIndex) String() string {
	return fmt.Sprintf("%s#%d", p.Team, p.Index)
}
