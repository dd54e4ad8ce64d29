package engine

import (
	"sort"

	"github.com/vovakirdan/pokebattle/internal/party"
)

// Action is one entry of a resolved turn: who acts, which roster member was
// in the slot when the action was chosen, and what it does.
type Action struct {
	Actor  party.PokemonIndex
	Roster int
	Move   party.BattleMove
}

type bucket int

const (
	bucketFirst  bucket = iota // switches and items
	bucketSecond               // moves
)

type orderKey struct {
	action   Action
	bucket   bucket
	priority int8
	speed    int
}

// Resolve collects every occupied slot's pending action and returns them in
// execution order. Switches and items come first; moves follow by priority
// descending, then the actor's current speed descending. Remaining ties keep
// PokemonIndex order (team, then slot). Pending actions are cleared.
func Resolve(f *Field) []Action {
	var keys []orderKey

	for _, p := range f.Sides {
		for slot, active := range p.Active {
			if active == nil || active.Pending == nil {
				continue
			}
			mon := p.Roster[active.Roster]
			move := active.Pending
			active.Pending = nil
			if mon.Fainted() {
				continue
			}

			k := orderKey{
				action: Action{Actor: p.Index(slot), Roster: active.Roster, Move: move},
				bucket: bucketFirst,
				speed:  mon.Speed(),
			}
			if m, ok := move.(party.MoveAction); ok {
				k.bucket = bucketSecond
				if data := moveData(mon, m.Slot); data != nil {
					k.priority = data.Priority
				}
			}
			keys = append(keys, k)
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.bucket != b.bucket {
			return a.bucket < b.bucket
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if a.speed != b.speed {
			return a.speed > b.speed
		}
		return a.action.Actor.Less(b.action.Actor)
	})

	out := make([]Action, len(keys))
	for i, k := range keys {
		out[i] = k.action
	}
	return out
}

func sortIndices(idx []party.PokemonIndex) {
	sort.Slice(idx, func(i, j int) bool {
		return idx[i].Less(idx[j])
	})
}
