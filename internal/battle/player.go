package battle

import (
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/engine"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// observer is one registered client and the battle's record of its state.
type observer struct {
	client  protocol.BattleClient
	tracker *protocol.Tracker
	team    party.TeamID // empty for spectators
	dropped bool
}

func newObserver(c protocol.BattleClient, team party.TeamID) *observer {
	return &observer{client: c, tracker: protocol.NewTracker(), team: team}
}

func (o *observer) send(msg protocol.ServerMessage) {
	if o.dropped {
		return
	}
	o.tracker.Server(msg)
	o.client.Send(msg)
}

// waiting reports whether the observer still owes FinishedTurnQueue.
// Observers that joined mid-turn never saw the TurnQueue and owe nothing.
func (o *observer) waiting() bool {
	return !o.dropped && o.tracker.State() == protocol.StateProcessTurnQueue
}

func (o *observer) disconnected() bool {
	d, ok := o.client.(protocol.Disconnector)
	if !ok {
		return false
	}
	select {
	case <-d.Done():
		return true
	default:
		return false
	}
}

// BattlePlayer is one side of a battle: its party, its controlling client
// and its settings.
type BattlePlayer struct {
	Party    *party.BattleParty
	Settings Settings

	obs *observer
}

// ID returns the side's team ID.
func (p *BattlePlayer) ID() party.TeamID {
	return p.Party.ID
}

// Controlled reports whether a client drives this side.
func (p *BattlePlayer) Controlled() bool {
	return p.obs != nil
}

// State returns the controlling client's protocol state. Uncontrolled
// sides are always finished.
func (p *BattlePlayer) State() protocol.ClientState {
	if p.obs == nil {
		return protocol.StateFinishedTurnQueue
	}
	return p.obs.tracker.State()
}

// DefaultAction picks an action for slot when its controller has not: a
// random move with PP left aimed at the first opponent, or Struggle.
func DefaultAction(side, opponent *party.BattleParty, slot int, rng engine.RNG) party.BattleMove {
	mon, ok := side.At(slot)
	if !ok {
		return nil
	}
	var target party.PokemonIndex
	if occupied := opponent.OccupiedSlots(); len(occupied) > 0 {
		target = opponent.Index(occupied[0])
	}

	usable := mon.UsableMoves()
	if len(usable) == 0 {
		return party.MoveAction{Slot: party.StruggleSlot, Target: target}
	}
	pick := usable[rng.Intn(len(usable))]
	if mon.Moves[pick].Move.Target == dex.TargetAlly {
		target = party.PokemonIndex{}
		for _, s := range side.OccupiedSlots() {
			if s != slot {
				target = side.Index(s)
				break
			}
		}
	}
	return party.MoveAction{Slot: pick, Target: target}
}

// fillDefaults sets a default action on every occupied slot without one.
func fillDefaults(side, opponent *party.BattleParty, rng engine.RNG) {
	for slot, active := range side.Active {
		if active == nil || active.Pending != nil {
			continue
		}
		active.Pending = DefaultAction(side, opponent, slot, rng)
	}
}

// fillReplacements sends the first benched combatants into empty slots.
func fillReplacements(side *party.BattleParty) []int {
	var filled []int
	for _, slot := range side.EmptySlots() {
		bench := side.Bench()
		if len(bench) == 0 {
			break
		}
		if err := side.Activate(slot, bench[0]); err == nil {
			filled = append(filled, slot)
		}
	}
	return filled
}
