// Package ai provides the default computer opponent. It implements
// protocol.BattleClient directly and answers every request synchronously,
// so a battle never waits on it.
package ai

import (
	"math/rand"
	"sync"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// Options tunes the default strategy.
type Options struct {
	// Randomness is the percent chance of picking a random usable move
	// instead of the best-scoring one.
	Randomness int

	// HealBelow is the HP fraction under which a healing item is used, if
	// the bag has one. Zero never uses items.
	HealBelow float64

	// Seed seeds the client's random source.
	Seed int64
}

// Client is a computer-controlled observer.
type Client struct {
	reg  *dex.Registry
	opts Options

	mu     sync.Mutex
	rng    *rand.Rand
	team   party.TeamID
	own    party.PartyView
	foe    party.PartyView
	inbox  []protocol.ClientMessage
	ended  bool
	result protocol.End
}

// New creates an AI client that looks moves and items up in reg.
func New(reg *dex.Registry, opts Options) *Client {
	return &Client{
		reg:  reg,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
}

// Send reacts to a server message, queueing any reply.
func (c *Client) Send(msg protocol.ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch m := msg.(type) {
	case protocol.Begin:
		c.team = m.Team
	case protocol.StartSelecting:
		c.own, c.foe = m.Own, m.Opponent
		for slot, roster := range m.Own.Slots {
			if roster < 0 {
				continue
			}
			c.inbox = append(c.inbox, protocol.SelectAction{Slot: slot, Move: c.choose(slot)})
		}
	case protocol.EndTurnQueue:
		c.inbox = append(c.inbox, protocol.FinishedTurnQueue{})
	case protocol.RequestReplace:
		c.own = m.Own
		for _, slot := range m.Slots {
			roster, ok := c.pickReplacement()
			if !ok {
				break
			}
			c.inbox = append(c.inbox, protocol.FaintReplace{Slot: slot, Roster: roster})
			c.own.Slots[slot] = roster
		}
	case protocol.End:
		c.ended = true
		c.result = m
	}
}

// Receive pops the next queued reply.
func (c *Client) Receive() (protocol.ClientMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbox) == 0 {
		return nil, false
	}
	msg := c.inbox[0]
	c.inbox = c.inbox[1:]
	return msg, true
}

// Ended returns the End message once the battle is over.
func (c *Client) Ended() (protocol.End, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.ended
}

func (c *Client) choose(slot int) party.BattleMove {
	mon, _ := c.own.Active(slot)

	if item, ok := c.healingItem(mon); ok {
		return party.ItemAction{Item: item, Target: mon.Roster}
	}

	target, foe, hasTarget := c.firstOpponent()
	var usable []int
	for i, mv := range mon.Moves {
		if mv.PP > 0 {
			usable = append(usable, i)
		}
	}
	if len(usable) == 0 {
		return party.MoveAction{Slot: party.StruggleSlot, Target: target}
	}

	if c.opts.Randomness > 0 && c.rng.Intn(100) < c.opts.Randomness {
		return party.MoveAction{Slot: usable[c.rng.Intn(len(usable))], Target: target}
	}

	best, bestScore := usable[0], -1.0
	for _, i := range usable {
		score := c.score(mon, mon.Moves[i], foe, hasTarget)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return party.MoveAction{Slot: best, Target: target}
}

// score estimates a move's value: expected damage for attacks, a flat
// low value for status moves so they are used only when nothing hits.
func (c *Client) score(user party.PokemonView, mv party.MoveView, foe party.PokemonView, hasTarget bool) float64 {
	move, err := c.reg.Move(mv.ID)
	if err != nil {
		return 0
	}
	if move.Power <= 0 {
		return 1
	}
	s := float64(move.Power)
	if hasTarget {
		s *= c.reg.Effectiveness(move.Type, foe.Types)
	}
	for _, t := range user.Types {
		if t == move.Type {
			s *= 1.5
			break
		}
	}
	if move.Accuracy > 0 {
		s = s * float64(move.Accuracy) / 100
	}
	return s
}

func (c *Client) healingItem(mon party.PokemonView) (string, bool) {
	if c.opts.HealBelow <= 0 || mon.HPFraction() >= c.opts.HealBelow {
		return "", false
	}
	for _, entry := range c.own.Bag {
		item, err := c.reg.Item(entry.Item)
		if err != nil || entry.Count <= 0 {
			continue
		}
		if item.Kind == dex.ItemHeal {
			return item.ID, true
		}
	}
	return "", false
}

func (c *Client) firstOpponent() (party.PokemonIndex, party.PokemonView, bool) {
	for slot := range c.foe.Slots {
		if v, ok := c.foe.Active(slot); ok {
			return party.PokemonIndex{Team: c.foe.ID, Index: slot}, v, true
		}
	}
	return party.PokemonIndex{}, party.PokemonView{}, false
}

func (c *Client) pickReplacement() (int, bool) {
	active := make(map[int]bool, len(c.own.Slots))
	for _, r := range c.own.Slots {
		active[r] = true
	}
	for _, mon := range c.own.Roster {
		if !mon.Fainted && !active[mon.Roster] {
			return mon.Roster, true
		}
	}
	return 0, false
}

var _ protocol.BattleClient = (*Client)(nil)
