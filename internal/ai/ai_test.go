package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

func side(t *testing.T, reg *dex.Registry, id party.TeamID, mons ...party.SavedPokemon) *party.BattleParty {
	t.Helper()
	roster, err := party.AssembleAll(reg, mons)
	require.NoError(t, err)
	return party.New(id, nil, 1, roster)
}

func mon(species string, level int, moves ...string) party.SavedPokemon {
	s := party.SavedPokemon{Species: species, Level: level}
	for _, m := range moves {
		s.Moves = append(s.Moves, party.SavedMove{ID: m})
	}
	return s
}

func replies(c *Client) []protocol.ClientMessage {
	var out []protocol.ClientMessage
	for {
		msg, ok := c.Receive()
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

func TestPrefersSuperEffectiveMove(t *testing.T) {
	reg := testDex(t)
	own := side(t, reg, "ai", mon("squirtle", 20, "tackle", "water_gun"))
	foe := side(t, reg, "foe", mon("charmander", 20))

	c := New(reg, Options{})
	c.Send(protocol.Begin{Team: "ai", Opponent: "foe"})
	c.Send(protocol.StartSelecting{Turn: 1, Own: own.View(false), Opponent: foe.View(true)})

	got := replies(c)
	require.Len(t, got, 1)
	sel := got[0].(protocol.SelectAction)
	assert.Equal(t, 0, sel.Slot)
	assert.Equal(t, party.MoveAction{Slot: 1, Target: party.PokemonIndex{Team: "foe", Index: 0}}, sel.Move)
	assert.NoError(t, own.Validate(sel.Slot, sel.Move))
}

func TestStrugglesWithoutPP(t *testing.T) {
	reg := testDex(t)
	own := side(t, reg, "ai", mon("pidgey", 10, "tackle"))
	own.Roster[0].Moves[0].PP = 0
	foe := side(t, reg, "foe", mon("rattata", 10))

	c := New(reg, Options{})
	c.Send(protocol.StartSelecting{Own: own.View(false), Opponent: foe.View(true)})
	sel := replies(c)[0].(protocol.SelectAction)
	assert.Equal(t, party.StruggleSlot, sel.Move.(party.MoveAction).Slot)
}

func TestHealsWhenLow(t *testing.T) {
	reg := testDex(t)
	own := side(t, reg, "ai", mon("pidgey", 10, "tackle"))
	own.AddItem("potion", 1)
	own.Roster[0].HP = 2
	foe := side(t, reg, "foe", mon("rattata", 10))

	c := New(reg, Options{HealBelow: 0.25})
	c.Send(protocol.StartSelecting{Own: own.View(false), Opponent: foe.View(true)})
	sel := replies(c)[0].(protocol.SelectAction)
	assert.Equal(t, party.ItemAction{Item: "potion", Target: 0}, sel.Move)

	// Without a threshold items are never used.
	c = New(reg, Options{})
	c.Send(protocol.StartSelecting{Own: own.View(false), Opponent: foe.View(true)})
	sel = replies(c)[0].(protocol.SelectAction)
	assert.IsType(t, party.MoveAction{}, sel.Move)
}

func TestAcknowledgesAndReplaces(t *testing.T) {
	reg := testDex(t)
	own := side(t, reg, "ai", mon("pidgey", 10), mon("rattata", 10), mon("meowth", 10))
	own.Roster[0].HP = 0
	own.Roster[1].HP = 0
	own.Clear(0)

	c := New(reg, Options{})
	c.Send(protocol.TurnQueue{Turn: 1})
	c.Send(protocol.EndTurnQueue{Turn: 1})
	c.Send(protocol.RequestReplace{Slots: []int{0}, Own: own.View(false)})

	got := replies(c)
	require.Len(t, got, 2)
	assert.Equal(t, protocol.FinishedTurnQueue{}, got[0])
	assert.Equal(t, protocol.FaintReplace{Slot: 0, Roster: 2}, got[1])
}

func TestAIBattleRunsToCompletion(t *testing.T) {
	reg := testDex(t)
	a := New(reg, Options{Seed: 1, Randomness: 20, HealBelow: 0.3})
	b := New(reg, Options{Seed: 2, Randomness: 20})

	bt, err := battle.New(reg, battle.Options{Seed: 42},
		battle.BattleEntry{
			ID:     "alpha",
			Party:  []party.SavedPokemon{mon("bulbasaur", 15), mon("pikachu", 14)},
			Bag:    map[string]int{"potion": 2},
			Client: a,
		},
		battle.BattleEntry{
			ID:      "beta",
			Party:   []party.SavedPokemon{mon("geodude", 14), mon("pidgey", 15)},
			Trainer: &party.Trainer{Name: "Hiker", Worth: 200},
			Client:  b,
		},
	)
	require.NoError(t, err)

	res, ok := bt.RunSteps(time.Unix(0, 0), time.Second, 2000)
	require.True(t, ok, "battle did not finish")
	assert.Equal(t, protocol.EndDefeat, res.Reason)
	assert.Contains(t, []party.TeamID{"alpha", "beta", ""}, res.Winner)

	endA, ok := a.Ended()
	require.True(t, ok)
	endB, _ := b.Ended()
	assert.Equal(t, endA, endB)
	assert.Equal(t, res.Turns, endA.Turns)
}

func testDex(t *testing.T) *dex.Registry {
	t.Helper()
	reg, err := dex.Default()
	require.NoError(t, err)
	return reg
}
