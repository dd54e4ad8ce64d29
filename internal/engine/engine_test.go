package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
	"github.com/vovakirdan/pokebattle/internal/stats"
)

// scriptRNG returns scripted rolls, then n-1 forever: every accuracy check
// hits, no critical hit, maximum damage roll, no secondary effect.
type scriptRNG struct {
	rolls []int
}

func (r *scriptRNG) Intn(n int) int {
	if len(r.rolls) == 0 {
		return n - 1
	}
	v := r.rolls[0]
	r.rolls = r.rolls[1:]
	return v % n
}

func testRegistry() *dex.Registry {
	reg := dex.NewRegistry()
	reg.AddType("normal")
	reg.AddType("fire")
	reg.AddType("water")
	reg.AddType("electric")
	reg.AddType("ghost")
	reg.SetEffectiveness("water", "fire", 2)
	reg.SetEffectiveness("fire", "water", 0.5)
	reg.SetEffectiveness("normal", "ghost", 0)

	dmg := []dex.Effect{{Kind: dex.EffectDamage}}
	reg.AddMove(dex.Move{ID: "tackle", Name: "Tackle", Type: "normal", Category: dex.Physical, Power: 40, Accuracy: 100, PP: 35, Effects: dmg})
	reg.AddMove(dex.Move{ID: "quick", Name: "Quick", Type: "normal", Category: dex.Physical, Power: 40, Accuracy: 100, PP: 30, Priority: 1, Effects: dmg})
	reg.AddMove(dex.Move{ID: "wild", Name: "Wild Swing", Type: "normal", Category: dex.Physical, Power: 80, Accuracy: 50, PP: 10, Effects: dmg})
	reg.AddMove(dex.Move{ID: "splash_jet", Name: "Splash Jet", Type: "water", Category: dex.Special, Power: 40, Accuracy: 100, PP: 25, Effects: dmg})
	reg.AddMove(dex.Move{ID: "growl", Name: "Growl", Type: "normal", Category: dex.StatusMove, Accuracy: 100, PP: 40, Target: dex.TargetAllOpponents,
		Effects: []dex.Effect{{Kind: dex.EffectStatStage, Stat: stats.StageAttack, Stages: -1}}})
	reg.AddMove(dex.Move{ID: "zap", Name: "Zap", Type: "electric", Category: dex.StatusMove, Accuracy: 100, PP: 20,
		Effects: []dex.Effect{{Kind: dex.EffectStatus, Status: dex.StatusParalysis}}})
	reg.AddMove(dex.Move{ID: "sip", Name: "Sip", Type: "water", Category: dex.Special, Power: 40, Accuracy: 100, PP: 20,
		Effects: []dex.Effect{{Kind: dex.EffectDamage}, {Kind: dex.EffectDrain, Percent: 50}}})
	reg.AddMove(dex.Move{ID: "slam", Name: "Slam", Type: "normal", Category: dex.Physical, Power: 120, Accuracy: 100, PP: 15,
		Effects: []dex.Effect{{Kind: dex.EffectDamage}, {Kind: dex.EffectRecoil, Percent: 50}}})
	reg.AddMove(dex.Move{ID: "rest_up", Name: "Rest Up", Type: "normal", Category: dex.StatusMove, PP: 10, Target: dex.TargetUser,
		Effects: []dex.Effect{{Kind: dex.EffectHeal, Percent: 50}}})
	reg.AddMove(dex.Move{ID: "quake", Name: "Quake", Type: "normal", Category: dex.Physical, Power: 40, Accuracy: 100, PP: 10, Target: dex.TargetAllOthers, Effects: dmg})

	base := stats.StatSet{50, 50, 50, 50, 50, 50}
	moves := []string{"tackle", "quick", "wild", "growl"}
	reg.AddSpecies(dex.Species{ID: "normie", Name: "Normie", Types: []dex.Type{"normal"}, Base: base, ExpYield: 70, Learnset: moves})
	reg.AddSpecies(dex.Species{ID: "embers", Name: "Embers", Types: []dex.Type{"fire"}, Base: base, ExpYield: 70, Learnset: moves})
	reg.AddSpecies(dex.Species{ID: "puddle", Name: "Puddle", Types: []dex.Type{"water"}, Base: base, ExpYield: 70, Learnset: []string{"splash_jet", "sip", "zap", "rest_up"}})
	reg.AddSpecies(dex.Species{ID: "sparky", Name: "Sparky", Types: []dex.Type{"electric"}, Base: base, ExpYield: 70, Learnset: moves})
	reg.AddSpecies(dex.Species{ID: "spook", Name: "Spook", Types: []dex.Type{"ghost"}, Base: base, ExpYield: 70, Learnset: moves})

	return reg
}

func mon(species string, level int) party.SavedPokemon {
	return party.SavedPokemon{Species: species, Level: level}
}

func withMoves(s party.SavedPokemon, moves ...string) party.SavedPokemon {
	for _, m := range moves {
		s.Moves = append(s.Moves, party.SavedMove{ID: m})
	}
	return s
}

func buildField(t *testing.T, reg *dex.Registry, slots int, a, b []party.SavedPokemon) *Field {
	t.Helper()
	ra, err := party.AssembleAll(reg, a)
	require.NoError(t, err)
	rb, err := party.AssembleAll(reg, b)
	require.NoError(t, err)
	return NewField(party.New("alpha", nil, slots, ra), party.New("beta", nil, slots, rb))
}

func at(t *testing.T, f *Field, team party.TeamID, slot int) *party.BattlePartyPokemon {
	t.Helper()
	m, ok := f.Combatant(party.PokemonIndex{Team: team, Index: slot})
	require.True(t, ok, "no combatant at %s#%d", team, slot)
	return m
}

func idx(team party.TeamID, slot int) party.PokemonIndex {
	return party.PokemonIndex{Team: team, Index: slot}
}

func moveOutcome(t *testing.T, out []protocol.ActionInstance) protocol.ClientMoveAction {
	t.Helper()
	require.NotEmpty(t, out)
	mv, ok := out[len(out)-1].Action.(protocol.ClientMoveAction)
	require.True(t, ok, "expected ClientMoveAction, got %T", out[len(out)-1].Action)
	return mv
}

func TestResolveSpeedOrder(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 50)}, []party.SavedPokemon{mon("normie", 50)})
	at(t, f, "alpha", 0).Stats[stats.Speed] = 50
	at(t, f, "beta", 0).Stats[stats.Speed] = 100

	f.Sides[0].Active[0].Pending = party.MoveAction{Slot: 0}
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 0}

	order := Resolve(f)
	require.Len(t, order, 2)
	assert.Equal(t, idx("beta", 0), order[0].Actor)
	assert.Equal(t, idx("alpha", 0), order[1].Actor)

	assert.Nil(t, f.Sides[0].Active[0].Pending, "resolver consumes pending actions")
	assert.Nil(t, f.Sides[1].Active[0].Pending)
}

func TestResolvePriorityBeatsSpeed(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 50)}, []party.SavedPokemon{mon("normie", 50)})
	at(t, f, "alpha", 0).Stats[stats.Speed] = 10
	at(t, f, "beta", 0).Stats[stats.Speed] = 300

	f.Sides[0].Active[0].Pending = party.MoveAction{Slot: 1} // quick, priority 1
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 0}

	order := Resolve(f)
	require.Len(t, order, 2)
	assert.Equal(t, idx("alpha", 0), order[0].Actor)
}

func TestResolveStageModifiedSpeed(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 50)}, []party.SavedPokemon{mon("normie", 50)})
	at(t, f, "alpha", 0).Stats[stats.Speed] = 60
	at(t, f, "beta", 0).Stats[stats.Speed] = 100
	at(t, f, "alpha", 0).Stages.Change(stats.StageSpeed, 2) // 120

	f.Sides[0].Active[0].Pending = party.MoveAction{Slot: 0}
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 0}

	order := Resolve(f)
	assert.Equal(t, idx("alpha", 0), order[0].Actor)

	// Paralysis halves speed: 120 -> 60.
	at(t, f, "alpha", 0).Status = dex.StatusParalysis
	f.Sides[0].Active[0].Pending = party.MoveAction{Slot: 0}
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 0}
	order = Resolve(f)
	assert.Equal(t, idx("beta", 0), order[0].Actor)
}

func TestResolveSwitchBeforeMove(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1,
		[]party.SavedPokemon{mon("normie", 50), mon("embers", 50)},
		[]party.SavedPokemon{mon("normie", 50)})
	at(t, f, "alpha", 0).Stats[stats.Speed] = 1
	at(t, f, "beta", 0).Stats[stats.Speed] = 999

	f.Sides[0].Active[0].Pending = party.SwitchAction{Roster: 1}
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 1} // priority 1

	order := Resolve(f)
	require.Len(t, order, 2)
	assert.Equal(t, party.SwitchAction{Roster: 1}, order[0].Move)
	assert.Equal(t, idx("beta", 0), order[1].Actor)
}

func TestResolveTieUsesIndexOrderAndSkipsEmpty(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 2,
		[]party.SavedPokemon{mon("normie", 50), mon("normie", 50)},
		[]party.SavedPokemon{mon("normie", 50), mon("normie", 50)})
	for _, p := range f.Sides {
		for _, r := range p.Roster {
			r.Stats[stats.Speed] = 80
		}
	}

	f.Sides[1].Active[1].Pending = party.MoveAction{Slot: 0}
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 0}
	f.Sides[0].Active[1].Pending = party.MoveAction{Slot: 0}
	f.Sides[0].Clear(0) // empty slot is skipped

	order := Resolve(f)
	require.Len(t, order, 3)
	assert.Equal(t, idx("alpha", 1), order[0].Actor)
	assert.Equal(t, idx("beta", 0), order[1].Actor)
	assert.Equal(t, idx("beta", 1), order[2].Actor)

	// Same input, same output.
	f.Sides[1].Active[1].Pending = party.MoveAction{Slot: 0}
	f.Sides[1].Active[0].Pending = party.MoveAction{Slot: 0}
	f.Sides[0].Active[1].Pending = party.MoveAction{Slot: 0}
	assert.Equal(t, order, Resolve(f))
}

func TestExecuteDamageFormula(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("embers", 50)}, []party.SavedPokemon{mon("normie", 50)})
	user := at(t, f, "alpha", 0)
	target := at(t, f, "beta", 0)
	user.Stats[stats.Attack] = 100
	target.Stats[stats.Defense] = 100
	target.Stats[stats.HP] = 500
	target.HP = 500

	// hit, no crit, minimum roll: (22*40*100/100)/50+2 = 19, *0.85 = 16.
	p := NewPipeline(reg, f, &scriptRNG{rolls: []int{0, 23, 0}}, nil)
	p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	assert.Equal(t, 484, target.HP)

	// Maximum roll: 19.
	p = NewPipeline(reg, f, &scriptRNG{}, nil)
	p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	assert.Equal(t, 465, target.HP)

	assert.Equal(t, user.Moves[0].MaxPP-2, user.Moves[0].PP, "each use costs one PP")
}

func TestExecuteSTABAndBurn(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 50)}, []party.SavedPokemon{mon("normie", 50)})
	user := at(t, f, "alpha", 0)
	target := at(t, f, "beta", 0)
	user.Stats[stats.Attack] = 100
	target.Stats[stats.Defense] = 100
	target.Stats[stats.HP] = 500
	target.HP = 500

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	assert.Equal(t, 500-28, target.HP, "19 * 1.5 STAB")

	user.Status = dex.StatusBurn
	p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	assert.Equal(t, 500-28-14, target.HP, "burn halves physical damage")
}

func TestExecuteFaintsTargetAtOneHP(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1,
		[]party.SavedPokemon{mon("normie", 20)},
		[]party.SavedPokemon{mon("normie", 20), mon("normie", 20)})
	f.CanGainExp["alpha"] = true
	target := at(t, f, "beta", 0)
	target.HP = 1
	user := at(t, f, "alpha", 0)
	expBefore := user.Exp

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	out := p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})

	mv := moveOutcome(t, out)
	require.Len(t, mv.Targets, 1)
	atoms := mv.Targets[0].Atoms
	require.GreaterOrEqual(t, len(atoms), 2)
	assert.Equal(t, protocol.TargetHP{Fraction: 0}, atoms[0])
	assert.Equal(t, protocol.Faint{Index: idx("beta", 0)}, atoms[1])

	gain := ExpYield(target, false)
	assert.Contains(t, atoms, protocol.GainExp{Index: idx("alpha", 0), Amount: gain})
	assert.Equal(t, expBefore+gain, user.Exp)

	_, occupied := f.Sides[1].At(0)
	assert.False(t, occupied, "fainted combatant leaves its slot")
	assert.Len(t, f.Sides[1].Roster, 2, "fainted combatant stays in the roster")
}

func TestExecuteNoExpWhenDisabled(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 20)}, []party.SavedPokemon{mon("normie", 20)})
	at(t, f, "beta", 0).HP = 1

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}}))
	for _, a := range mv.Targets[0].Atoms {
		_, isExp := a.(protocol.GainExp)
		assert.False(t, isExp)
	}
}

func TestTrainerBattleExpBonus(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 20)}, []party.SavedPokemon{mon("normie", 20)})
	fainted := at(t, f, "beta", 0)
	assert.Equal(t, ExpYield(fainted, false)*3/2, ExpYield(fainted, true))
}

func TestExecuteMissIsOnlyMiss(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 50)}, []party.SavedPokemon{mon("normie", 50)})
	target := at(t, f, "beta", 0)
	hp := target.HP

	p := NewPipeline(reg, f, &scriptRNG{rolls: []int{99}}, nil)
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 2}})) // wild, 50%

	require.Len(t, mv.Targets, 1)
	assert.Equal(t, []protocol.ClientMove{protocol.Miss{}}, mv.Targets[0].Atoms)
	assert.Equal(t, hp, target.HP)
}

func TestCheckFaintIdempotent(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 20)}, []party.SavedPokemon{mon("normie", 20)})
	at(t, f, "beta", 0).HP = 0

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	first := p.CheckFaint(idx("beta", 0))
	require.NotEmpty(t, first)
	assert.Equal(t, protocol.Faint{Index: idx("beta", 0)}, first[0])

	assert.Empty(t, p.CheckFaint(idx("beta", 0)))
	assert.Empty(t, p.CheckFaint(idx("beta", 0)))
	assert.Empty(t, p.CheckFaint(idx("alpha", 0)), "healthy combatants never faint")
}

func TestExecuteDropsStaleActions(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1,
		[]party.SavedPokemon{mon("normie", 20), mon("embers", 20)},
		[]party.SavedPokemon{mon("normie", 20)})
	p := NewPipeline(reg, f, &scriptRNG{}, nil)

	// Occupant changed since the action was chosen.
	require.NoError(t, f.Sides[0].Activate(0, 1))
	assert.Nil(t, p.Execute(Action{Actor: idx("alpha", 0), Roster: 0, Move: party.MoveAction{Slot: 0}}))

	// Actor fainted earlier in the turn.
	at(t, f, "beta", 0).HP = 0
	p.CheckFaint(idx("beta", 0))
	assert.Nil(t, p.Execute(Action{Actor: idx("beta", 0), Roster: 0, Move: party.MoveAction{Slot: 0}}))
}

func TestExecuteRetargetsEmptiedSlot(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 2,
		[]party.SavedPokemon{mon("normie", 30), mon("normie", 30)},
		[]party.SavedPokemon{mon("normie", 30), mon("normie", 30)})
	f.Sides[1].Clear(0)

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	mv := moveOutcome(t, p.Execute(Action{
		Actor: idx("alpha", 0),
		Move:  party.MoveAction{Slot: 0, Target: idx("beta", 0)},
	}))
	require.Len(t, mv.Targets, 1)
	assert.Equal(t, idx("beta", 1), mv.Targets[0].Target)
}

func TestExecuteSpreadMoves(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 2,
		[]party.SavedPokemon{withMoves(mon("normie", 30), "growl", "quake"), mon("normie", 30)},
		[]party.SavedPokemon{mon("normie", 30), mon("normie", 30)})
	p := NewPipeline(reg, f, &scriptRNG{}, nil)

	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}}))
	require.Len(t, mv.Targets, 2)
	for _, tgt := range mv.Targets {
		assert.Equal(t, party.TeamID("beta"), tgt.Target.Team)
		assert.Equal(t, []protocol.ClientMove{protocol.StatStage{Stat: stats.StageAttack, Delta: -1}}, tgt.Atoms)
	}

	mv = moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 1}}))
	require.Len(t, mv.Targets, 3, "hits both opponents and the ally")
	assert.Equal(t, idx("alpha", 1), mv.Targets[2].Target)
}

func TestExecuteEffectivenessAndCritAtoms(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("puddle", 40)}, []party.SavedPokemon{mon("embers", 40)})
	at(t, f, "beta", 0).Stats[stats.HP] = 999
	at(t, f, "beta", 0).HP = 999

	// hit, crit, max roll
	p := NewPipeline(reg, f, &scriptRNG{rolls: []int{0, 0}}, nil)
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}}))
	atoms := mv.Targets[0].Atoms
	require.Len(t, atoms, 3)
	assert.IsType(t, protocol.TargetHP{}, atoms[0])
	assert.Equal(t, protocol.Effective{Tier: protocol.SuperEffective}, atoms[1])
	assert.Equal(t, protocol.Critical{}, atoms[2])
}

func TestExecuteImmunity(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 40)}, []party.SavedPokemon{mon("spook", 40)})
	target := at(t, f, "beta", 0)
	hp := target.HP

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}}))
	assert.Equal(t, []protocol.ClientMove{protocol.Effective{Tier: protocol.NoEffect}}, mv.Targets[0].Atoms)
	assert.Equal(t, hp, target.HP)
}

func TestStatStageAtBoundReportsZero(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 40)}, []party.SavedPokemon{mon("normie", 40)})
	at(t, f, "beta", 0).Stages.Change(stats.StageAttack, -6)

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 3}}))
	assert.Equal(t, []protocol.ClientMove{protocol.StatStage{Stat: stats.StageAttack, Delta: 0}}, mv.Targets[0].Atoms)
	assert.Equal(t, stats.MinStage, at(t, f, "beta", 0).Stages.Get(stats.StageAttack))
}

func TestStatusMoveAndTypeImmunity(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1,
		[]party.SavedPokemon{mon("puddle", 40)},
		[]party.SavedPokemon{mon("normie", 40), mon("sparky", 40)})
	p := NewPipeline(reg, f, &scriptRNG{}, nil)

	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 2}}))
	assert.Equal(t, []protocol.ClientMove{protocol.StatusChange{Status: dex.StatusParalysis}}, mv.Targets[0].Atoms)
	assert.Equal(t, dex.StatusParalysis, at(t, f, "beta", 0).Status)

	// Already paralysed: the status move fails.
	mv = moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 2}}))
	assert.Equal(t, []protocol.ClientMove{protocol.Fail{}}, mv.Targets[0].Atoms)

	// Electric types cannot be paralysed.
	require.NoError(t, f.Sides[1].Activate(0, 1))
	mv = moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 2}}))
	assert.Equal(t, []protocol.ClientMove{protocol.Fail{}}, mv.Targets[0].Atoms)
}

func TestParalysisAndSleepBlockMoves(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 40)}, []party.SavedPokemon{mon("normie", 40)})
	user := at(t, f, "alpha", 0)
	target := at(t, f, "beta", 0)
	hp := target.HP

	user.Status = dex.StatusParalysis
	p := NewPipeline(reg, f, &scriptRNG{rolls: []int{0}}, nil)
	out := p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	require.Len(t, out, 1)
	assert.Equal(t, protocol.ClientStatusAction{Status: dex.StatusParalysis, Blocked: true}, out[0].Action)
	assert.Equal(t, hp, target.HP)
	assert.Equal(t, user.Moves[0].MaxPP, user.Moves[0].PP, "a blocked move costs no PP")

	user.Status = dex.StatusSleep
	user.SleepTurns = 2
	out = p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	require.Len(t, out, 1)
	assert.Equal(t, protocol.ClientStatusAction{Status: dex.StatusSleep, Blocked: true}, out[0].Action)

	out = p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 0}})
	require.Len(t, out, 2)
	assert.Equal(t, protocol.ClientStatusAction{Status: dex.StatusSleep}, out[0].Action, "woke up")
	assert.Equal(t, dex.StatusNone, user.Status)
	assert.Less(t, target.HP, hp)
}

func TestDrainRecoilAndHeal(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1,
		[]party.SavedPokemon{mon("puddle", 40)},
		[]party.SavedPokemon{withMoves(mon("normie", 40), "slam")})
	user := at(t, f, "alpha", 0)
	foe := at(t, f, "beta", 0)
	p := NewPipeline(reg, f, &scriptRNG{}, nil)

	user.HP = 1
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 1}})) // sip
	assert.IsType(t, protocol.UserHP{}, mv.Targets[0].Atoms[1])
	assert.Greater(t, user.HP, 1)

	user.HP = user.MaxHP() / 4
	mv = moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 3}})) // rest_up
	assert.Equal(t, idx("alpha", 0), mv.Targets[0].Target)
	assert.IsType(t, protocol.TargetHP{}, mv.Targets[0].Atoms[0])
	assert.Equal(t, user.MaxHP()/4+user.MaxHP()/2, user.HP)

	user.HP = user.MaxHP()
	mv = moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: 3}}))
	assert.Equal(t, []protocol.ClientMove{protocol.Fail{}}, mv.Targets[0].Atoms, "healing at full HP fails")

	foe.HP = 1
	hpBefore := user.HP
	mv = moveOutcome(t, p.Execute(Action{Actor: idx("beta", 0), Move: party.MoveAction{Slot: 0}})) // slam
	assert.IsType(t, protocol.UserHP{}, mv.Targets[0].Atoms[1])
	assert.Contains(t, mv.Targets[0].Atoms, protocol.Faint{Index: idx("beta", 0)}, "recoil can knock out the user")
	assert.Less(t, user.HP, hpBefore)
}

func TestExecuteSwitchAndItems(t *testing.T) {
	reg := testRegistry()
	reg.AddItem(dex.Item{ID: "potion", Name: "Potion", Kind: dex.ItemHeal, Amount: 20})
	reg.AddItem(dex.Item{ID: "x_attack", Name: "X Attack", Kind: dex.ItemBoost, Stat: stats.StageAttack, Stages: 1})
	reg.AddItem(dex.Item{ID: "full_heal", Name: "Full Heal", Kind: dex.ItemCure})

	f := buildField(t, reg, 1,
		[]party.SavedPokemon{mon("normie", 40), mon("embers", 40)},
		[]party.SavedPokemon{mon("normie", 40)})
	own := f.Sides[0]
	own.AddItem("potion", 1)
	own.AddItem("x_attack", 1)
	own.AddItem("full_heal", 1)
	p := NewPipeline(reg, f, &scriptRNG{}, nil)

	out := p.Execute(Action{Actor: idx("alpha", 0), Move: party.SwitchAction{Roster: 1}})
	require.Len(t, out, 1)
	assert.Equal(t, protocol.ClientSwitchAction{From: 0, To: 1, Name: "Embers"}, out[0].Action)
	assert.Equal(t, 1, own.Active[0].Roster)

	// Heal the benched combatant.
	own.Roster[0].HP = 5
	out = p.Execute(Action{Actor: idx("alpha", 0), Roster: 1, Move: party.ItemAction{Item: "potion", Target: 0}})
	require.Len(t, out, 1)
	item := out[0].Action.(protocol.ClientItemAction)
	assert.IsType(t, protocol.TargetHP{}, item.Atoms[0])
	assert.Equal(t, 25, own.Roster[0].HP)
	assert.False(t, own.HasItem("potion"))

	out = p.Execute(Action{Actor: idx("alpha", 0), Roster: 1, Move: party.ItemAction{Item: "x_attack", Target: 1}})
	item = out[0].Action.(protocol.ClientItemAction)
	assert.Equal(t, []protocol.ClientMove{protocol.StatStage{Stat: stats.StageAttack, Delta: 1}}, item.Atoms)

	// Nothing to cure: the item fails and stays in the bag.
	out = p.Execute(Action{Actor: idx("alpha", 0), Roster: 1, Move: party.ItemAction{Item: "full_heal", Target: 1}})
	item = out[0].Action.(protocol.ClientItemAction)
	assert.Equal(t, []protocol.ClientMove{protocol.Fail{}}, item.Atoms)
	assert.True(t, own.HasItem("full_heal"))
}

func TestResidualDamage(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 40)}, []party.SavedPokemon{mon("normie", 40)})
	poisoned := at(t, f, "beta", 0)
	poisoned.Status = dex.StatusPoison
	poisoned.HP = 1

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	out := p.Residual()
	require.Len(t, out, 1)
	assert.Equal(t, idx("beta", 0), out[0].Actor)
	res := out[0].Action.(protocol.ClientResidualAction)
	assert.Equal(t, dex.StatusPoison, res.Status)
	assert.Equal(t, []protocol.ClientMove{protocol.UserHP{Fraction: 0}, protocol.Faint{Index: idx("beta", 0)}}, res.Atoms)

	assert.Empty(t, p.Residual(), "fainted combatants take no further residual damage")
}

func TestStruggleWhenOutOfPP(t *testing.T) {
	reg := testRegistry()
	f := buildField(t, reg, 1, []party.SavedPokemon{mon("normie", 40)}, []party.SavedPokemon{mon("normie", 40)})
	user := at(t, f, "alpha", 0)
	for i := range user.Moves {
		user.Moves[i].PP = 0
	}
	hp := user.HP

	p := NewPipeline(reg, f, &scriptRNG{}, nil)
	mv := moveOutcome(t, p.Execute(Action{Actor: idx("alpha", 0), Move: party.MoveAction{Slot: party.StruggleSlot}}))
	assert.Equal(t, "struggle", mv.Move)
	assert.Less(t, user.HP, hp, "struggle recoils")
}
