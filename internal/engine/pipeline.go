package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// struggle is used when a combatant has no PP left on any move.
var struggle = &dex.Move{
	ID:       "struggle",
	Name:     "Struggle",
	Category: dex.Physical,
	Power:    50,
	Target:   dex.TargetOpponent,
	Effects: []dex.Effect{
		{Kind: dex.EffectDamage},
		{Kind: dex.EffectRecoil, Percent: 25},
	},
}

// paralysisChance is the percent chance a paralysed combatant cannot move.
const paralysisChance = 25

func moveData(mon *party.BattlePartyPokemon, slot int) *dex.Move {
	if slot == party.StruggleSlot {
		return struggle
	}
	if slot < 0 || slot >= len(mon.Moves) {
		return nil
	}
	return mon.Moves[slot].Move
}

// Pipeline executes resolved actions against a field.
type Pipeline struct {
	reg    *dex.Registry
	field  *Field
	rng    RNG
	logger *log.Logger
}

// NewPipeline creates a pipeline. A nil logger discards output.
func NewPipeline(reg *dex.Registry, field *Field, rng RNG, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{reg: reg, field: field, rng: rng, logger: logger}
}

// Field returns the field the pipeline operates on.
func (p *Pipeline) Field() *Field {
	return p.field
}

// Execute runs one action and returns its outcome records, in order. An
// action whose actor fainted or left its slot earlier in the turn is
// dropped and produces nothing.
func (p *Pipeline) Execute(a Action) []protocol.ActionInstance {
	side := p.field.Party(a.Actor.Team)
	if side == nil {
		return nil
	}
	active := side.Active
	if a.Actor.Index < 0 || a.Actor.Index >= len(active) || active[a.Actor.Index] == nil ||
		active[a.Actor.Index].Roster != a.Roster || side.Roster[a.Roster].Fainted() {
		p.logger.Debug("dropping stale action", "actor", a.Actor)
		return nil
	}
	if err := side.Validate(a.Actor.Index, a.Move); err != nil {
		p.logger.Debug("dropping invalid action", "actor", a.Actor, "err", err)
		return nil
	}

	switch m := a.Move.(type) {
	case party.SwitchAction:
		return p.executeSwitch(side, a.Actor, m)
	case party.ItemAction:
		return p.executeItem(side, a.Actor, m)
	case party.MoveAction:
		return p.executeMove(side, a.Actor, m)
	}
	return nil
}

func (p *Pipeline) executeSwitch(side *party.BattleParty, actor party.PokemonIndex, m party.SwitchAction) []protocol.ActionInstance {
	from := side.Active[actor.Index].Roster
	if err := side.Activate(actor.Index, m.Roster); err != nil {
		p.logger.Debug("switch rejected", "actor", actor, "err", err)
		return nil
	}
	return []protocol.ActionInstance{{
		Actor: actor,
		Action: protocol.ClientSwitchAction{
			From: from,
			To:   m.Roster,
			Name: side.Roster[m.Roster].Name(),
		},
	}}
}

func (p *Pipeline) executeItem(side *party.BattleParty, actor party.PokemonIndex, m party.ItemAction) []protocol.ActionInstance {
	item, err := p.reg.Item(m.Item)
	if err != nil {
		p.logger.Debug("unknown item", "item", m.Item)
		return nil
	}
	target := side.Roster[m.Target]

	var atoms []protocol.ClientMove
	used := false
	switch item.Kind {
	case dex.ItemHeal:
		if target.Heal(item.Amount) > 0 {
			atoms = append(atoms, protocol.TargetHP{Fraction: target.HPFraction()})
			used = true
		}
	case dex.ItemCure:
		if target.Status != dex.StatusNone && !target.Fainted() &&
			(item.Cures == dex.StatusNone || item.Cures == target.Status) {
			target.Status = dex.StatusNone
			target.SleepTurns = 0
			atoms = append(atoms, protocol.StatusChange{Status: dex.StatusNone})
			used = true
		}
	case dex.ItemBoost:
		if _, active := side.SlotOf(m.Target); active {
			delta := target.Stages.Change(item.Stat, item.Stages)
			atoms = append(atoms, protocol.StatStage{Stat: item.Stat, Delta: delta})
			used = delta != 0
		}
	}

	if used {
		side.TakeItem(m.Item)
	} else {
		atoms = []protocol.ClientMove{protocol.Fail{}}
	}

	return []protocol.ActionInstance{{
		Actor:  actor,
		Action: protocol.ClientItemAction{Item: m.Item, Target: m.Target, Atoms: atoms},
	}}
}

func (p *Pipeline) executeMove(side *party.BattleParty, actor party.PokemonIndex, m party.MoveAction) []protocol.ActionInstance {
	user, _ := side.At(actor.Index)
	move := moveData(user, m.Slot)
	if move == nil {
		return nil
	}

	var out []protocol.ActionInstance
	if blocked, inst := p.checkStatus(actor, user); inst != nil {
		out = append(out, *inst)
		if blocked {
			return out
		}
	}

	if m.Slot != party.StruggleSlot {
		user.Moves[m.Slot].PP--
	}

	targets := p.ResolveTargets(actor, move.Target, m.Target)
	if len(targets) == 0 {
		return append(out, protocol.ActionInstance{
			Actor: actor,
			Action: protocol.ClientMoveAction{
				Move:    move.ID,
				Targets: []protocol.TargetOutcome{{Target: actor, Atoms: []protocol.ClientMove{protocol.Fail{}}}},
			},
		})
	}

	result := protocol.ClientMoveAction{Move: move.ID}
	for _, idx := range targets {
		atoms := p.applyToTarget(actor, idx, move)
		if len(atoms) == 0 {
			atoms = []protocol.ClientMove{protocol.Fail{}}
		}
		result.Targets = append(result.Targets, protocol.TargetOutcome{Target: idx, Atoms: atoms})
		if user.Fainted() {
			// Recoil knocked the user out; remaining targets are spared.
			break
		}
	}

	return append(out, protocol.ActionInstance{Actor: actor, Action: result})
}

// checkStatus applies sleep and paralysis before a move. It returns an
// outcome when the status acted, and whether the move is prevented.
func (p *Pipeline) checkStatus(actor party.PokemonIndex, user *party.BattlePartyPokemon) (bool, *protocol.ActionInstance) {
	switch user.Status {
	case dex.StatusSleep:
		if user.SleepTurns > 0 {
			user.SleepTurns--
		}
		if user.SleepTurns > 0 {
			return true, &protocol.ActionInstance{
				Actor:  actor,
				Action: protocol.ClientStatusAction{Status: dex.StatusSleep, Blocked: true},
			}
		}
		user.Status = dex.StatusNone
		return false, &protocol.ActionInstance{
			Actor:  actor,
			Action: protocol.ClientStatusAction{Status: dex.StatusSleep},
		}
	case dex.StatusParalysis:
		if p.rng.Intn(100) < paralysisChance {
			return true, &protocol.ActionInstance{
				Actor:  actor,
				Action: protocol.ClientStatusAction{Status: dex.StatusParalysis, Blocked: true},
			}
		}
	}
	return false, nil
}

// ResolveTargets expands a move's target kind into the slots occupied right
// now. A chosen single target that has since emptied falls back to the
// first occupied candidate.
func (p *Pipeline) ResolveTargets(actor party.PokemonIndex, kind dex.TargetKind, chosen party.PokemonIndex) []party.PokemonIndex {
	own := p.field.Party(actor.Team)
	opp := p.field.Opponent(actor.Team)

	var opponents, allies []party.PokemonIndex
	for _, slot := range opp.OccupiedSlots() {
		opponents = append(opponents, opp.Index(slot))
	}
	for _, slot := range own.OccupiedSlots() {
		if slot != actor.Index {
			allies = append(allies, own.Index(slot))
		}
	}

	pickOne := func(candidates []party.PokemonIndex) []party.PokemonIndex {
		for _, c := range candidates {
			if c == chosen {
				return []party.PokemonIndex{c}
			}
		}
		if len(candidates) == 0 {
			return nil
		}
		return candidates[:1]
	}

	switch kind {
	case dex.TargetUser:
		return []party.PokemonIndex{actor}
	case dex.TargetOpponent:
		return pickOne(opponents)
	case dex.TargetAllOpponents:
		return opponents
	case dex.TargetAllOthers:
		return append(opponents, allies...)
	case dex.TargetAlly:
		return pickOne(allies)
	}
	return nil
}

// applyToTarget runs the hit check and every effect of move against one
// target, then checks for fainting.
func (p *Pipeline) applyToTarget(actor, idx party.PokemonIndex, move *dex.Move) []protocol.ClientMove {
	user, _ := p.field.Combatant(actor)
	target, ok := p.field.Combatant(idx)
	if !ok {
		return nil
	}

	if idx != actor && !p.hits(user, target, move) {
		return []protocol.ClientMove{protocol.Miss{}}
	}

	var atoms []protocol.ClientMove
	dealt := 0
	primary := move.Category == dex.StatusMove

effects:
	for _, eff := range move.Effects {
		if eff.Chance > 0 && p.rng.Intn(100) >= eff.Chance {
			continue
		}

		switch eff.Kind {
		case dex.EffectDamage:
			res := p.damage(user, target, move)
			if res.mult == 0 {
				atoms = append(atoms, protocol.Effective{Tier: protocol.NoEffect})
				break effects
			}
			dealt = target.Damage(res.amount)
			atoms = append(atoms, protocol.TargetHP{Fraction: target.HPFraction()})
			if tier := protocol.EffectivenessOf(res.mult); tier != protocol.Normal {
				atoms = append(atoms, protocol.Effective{Tier: tier})
			}
			if res.crit {
				atoms = append(atoms, protocol.Critical{})
			}

		case dex.EffectStatStage:
			who := target
			if eff.Self {
				who = user
			}
			if who.Fainted() {
				continue
			}
			delta := who.Stages.Change(eff.Stat, eff.Stages)
			atoms = append(atoms, protocol.StatStage{Stat: eff.Stat, Delta: delta, Self: eff.Self})

		case dex.EffectStatus:
			who := target
			if eff.Self {
				who = user
			}
			if !canInflict(who, eff.Status) {
				if primary {
					atoms = append(atoms, protocol.Fail{})
				}
				continue
			}
			who.Status = eff.Status
			if eff.Status == dex.StatusSleep {
				who.SleepTurns = 2 + p.rng.Intn(3)
			}
			atoms = append(atoms, protocol.StatusChange{Status: eff.Status})

		case dex.EffectDrain:
			if dealt > 0 && user.Heal(max(1, dealt*eff.Percent/100)) > 0 {
				atoms = append(atoms, protocol.UserHP{Fraction: user.HPFraction()})
			}

		case dex.EffectRecoil:
			if dealt > 0 {
				user.Damage(max(1, dealt*eff.Percent/100))
				atoms = append(atoms, protocol.UserHP{Fraction: user.HPFraction()})
			}

		case dex.EffectHeal:
			if target.Heal(target.MaxHP()*eff.Percent/100) > 0 {
				atoms = append(atoms, protocol.TargetHP{Fraction: target.HPFraction()})
			} else if primary {
				atoms = append(atoms, protocol.Fail{})
			}
		}
	}

	atoms = append(atoms, p.CheckFaint(idx)...)
	if idx != actor {
		atoms = append(atoms, p.CheckFaint(actor)...)
	}
	return atoms
}

func canInflict(mon *party.BattlePartyPokemon, status dex.Status) bool {
	if mon.Fainted() || mon.Status != dex.StatusNone {
		return false
	}
	switch status {
	case dex.StatusBurn:
		return !mon.HasType("fire")
	case dex.StatusPoison:
		return !mon.HasType("poison")
	case dex.StatusParalysis:
		return !mon.HasType("electric")
	}
	return true
}

// CheckFaint clears the slot of a combatant whose HP reached 0 and reports
// Faint plus any experience awarded. Once the slot is empty it reports
// nothing, so repeated calls are harmless.
func (p *Pipeline) CheckFaint(idx party.PokemonIndex) []protocol.ClientMove {
	side := p.field.Party(idx.Team)
	if side == nil {
		return nil
	}
	mon, ok := side.At(idx.Index)
	if !ok || !mon.Fainted() {
		return nil
	}

	side.Clear(idx.Index)
	mon.Status = dex.StatusNone
	p.logger.Debug("fainted", "index", idx, "name", mon.Name())

	atoms := []protocol.ClientMove{protocol.Faint{Index: idx}}
	return append(atoms, p.awardExp(idx.Team, mon)...)
}

// Residual applies end-of-turn status damage to every active combatant in
// PokemonIndex order.
func (p *Pipeline) Residual() []protocol.ActionInstance {
	var out []protocol.ActionInstance
	for _, idx := range p.field.Active() {
		mon, ok := p.field.Combatant(idx)
		if !ok {
			continue
		}
		if mon.Status != dex.StatusPoison && mon.Status != dex.StatusBurn {
			continue
		}
		status := mon.Status
		mon.Damage(max(1, mon.MaxHP()/8))
		atoms := []protocol.ClientMove{protocol.UserHP{Fraction: mon.HPFraction()}}
		atoms = append(atoms, p.CheckFaint(idx)...)
		out = append(out, protocol.ActionInstance{
			Actor:  idx,
			Action: protocol.ClientResidualAction{Status: status, Atoms: atoms},
		})
	}
	return out
}
