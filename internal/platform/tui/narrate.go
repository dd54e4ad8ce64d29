package tui

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
	"github.com/vovakirdan/pokebattle/internal/stats"
)

// step is one line of battle text and the changes revealed with it.
type step struct {
	text  string
	hp    []hpChange
	slots []slotChange
}

// hpChange moves one roster member's displayed HP.
type hpChange struct {
	team     party.TeamID
	roster   int
	fraction float64
}

// narrate turns one executed action into lines of battle text.
func (m *BattleModel) narrate(inst protocol.ActionInstance) []step {
	actor := m.nameAt(inst.Actor)

	switch a := inst.Action.(type) {
	case protocol.ClientMoveAction:
		steps := []step{{text: fmt.Sprintf("%s used %s!", actor, m.moveName(a.Move))}}
		for _, t := range a.Targets {
			steps = append(steps, m.narrateAtoms(inst.Actor, t.Target, t.Atoms)...)
		}
		return steps

	case protocol.ClientSwitchAction:
		team := m.teamName(inst.Actor.Team)
		if inst.Actor.Team == m.team {
			return []step{{text: fmt.Sprintf("Come back, %s! Go, %s!", m.nameOf(inst.Actor.Team, a.From), a.Name)}}
		}
		return []step{{text: fmt.Sprintf("%s sent out %s!", team, a.Name)}}

	case protocol.ClientItemAction:
		target := m.nameOf(inst.Actor.Team, a.Target)
		steps := []step{{text: fmt.Sprintf("%s used %s on %s!", m.teamName(inst.Actor.Team), m.itemName(a.Item), target)}}
		for _, atom := range a.Atoms {
			switch at := atom.(type) {
			case protocol.TargetHP:
				steps[len(steps)-1].hp = append(steps[len(steps)-1].hp, hpChange{team: inst.Actor.Team, roster: a.Target, fraction: at.Fraction})
			case protocol.StatusChange:
				steps = append(steps, step{text: statusText(target, at.Status)})
			case protocol.StatStage:
				steps = append(steps, step{text: stageText(target, at.Stat, at.Delta)})
			case protocol.Fail:
				steps = append(steps, step{text: "But it had no effect."})
			}
		}
		return steps

	case protocol.ClientStatusAction:
		if a.Blocked {
			switch a.Status {
			case dex.StatusSleep:
				return []step{{text: fmt.Sprintf("%s is fast asleep.", actor)}}
			default:
				return []step{{text: fmt.Sprintf("%s is paralyzed! It can't move!", actor)}}
			}
		}
		if a.Status == dex.StatusSleep {
			return []step{{text: fmt.Sprintf("%s woke up!", actor)}}
		}
		return []step{{text: fmt.Sprintf("%s is no longer affected by %s.", actor, a.Status)}}

	case protocol.ClientResidualAction:
		return m.narrateAtoms(inst.Actor, inst.Actor, a.Atoms, step{
			text: fmt.Sprintf("%s is hurt by %s!", actor, residualName(a.Status)),
		})
	}
	return nil
}

// narrateAtoms reports the atoms produced for one target. A lead step, if
// given, receives the first HP changes.
func (m *BattleModel) narrateAtoms(actor, target party.PokemonIndex, atoms []protocol.ClientMove, lead ...step) []step {
	steps := append([]step(nil), lead...)
	name := m.nameAt(target)

	// HP changes ride on the previous line so bars move as it appears.
	attach := func(idx party.PokemonIndex, fraction float64) {
		if len(steps) == 0 {
			steps = append(steps, step{})
		}
		roster, ok := m.rosterAt(idx)
		if !ok {
			return
		}
		last := &steps[len(steps)-1]
		last.hp = append(last.hp, hpChange{team: idx.Team, roster: roster, fraction: fraction})
	}

	for _, atom := range atoms {
		switch a := atom.(type) {
		case protocol.Miss:
			steps = append(steps, step{text: fmt.Sprintf("%s avoided the attack!", name)})
		case protocol.TargetHP:
			attach(target, a.Fraction)
		case protocol.UserHP:
			attach(actor, a.Fraction)
		case protocol.Effective:
			if text := a.Tier.String(); text != "" {
				steps = append(steps, step{text: text})
			}
		case protocol.Critical:
			steps = append(steps, step{text: "A critical hit!"})
		case protocol.StatStage:
			subject := name
			if a.Self {
				subject = m.nameAt(actor)
			}
			steps = append(steps, step{text: stageText(subject, a.Stat, a.Delta)})
		case protocol.Faint:
			steps = append(steps, step{
				text:  fmt.Sprintf("%s fainted!", m.nameAt(a.Index)),
				slots: []slotChange{{idx: a.Index, roster: -1}},
			})
		case protocol.GainExp:
			steps = append(steps, step{text: fmt.Sprintf("%s gained %d Exp. Points!", m.nameAt(a.Index), a.Amount)})
		case protocol.LevelUp:
			steps = append(steps, step{text: fmt.Sprintf("%s grew to Lv. %d!", m.nameAt(a.Index), a.Level)})
		case protocol.StatusChange:
			steps = append(steps, step{text: statusText(name, a.Status)})
		case protocol.Fail:
			steps = append(steps, step{text: "But it failed!"})
		}
	}
	return steps
}

func stageText(subject string, stat stats.StageStat, delta int8) string {
	switch {
	case delta >= 2:
		return fmt.Sprintf("%s's %s rose sharply!", subject, stat)
	case delta == 1:
		return fmt.Sprintf("%s's %s rose!", subject, stat)
	case delta == -1:
		return fmt.Sprintf("%s's %s fell!", subject, stat)
	case delta <= -2:
		return fmt.Sprintf("%s's %s harshly fell!", subject, stat)
	default:
		return fmt.Sprintf("%s's %s won't go any further!", subject, stat)
	}
}

func statusText(subject string, s dex.Status) string {
	switch s {
	case dex.StatusNone:
		return fmt.Sprintf("%s was cured!", subject)
	case dex.StatusBurn:
		return fmt.Sprintf("%s was burned!", subject)
	case dex.StatusParalysis:
		return fmt.Sprintf("%s is paralyzed! It may be unable to move!", subject)
	case dex.StatusSleep:
		return fmt.Sprintf("%s fell asleep!", subject)
	case dex.StatusPoison:
		return fmt.Sprintf("%s was poisoned!", subject)
	default:
		return fmt.Sprintf("%s is %s.", subject, s)
	}
}

func residualName(s dex.Status) string {
	switch s {
	case dex.StatusBurn:
		return "its burn"
	case dex.StatusPoison:
		return "poison"
	default:
		return s.String()
	}
}

func endText(end protocol.End, own party.TeamID, names func(party.TeamID) string) string {
	switch {
	case end.Winner == "":
		return "The battle ended in a draw."
	case own == "":
		return fmt.Sprintf("%s won the battle!", names(end.Winner))
	case end.Winner == own:
		switch end.Reason {
		case protocol.EndForfeit:
			return "Your opponent gave up. You win!"
		case protocol.EndDisconnect, protocol.EndTimeout:
			return "Your opponent left. You win!"
		}
		return "You won the battle!"
	default:
		if end.Reason == protocol.EndForfeit {
			return "You ran from the battle."
		}
		return "You lost the battle..."
	}
}

// nameAt returns the display name of the combatant in an active slot.
func (m *BattleModel) nameAt(idx party.PokemonIndex) string {
	roster, ok := m.rosterAt(idx)
	if !ok {
		return "???"
	}
	return m.nameOf(idx.Team, roster)
}

// nameOf returns the display name of a roster member, prefixed for the
// opposing side.
func (m *BattleModel) nameOf(team party.TeamID, roster int) string {
	v := m.viewOf(team)
	if v == nil || roster < 0 || roster >= len(v.Roster) {
		return "???"
	}
	name := v.Roster[roster].Name
	if name == "" {
		name = "???"
	}
	if m.team == "" || team == m.team {
		return name
	}
	if !v.Trainer {
		return "The wild " + name
	}
	return "The foe's " + name
}

func (m *BattleModel) rosterAt(idx party.PokemonIndex) (int, bool) {
	v := m.viewOf(idx.Team)
	if v == nil || idx.Index < 0 || idx.Index >= len(v.Slots) {
		return 0, false
	}
	r := v.Slots[idx.Index]
	return r, r >= 0
}

func (m *BattleModel) teamName(team party.TeamID) string {
	if v := m.viewOf(team); v != nil && v.Name != "" {
		return v.Name
	}
	return string(team)
}

func (m *BattleModel) viewOf(team party.TeamID) *party.PartyView {
	switch team {
	case m.own.ID:
		return &m.own
	case m.foe.ID:
		return &m.foe
	}
	return nil
}

func (m *BattleModel) moveName(id string) string {
	if m.reg != nil {
		if mv, err := m.reg.Move(id); err == nil {
			return mv.Name
		}
	}
	return titleCase(id)
}

func (m *BattleModel) itemName(id string) string {
	if m.reg != nil {
		if it, err := m.reg.Item(id); err == nil {
			return it.Name
		}
	}
	return titleCase(id)
}

// titleCase turns an identifier like "quick_attack" into "Quick Attack".
func titleCase(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
