package engine

import (
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/stats"
)

// critThresholds[stage] out of 24: 1/24, 1/8, 1/2, always.
var critThresholds = [...]int{1, 3, 12, 24}

const (
	critMultiplier = 1.5
	stabMultiplier = 1.5
	minDamageRoll  = 85
)

type damageResult struct {
	amount int
	mult   float64
	crit   bool
}

// damage computes one hit of move from user to target. Randomness is drawn
// in a fixed order: critical roll, then damage roll.
func (p *Pipeline) damage(user, target *party.BattlePartyPokemon, move *dex.Move) damageResult {
	mult := 1.0
	if move.Type != "" {
		mult = p.reg.Effectiveness(move.Type, target.Species.Types)
	}
	if mult == 0 || move.Power <= 0 {
		return damageResult{mult: mult}
	}

	stage := min(max(int(move.CritStage), 0), len(critThresholds)-1)
	crit := p.rng.Intn(24) < critThresholds[stage]

	atkStat, defStat := stats.Attack, stats.Defense
	if move.Category == dex.Special {
		atkStat, defStat = stats.SpAttack, stats.SpDefense
	}
	atk := user.Stat(atkStat)
	def := target.Stat(defStat)
	if crit {
		// Critical hits ignore the attacker's drops and the defender's boosts.
		atk = max(atk, user.Stats[atkStat])
		def = min(def, target.Stats[defStat])
	}
	def = max(def, 1)

	base := (2*user.Level/5+2)*move.Power*atk/def/50 + 2
	dmg := float64(base)
	if move.Type != "" && user.HasType(move.Type) {
		dmg *= stabMultiplier
	}
	dmg *= mult
	if crit {
		dmg *= critMultiplier
	}
	dmg = dmg * float64(minDamageRoll+p.rng.Intn(100-minDamageRoll+1)) / 100
	if user.Status == dex.StatusBurn && move.Category == dex.Physical {
		dmg /= 2
	}

	return damageResult{amount: max(1, int(dmg)), mult: mult, crit: crit}
}

// accuracyMultiplier uses the thirds table accuracy and evasion stages use.
func accuracyMultiplier(stage int) float64 {
	stage = min(max(stage, int(stats.MinStage)), int(stats.MaxStage))
	return float64(max(3, 3+stage)) / float64(max(3, 3-stage))
}

// hits rolls accuracy. Moves with accuracy 0 never miss.
func (p *Pipeline) hits(user, target *party.BattlePartyPokemon, move *dex.Move) bool {
	if move.Accuracy <= 0 {
		return true
	}
	stage := int(user.Stages.Get(stats.StageAccuracy)) - int(target.Stages.Get(stats.StageEvasion))
	chance := int(float64(move.Accuracy) * accuracyMultiplier(stage))
	return p.rng.Intn(100) < chance
}
