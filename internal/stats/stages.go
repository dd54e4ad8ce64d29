package stats

// Stage bounds for in-battle boosts and drops.
const (
	MinStage int8 = -6
	MaxStage int8 = 6
)

// StageStat identifies a stat that can carry an in-battle stage.
// The first five mirror the permanent stats; Accuracy and Evasion are
// battle-only.
type StageStat int

const (
	StageAttack StageStat = iota
	StageDefense
	StageSpAttack
	StageSpDefense
	StageSpeed
	StageAccuracy
	StageEvasion

	stageCount
)

// String returns a human-readable name for the stage stat.
func (s StageStat) String() string {
	switch s {
	case StageAttack:
		return "Attack"
	case StageDefense:
		return "Defense"
	case StageSpAttack:
		return "Sp. Atk"
	case StageSpDefense:
		return "Sp. Def"
	case StageSpeed:
		return "Speed"
	case StageAccuracy:
		return "Accuracy"
	case StageEvasion:
		return "Evasion"
	default:
		return "Unknown"
	}
}

// ParseStageStat maps a config name to a StageStat.
func ParseStageStat(name string) (StageStat, bool) {
	switch name {
	case "accuracy", "acc":
		return StageAccuracy, true
	case "evasion", "eva":
		return StageEvasion, true
	}
	stat, ok := ParseStat(name)
	if !ok || stat == HP {
		return 0, false
	}
	return StageFor(stat), true
}

// StageFor returns the stage slot for a permanent stat. HP has no stage and
// maps to StageAttack's zero value; callers never ask for it.
func StageFor(stat StatType) StageStat {
	return StageStat(stat - 1)
}

// StageMultiply applies a stage to a value:
//
//	value * max(2, 2+stage) / max(2, 2-stage)
//
// The stage is clamped to [MinStage, MaxStage] first.
func StageMultiply(value int, stage int8) int {
	stage = clampStage(int(stage))
	num := max(2, 2+int(stage))
	den := max(2, 2-int(stage))
	return value * num / den
}

// Stages tracks the current stage of every stage stat for one combatant.
type Stages [stageCount]int8

// Get returns the current stage.
func (s *Stages) Get(stat StageStat) int8 {
	return s[stat]
}

// Change moves a stage by delta and returns the delta actually applied.
// A stage already at its bound stays put and 0 is returned.
func (s *Stages) Change(stat StageStat, delta int8) int8 {
	before := s[stat]
	after := clampStage(int(before) + int(delta))
	s[stat] = after
	return after - before
}

// Reset clears every stage back to 0 (on switch-out).
func (s *Stages) Reset() {
	*s = Stages{}
}

func clampStage(v int) int8 {
	if v < int(MinStage) {
		return MinStage
	}
	if v > int(MaxStage) {
		return MaxStage
	}
	return int8(v)
}
