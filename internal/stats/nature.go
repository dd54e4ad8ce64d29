package stats

import "strings"

// Nature raises one stat by 10% and lowers another by 10%.
// Natures whose raised and lowered stat match are neutral.
type Nature struct {
	Name      string
	Increased StatType
	Decreased StatType
}

// Neutral reports whether the nature changes nothing.
func (n Nature) Neutral() bool {
	return n.Increased == n.Decreased
}

// Multiplier returns the nature factor for a stat (1.1, 0.9 or 1.0).
func (n Nature) Multiplier(stat StatType) float64 {
	if n.Neutral() || stat == HP {
		return 1.0
	}
	switch stat {
	case n.Increased:
		return 1.1
	case n.Decreased:
		return 0.9
	default:
		return 1.0
	}
}

// natureOrder is the canonical grid: row = raised stat, column = lowered stat.
var natureOrder = [5]StatType{Attack, Defense, Speed, SpAttack, SpDefense}

var natureNames = [25]string{
	"hardy", "lonely", "brave", "adamant", "naughty",
	"bold", "docile", "relaxed", "impish", "lax",
	"timid", "hasty", "serious", "jolly", "naive",
	"modest", "mild", "quiet", "bashful", "rash",
	"calm", "gentle", "sassy", "careful", "quirky",
}

var natures = func() map[string]Nature {
	m := make(map[string]Nature, len(natureNames))
	for i, name := range natureNames {
		m[name] = Nature{
			Name:      name,
			Increased: natureOrder[i/5],
			Decreased: natureOrder[i%5],
		}
	}
	return m
}()

// NatureByName looks up a nature case-insensitively. An empty name yields
// the neutral "hardy" nature.
func NatureByName(name string) (Nature, bool) {
	if name == "" {
		return natures["hardy"], true
	}
	n, ok := natures[strings.ToLower(name)]
	return n, ok
}

// Natures returns all natures in canonical order.
func Natures() []Nature {
	out := make([]Nature, 0, len(natureNames))
	for _, name := range natureNames {
		out = append(out, natures[name])
	}
	return out
}
