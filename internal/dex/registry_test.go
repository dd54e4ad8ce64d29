package dex

import (
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/pokebattle/internal/stats"
)

func TestDefaultRegistryLoads(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	if len(reg.SpeciesList()) == 0 {
		t.Fatal("expected species in default dex")
	}
	if len(reg.MoveList()) == 0 {
		t.Fatal("expected moves in default dex")
	}

	pika, err := reg.Species("pikachu")
	if err != nil {
		t.Fatalf("Species(pikachu) failed: %v", err)
	}
	if pika.Base[stats.Speed] != 90 {
		t.Errorf("pikachu speed = %d, want 90", pika.Base[stats.Speed])
	}
	if !pika.HasType("electric") {
		t.Error("pikachu should be electric")
	}

	qa, err := reg.Move("quick_attack")
	if err != nil {
		t.Fatalf("Move(quick_attack) failed: %v", err)
	}
	if qa.Priority != 1 {
		t.Errorf("quick_attack priority = %d, want 1", qa.Priority)
	}
	if len(qa.Effects) != 1 || qa.Effects[0].Kind != EffectDamage {
		t.Errorf("quick_attack should get an implicit damage effect, got %+v", qa.Effects)
	}

	growl, _ := reg.Move("growl")
	if growl.Target != TargetAllOpponents {
		t.Errorf("growl target = %v", growl.Target)
	}
	if growl.Effects[0].Stat != stats.StageAttack || growl.Effects[0].Stages != -1 {
		t.Errorf("growl effect = %+v", growl.Effects[0])
	}
}

func TestSortedLists(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	species := reg.SpeciesList()
	for i := 1; i < len(species); i++ {
		if species[i-1].ID >= species[i].ID {
			t.Fatalf("species not sorted: %s before %s", species[i-1].ID, species[i].ID)
		}
	}
	items := reg.ItemList()
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Fatalf("items not sorted: %s before %s", items[i-1].ID, items[i].ID)
		}
	}
}

func TestLookupError(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Move("hyper_beam")
	var lerr *LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LookupError, got %T", err)
	}
	if lerr.Kind != KindMove || lerr.ID != "hyper_beam" {
		t.Errorf("unexpected lookup error %+v", lerr)
	}
	if !strings.Contains(err.Error(), "hyper_beam") {
		t.Errorf("error message %q should name the id", err.Error())
	}

	if _, err := reg.Species("missingno"); err == nil {
		t.Error("expected error for unknown species")
	}
	if _, err := reg.Item("master_ball"); err == nil {
		t.Error("expected error for unknown item")
	}
}

func TestEffectiveness(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	tests := []struct {
		attack Type
		defend []Type
		want   float64
	}{
		{"water", []Type{"fire"}, 2},
		{"fire", []Type{"water"}, 0.5},
		{"electric", []Type{"ground"}, 0},
		{"water", []Type{"rock", "ground"}, 4},
		{"grass", []Type{"grass", "poison"}, 0.25},
		{"normal", []Type{"fire"}, 1},
	}

	for _, tt := range tests {
		if got := reg.Effectiveness(tt.attack, tt.defend); got != tt.want {
			t.Errorf("Effectiveness(%s, %v) = %v, want %v", tt.attack, tt.defend, got, tt.want)
		}
	}
}

func TestParseRejectsDanglingLearnset(t *testing.T) {
	data := `
types:
  normal: {}
species:
  - id: blob
    types: [normal]
    base: { hp: 10, attack: 10, defense: 10, sp_attack: 10, sp_defense: 10, speed: 10 }
    moves: [splash]
`
	_, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("expected error for learnset referencing a missing move")
	}
	var lerr *LookupError
	if !errors.As(err, &lerr) || lerr.Kind != KindMove || lerr.ID != "splash" {
		t.Errorf("expected move lookup error for splash, got %v", err)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	data := `
types:
  normal: {}
moves:
  - id: shadow_ball
    type: ghost
    category: special
    power: 80
    accuracy: 100
    pp: 15
`
	_, err := Parse([]byte(data))
	var lerr *LookupError
	if !errors.As(err, &lerr) || lerr.Kind != KindType {
		t.Errorf("expected type lookup error, got %v", err)
	}
}

func TestParseRejectsBadEnums(t *testing.T) {
	cases := map[string]string{
		"category": `
types: { normal: {} }
moves:
  - { id: m, type: normal, category: magical, power: 10 }
`,
		"target": `
types: { normal: {} }
moves:
  - { id: m, type: normal, category: physical, power: 10, target: everyone }
`,
		"effect stat": `
types: { normal: {} }
moves:
  - id: m
    type: normal
    effects:
      - { kind: stat_stage, stat: luck, stages: 1 }
`,
		"item kind": `
items:
  - { id: i, kind: throw }
`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	reg.AddMove(Move{ID: "tackle"})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate move")
		}
	}()
	reg.AddMove(Move{ID: "tackle"})
}
