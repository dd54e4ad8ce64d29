package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/dex"
)

var dexCmd = &cobra.Command{
	Use:   "dex [species|moves|items]",
	Short: "List species, moves or items",
	Long: `Shows the battle data loaded from the dex: every species with its
types and base stat total, every move, or every item.

Examples:
  pokebattle dex
  pokebattle dex moves
  pokebattle dex items --dex ./my-dex.yaml`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"species", "moves", "items"},
	Run:       runDex,
}

func runDex(_ *cobra.Command, args []string) {
	reg, err := config.LoadDex(flagDex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	kind := "species"
	if len(args) > 0 {
		kind = args[0]
	}

	switch kind {
	case "species":
		listSpecies(reg)
	case "moves":
		listMoves(reg)
	case "items":
		listItems(reg)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown list %q (want species, moves or items)\n", kind)
		os.Exit(1)
	}
}

func listSpecies(reg *dex.Registry) {
	species := reg.SpeciesList()
	if len(species) == 0 {
		fmt.Println("No species available.")
		return
	}

	idLen := 2 // "ID" header
	for _, s := range species {
		idLen = max(idLen, len(s.ID))
	}

	fmt.Printf("  %-*s  %-12s  %-16s  %s\n", idLen, "ID", "Name", "Types", "Total")
	fmt.Printf("  %-*s  %-12s  %-16s  %s\n", idLen, "--", "----", "-----", "-----")
	for _, s := range species {
		types := make([]string, len(s.Types))
		for i, t := range s.Types {
			types[i] = string(t)
		}
		total := 0
		for _, v := range s.Base {
			total += v
		}
		fmt.Printf("  %-*s  %-12s  %-16s  %d\n", idLen, s.ID, s.Name, strings.Join(types, "/"), total)
	}
}

func listMoves(reg *dex.Registry) {
	moves := reg.MoveList()
	if len(moves) == 0 {
		fmt.Println("No moves available.")
		return
	}

	idLen := 2
	for _, m := range moves {
		idLen = max(idLen, len(m.ID))
	}

	fmt.Printf("  %-*s  %-10s  %-9s  %5s  %4s  %3s\n", idLen, "ID", "Type", "Category", "Power", "Acc", "PP")
	fmt.Printf("  %-*s  %-10s  %-9s  %5s  %4s  %3s\n", idLen, "--", "----", "--------", "-----", "---", "--")
	for _, m := range moves {
		power, acc := "-", "-"
		if m.Power > 0 {
			power = fmt.Sprint(m.Power)
		}
		if m.Accuracy > 0 {
			acc = fmt.Sprint(m.Accuracy)
		}
		fmt.Printf("  %-*s  %-10s  %-9s  %5s  %4s  %3d\n", idLen, m.ID, m.Type, m.Category, power, acc, m.PP)
	}
}

func listItems(reg *dex.Registry) {
	items := reg.ItemList()
	if len(items) == 0 {
		fmt.Println("No items available.")
		return
	}

	idLen := 2
	for _, it := range items {
		idLen = max(idLen, len(it.ID))
	}

	fmt.Printf("  %-*s  %-14s  %s\n", idLen, "ID", "Name", "Effect")
	fmt.Printf("  %-*s  %-14s  %s\n", idLen, "--", "----", "------")
	for _, it := range items {
		fmt.Printf("  %-*s  %-14s  %s\n", idLen, it.ID, it.Name, itemEffect(it))
	}
}

func itemEffect(it *dex.Item) string {
	switch it.Kind {
	case dex.ItemHeal:
		return fmt.Sprintf("restores %d HP", it.Amount)
	case dex.ItemCure:
		if it.Cures == dex.StatusNone {
			return "cures any status"
		}
		return "cures " + it.Cures.String()
	case dex.ItemBoost:
		return fmt.Sprintf("raises %s by %d", it.Stat, it.Stages)
	}
	return it.Kind.String()
}
