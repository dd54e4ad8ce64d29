package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/pokebattle/internal/ai"
	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

var (
	flagSimBattles  int
	flagSimParallel int
	flagSimMaxSteps int
	flagSimNoStore  bool
)

var simCmd = &cobra.Command{
	Use:   "sim <team> <team>",
	Short: "Run AI-vs-AI battles",
	Long: `Run battles between two team presets with the computer playing both
sides. Battles run without a clock and are recorded in the database.

Team names are opponent IDs from the battle config, or "player" for the
player's starting party.

Examples:
  pokebattle sim player brock
  pokebattle sim youngster misty -n 100 --seed 7
  pokebattle sim player wild -n 20 --no-store`,
	Args: cobra.ExactArgs(2),
	Run:  runSim,
}

func init() {
	simCmd.Flags().IntVarP(&flagSimBattles, "battles", "n", 10, "Number of battles to run")
	simCmd.Flags().IntVarP(&flagSimParallel, "parallel", "p", runtime.NumCPU(), "Battles to run at once")
	simCmd.Flags().IntVar(&flagSimMaxSteps, "max-steps", 10000, "Ticks before a battle is abandoned")
	simCmd.Flags().BoolVar(&flagSimNoStore, "no-store", false, "Do not record results")
}

// simMatchup is the pair of presets every simulated battle uses.
type simMatchup struct {
	a, b    config.TeamPreset
	profile config.AIProfile
	slots   int
}

func runSim(cmd *cobra.Command, args []string) {
	cfg, reg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var presets [2]config.TeamPreset
	for i, id := range args {
		p, ok := simPreset(cfg, id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown team %q\n", id)
			fmt.Fprintln(os.Stderr, "Team IDs are the opponents listed in battle.yaml, or \"player\".")
			os.Exit(1)
		}
		presets[i] = p
	}
	a, b := presets[0], presets[1]
	if a.ID == b.ID {
		b.ID += "-2"
	}

	profile := cfg.Profile(config.ParseDifficulty(flagDifficulty))
	m := simMatchup{a: profile.ApplyPreset(a), b: profile.ApplyPreset(b), profile: profile, slots: cfg.Battle.ActiveSlots}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	started := time.Now()
	results, err := simulate(cmd.Context(), reg, cfg, m, seed, flagSimBattles, flagSimParallel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("simulation finished", "battles", len(results), "elapsed", time.Since(started).Round(time.Millisecond))

	if !flagSimNoStore {
		if err := storeResults(results); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	printSummary(m, results)
}

func simPreset(cfg config.BattleConfig, id string) (config.TeamPreset, bool) {
	if id == "player" || party.TeamID(id) == cfg.Player.ID {
		p := cfg.Player
		if p.ID == "" {
			p.ID = "player"
		}
		return p, true
	}
	return cfg.Opponent(party.TeamID(id))
}

// simulate runs n battles, at most parallel at a time. Results keep the
// order of their seeds; abandoned battles are left nil.
func simulate(ctx context.Context, reg *dex.Registry, cfg config.BattleConfig, m simMatchup, seed int64, n, parallel int) ([]*battle.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*battle.Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := seed + int64(i)*3
			bt, err := battle.New(reg, cfg.Options(s),
				m.a.Entry(ai.New(reg, m.profile.AIOptions(s+1)), m.slots),
				m.b.Entry(ai.New(reg, m.profile.AIOptions(s+2)), m.slots),
			)
			if err != nil {
				return fmt.Errorf("battle %d: %w", i, err)
			}

			res, ok := bt.RunSteps(time.Unix(0, 0), cfg.TickInterval(), flagSimMaxSteps)
			if !ok {
				logger.Warn("battle abandoned", "battle", bt.ID(), "turn", bt.Turn())
				return nil
			}
			logger.Debug("battle finished", "battle", res.BattleID, "winner", res.Winner, "turns", res.Turns)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func storeResults(results []*battle.Result) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("could not open battle database: %w", err)
	}
	defer store.Close()

	for _, res := range results {
		if res == nil {
			continue
		}
		if _, err := store.SaveBattle(res); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(m simMatchup, results []*battle.Result) {
	var winsA, winsB, draws, abandoned, turns, finished int
	for _, res := range results {
		switch {
		case res == nil:
			abandoned++
			continue
		case res.Winner == m.a.ID:
			winsA++
		case res.Winner == m.b.ID:
			winsB++
		default:
			draws++
		}
		finished++
		turns += res.Turns
	}

	fmt.Printf("%s vs %s - %d battles\n", m.a.ID, m.b.ID, len(results))
	fmt.Println()
	fmt.Printf("  %-12s  %5s  %6s\n", "Team", "Wins", "Rate")
	fmt.Printf("  %-12s  %5s  %6s\n", "----", "----", "----")
	for _, row := range []struct {
		team party.TeamID
		wins int
	}{{m.a.ID, winsA}, {m.b.ID, winsB}} {
		fmt.Printf("  %-12s  %5d  %5.1f%%\n", row.team, row.wins, percent(row.wins, finished))
	}
	fmt.Println()
	fmt.Printf("Draws: %d\n", draws)
	if abandoned > 0 {
		fmt.Printf("Abandoned: %d\n", abandoned)
	}
	if finished > 0 {
		fmt.Printf("Average turns: %.1f\n", float64(turns)/float64(finished))
	}
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return 100 * float64(n) / float64(of)
}
