// pokebattle is a turn-based monster battle game for the terminal.
//
// Usage:
//
//	pokebattle play              - Battle the computer from a menu
//	pokebattle sim <a> <b>       - Run AI-vs-AI battles headlessly
//	pokebattle serve             - Start SSH server for online battles
//	pokebattle dex [kind]        - List species, moves or items
//	pokebattle history [team]    - Show recorded battles
//
// Global flags:
//
//	--fps <rate>      - Set battle tick rate (default: from config)
//	--seed <value>    - Set RNG seed for reproducible battles
//	--db <path>       - Set database path (default: ~/.pokebattle/battles.db)
//	--config <path>   - Path to a custom battle.yaml
//	--dex <path>      - Path to a custom dex.yaml
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/dex"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDex        string
	flagDifficulty string
	flagVerbose    bool
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "pokebattle",
})

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pokebattle",
	Short: "Pokebattle - Monster battles in your terminal",
	Long: `Pokebattle is a turn-based monster battle game for the terminal.
Build a party, battle wild monsters and trainers, or challenge other
players over SSH.

Available commands:
  play     - Battle the computer from an interactive menu
  sim      - Run AI-vs-AI battles and record the results
  serve    - Start SSH server for online battles
  dex      - List species, moves and items
  history  - View recorded battles

Examples:
  pokebattle play
  pokebattle play --difficulty hard
  pokebattle sim player brock -n 50
  pokebattle serve --port 2222
  pokebattle history player`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Battle tick rate (0 = use config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.pokebattle/battles.db", "Path to battle database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom battle config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDex, "dex", "", "Path to custom dex YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "normal", "Difficulty preset: easy, normal, hard")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dexCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the battle config and dex, applying the global flags.
func loadConfig() (config.BattleConfig, *dex.Registry, error) {
	cfg, err := config.LoadBattle(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	if flagFPS > 0 {
		cfg.Battle.TickRate = flagFPS
	}
	reg, err := config.LoadDex(flagDex)
	if err != nil {
		return cfg, nil, err
	}
	logger.Debug("config loaded", "opponents", len(cfg.Opponents), "species", len(reg.SpeciesList()))
	return cfg, reg, nil
}
