package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/platform/tui"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

var flagName string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Battle the computer",
	Long: `Open the battle menu. Pick an opponent, heal your party or browse
your battle history. Progress is saved under the trainer name.

Controls:
  Up/Down    - Move the cursor
  Enter      - Confirm
  Esc/B      - Back
  F          - Run from the battle
  ?          - Toggle help
  Q/Ctrl+C   - Quit

Difficulty options:
  easy   - Mostly random moves, weaker opponents
  normal - Sensible moves, opponents as configured
  hard   - Best moves and timely heals, stronger opponents

Examples:
  pokebattle play
  pokebattle play --name ash --difficulty hard
  pokebattle play --config ./my-battle.yaml`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagName, "name", "", "Trainer name (default: $USER)")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg, reg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	name := flagName
	if name == "" {
		name = os.Getenv("USER")
	}

	// Open battle storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open battle database: %v\n", err)
		// Continue without storage - progress lives in memory
		store = nil
	}

	runErr := tui.Run(tui.SessionConfig{
		Username:   name,
		Registry:   reg,
		Battle:     cfg,
		Difficulty: config.ParseDifficulty(flagDifficulty),
		Store:      store,
		Seed:       flagSeed,
		Width:      width,
		Height:     height,
	})

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running battle: %v\n", runErr)
		os.Exit(1)
	}
}
