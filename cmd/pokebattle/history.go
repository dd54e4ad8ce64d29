package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history [team]",
	Short: "Show recorded battles",
	Long: `Display the most recent battles, or one team's battles and record.

Examples:
  pokebattle history
  pokebattle history ash
  pokebattle history brock --limit 50`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of battles to show")
}

func runHistory(_ *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening battle database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var (
		records []storage.BattleRecord
		team    party.TeamID
	)
	if len(args) > 0 {
		team = party.TeamID(args[0])
		records, err = store.TeamHistory(team, flagHistoryLimit)
	} else {
		records, err = store.RecentBattles(flagHistoryLimit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving battles: %v\n", err)
		return
	}

	if team != "" {
		fmt.Printf("Battle History - %s\n", team)
	} else {
		fmt.Println("Battle History")
	}
	fmt.Println()

	if len(records) == 0 {
		fmt.Println("No battles recorded yet.")
		fmt.Println()
		fmt.Println("Play 'pokebattle play' or run 'pokebattle sim' to record some!")
		return
	}

	// Print header
	fmt.Printf("  %-16s  %-7s  %-12s  %-12s  %5s  %s\n", "Date", "Kind", "Winner", "Loser", "Turns", "How")
	fmt.Printf("  %-16s  %-7s  %-12s  %-12s  %5s  %s\n", "----", "----", "------", "-----", "-----", "---")

	for _, r := range records {
		winner, loser := r.Winner, r.TeamB
		switch {
		case r.Draw():
			winner, loser = "-", "-"
		case r.Winner == r.TeamB:
			loser = r.TeamA
		}
		fmt.Printf("  %-16s  %-7s  %-12s  %-12s  %5d  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, winner, loser, r.Turns, r.Reason)
	}

	if team == "" {
		return
	}
	stats, err := store.GetTeamStats(team)
	if err != nil {
		return
	}
	fmt.Println()
	fmt.Printf("Record: %d-%d-%d (%.0f%% wins)\n", stats.Wins, stats.Losses, stats.Draws, 100*stats.WinRate())
	if stats.Prize > 0 {
		fmt.Printf("Prize money: ₽%d\n", stats.Prize)
	}
}
