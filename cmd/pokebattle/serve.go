package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/platform/tui"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

var (
	flagHost        string
	flagPort        int
	flagHostKey     string
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the battle SSH server",
	Long: `Start an SSH server where players battle the computer, host and join
online battles, or watch battles in progress.

Each SSH connection gets its own session; the SSH user name is the trainer
name. Battles and trainer progress are stored per-server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.pokebattle/host_key

Examples:
  pokebattle serve                           # Listen on the configured port
  pokebattle serve --port 2222               # Listen on port 2222
  pokebattle serve --host-key ./my_host_key  # Use specific host key
  pokebattle serve --db ./battles.db         # Use specific database

Users can connect with:
  ssh ash@localhost -p 2323`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "", "Listen host (default: from config)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default: from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle time before disconnecting (default: from config)")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, reg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	settings := serverSettings(cmd, cfg.Server)

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open battle database, results will not be saved", "error", err)
		store = nil
	}
	defer func() {
		if store != nil {
			store.Close()
		}
	}()

	server, err := tui.NewSSHServer(settings, tui.SessionConfig{
		Registry:   reg,
		Battle:     cfg,
		Difficulty: config.ParseDifficulty(flagDifficulty),
		Store:      store,
		Seed:       flagSeed,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting battle SSH server on %s\n", server.Addr())
	fmt.Printf("Connect with: ssh <name>@localhost -p %d\n", settings.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// serverSettings overlays explicitly set flags on the configured settings.
func serverSettings(cmd *cobra.Command, s config.ServerSettings) config.ServerSettings {
	flags := cmd.Flags()
	if flags.Changed("host") {
		s.Host = flagHost
	}
	if flags.Changed("port") {
		s.Port = flagPort
	}
	if flagHostKey != "" {
		s.HostKeyPath = flagHostKey
	}
	if flags.Changed("idle-timeout") {
		s.IdleTimeout = flagIdleTimeout
	}
	return s
}
