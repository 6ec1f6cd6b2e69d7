package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/config"
	"github.com/eyeoverthink/phiworld/internal/logging"
	"github.com/eyeoverthink/phiworld/internal/theme"
)

var (
	version  = "0.1.0"
	cfgPath  string
	verbose  bool
	seedFlag int64
	noStore  bool

	cfg       *config.Config
	sink      *logging.Sink
	logCloser io.Closer
)

func main() {
	// Force TrueColor so styled output survives pipes and tmux.
	lipgloss.SetColorProfile(termenv.TrueColor)

	rootCmd := &cobra.Command{
		Use:   "phiworld",
		Short: "phiworld - a living colony of self-modifying nodes",
		Long: `phiworld runs a small artificial world of nodes that move, think,
reproduce, mutate and die. Every significant event is sealed into a
hash-chained ledger and dying nodes leave fragments that can be resurrected.

Watch the colony:        phiworld watch
Interactive console:     phiworld shell
Headless run:            phiworld run --ticks 6000
Stream events:           phiworld serve
Configuration:           phiworld config show`,
		PersistentPreRunE:  initLogging,
		PersistentPostRunE: closeLogging,
		SilenceUsage:       true,
		RunE:               runWatch,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.phiworld/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
	rootCmd.PersistentFlags().Int64Var(&seedFlag, "seed", 0, "override the world seed")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "run without the SQLite store")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("phiworld v%s\n", version)
		},
	})

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())

	rootCmd.AddCommand(fragmentsCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(metricsCmd())

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(guideCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogging loads the configuration, applies flag overrides and installs
// the global logger.
func initLogging(cmd *cobra.Command, args []string) error {
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("seed") {
		cfg.World.Seed = seedFlag
	}
	if noStore {
		cfg.Storage.Enabled = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if p, err := theme.Get(cfg.UI.Theme); err == nil {
		applyTheme(p)
	}

	sink, logCloser, err = logging.Setup(logging.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: verbose,
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("command", cmd.Name()).
		Str("config", cfgPath).
		Int64("seed", cfg.World.Seed).
		Msg("phiworld session started")
	return nil
}

func closeLogging(cmd *cobra.Command, args []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}
