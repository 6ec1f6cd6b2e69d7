package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/config"
	"github.com/eyeoverthink/phiworld/internal/theme"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIG COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	// Show command
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n", getConfigPath())
			fmt.Print(text)
			return nil
		},
	})

	// Init command
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := getConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().SaveToPath(path); err != nil {
				return err
			}
			fmt.Printf("✓ wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	// Themes command
	cmd.AddCommand(&cobra.Command{
		Use:   "themes",
		Short: "List the available ui.theme values",
		Run: func(cmd *cobra.Command, args []string) {
			for _, id := range theme.IDs() {
				p := theme.Registry[id]
				marker := " "
				if id == cfg.UI.Theme {
					marker = "*"
				}
				fmt.Printf("%s %-10s %s (%s)\n", marker, id, p.Name, p.Type)
			}
		},
	})

	// Path command
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(getConfigPath())
		},
	})

	return cmd
}

func getConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "~/.phiworld/config.yaml"
	}
	return path
}
