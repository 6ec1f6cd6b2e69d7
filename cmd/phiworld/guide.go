package main

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed manual.md
var manual string

func guideCmd() *cobra.Command {
	var (
		width int
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "guide",
		Short: "Show the phiworld manual",
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw {
				fmt.Print(manual)
				return nil
			}
			out, err := renderManual(width)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 80, "word wrap width")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	return cmd
}

func renderManual(width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return renderer.Render(manual)
}
