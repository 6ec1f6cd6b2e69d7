package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/console"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SHELL COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func shellCmd() *cobra.Command {
	var paused bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive console over a running world",
		Long: `Shell runs the world at the configured tick rate and reads console
commands from stdin between ticks. Type "help" for the command list,
"pause" and "resume" to hold the clock, "quit" to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := newHost(ctx, cfg, sink)
			if err != nil {
				return err
			}
			defer h.close()

			return runShell(ctx, h, paused)
		},
	}

	cmd.Flags().BoolVar(&paused, "paused", false, "start with the clock stopped")
	return cmd
}

// runShell multiplexes stdin lines and the tick clock on one goroutine, so
// commands never race a step.
func runShell(ctx context.Context, h *host, paused bool) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.World.TickRate))
	defer ticker.Stop()

	fmt.Println(noteStyle.Render(fmt.Sprintf("phiworld v%s, seed %d. Type help.", version, cfg.World.Seed)))
	fmt.Print(promptStyle.Render("φ> "))

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil

		case <-ticker.C:
			if !paused {
				h.step()
			}

		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
			case "quit", "exit", "q":
				return nil
			case "pause":
				paused = true
				fmt.Println(noteStyle.Render(fmt.Sprintf("paused at tick %d", h.world.Tick())))
			case "resume":
				paused = false
				fmt.Println(noteStyle.Render("resumed"))
			default:
				out, err := h.console.Execute(line)
				if err != nil {
					fmt.Println(errorStyle.Render(describe(err)))
				} else if out != "" {
					fmt.Println(out)
				}
			}
			fmt.Print(promptStyle.Render("φ> "))
		}
	}
}

// describe turns a console error into a hint for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, console.ErrUnknownCommand):
		return err.Error() + " (try help)"
	case errors.Is(err, console.ErrUnavailable):
		log.Debug().Err(err).Msg("command unavailable")
		return err.Error()
	default:
		return err.Error()
	}
}
