package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/stream"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERVE COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the world in real time and stream its events over WebSocket",
		Long: fmt.Sprintf(`Serve steps the world at the configured tick rate and publishes every
ledger block, tick sample, command and lifecycle event to WebSocket clients.

Endpoints:
  %s   event stream (JSON, one event per message)
  %s   health check`, stream.EventsEndpoint, stream.HealthEndpoint),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Stream.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := newHost(ctx, cfg, sink)
			if err != nil {
				return err
			}
			defer h.close()

			// The broadcaster has to subscribe before the first tick.
			srv := stream.New(h.bus, stream.WithReplay(cfg.Stream.Replay))
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

			fmt.Printf("\nφ phiworld streaming\n")
			fmt.Printf("  URL:  ws://%s%s\n", addr, stream.EventsEndpoint)
			fmt.Printf("  Seed: %d\n", cfg.World.Seed)
			fmt.Printf("\nPress Ctrl+C to stop...\n")

			ticker := time.NewTicker(time.Second / time.Duration(cfg.World.TickRate))
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					fmt.Println("\nShutting down...")
					if err := <-errCh; err != nil {
						log.Error().Err(err).Msg("stream shutdown")
						return err
					}
					log.Info().Int64("tick", h.world.Tick()).Msg("stream stopped gracefully")
					return nil
				case err := <-errCh:
					return fmt.Errorf("event stream failed: %w", err)
				case <-ticker.C:
					h.step()
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
