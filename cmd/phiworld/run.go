package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/metrics"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RUN COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func runCmd() *cobra.Command {
	var (
		ticks       int64
		reportEvery int64
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the world headless for a number of ticks",
		Long: `Run steps the world as fast as possible, without a wall-clock pace,
and prints a one-line colony summary every --report ticks.

Examples:
  phiworld run --ticks 6000
  phiworld run --ticks 600 --seed 7 --no-store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be positive")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := newHost(ctx, cfg, sink)
			if err != nil {
				return err
			}
			defer h.close()

			var dash *metrics.Dashboard
			if h.collector != nil {
				dash = metrics.NewDashboard(h.collector)
				dash.SetStyles(dashboardStyles(palette))
			}

			for i := int64(0); i < ticks; i++ {
				if ctx.Err() != nil {
					log.Info().Int64("tick", h.world.Tick()).Msg("run interrupted")
					break
				}
				report := h.step()
				if h.world.Population() == 0 {
					fmt.Printf("[tick %d] colony extinct\n", report.Tick)
					break
				}
				if !quiet && reportEvery > 0 && report.Tick%reportEvery == 0 {
					printProgress(h, dash)
				}
			}

			stats := h.world.Stats()
			log.Info().
				Int64("tick", stats.Tick).
				Int("population", stats.Population).
				Int64("births", stats.Births).
				Int64("deaths", stats.Deaths).
				Msg("run finished")

			if dash != nil {
				fmt.Println(dash.Render())
			}
			out, _ := h.console.Execute("status")
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&ticks, "ticks", "n", 3600, "number of ticks to run")
	cmd.Flags().Int64Var(&reportEvery, "report", 600, "print a summary every n ticks (0 disables)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the final summary")
	return cmd
}

// printProgress prints a one-line summary, from the world itself until the
// collector has seen its first sample.
func printProgress(h *host, dash *metrics.Dashboard) {
	if dash != nil && h.collector.Session().Samples > 0 {
		fmt.Println(dash.RenderCompact())
		return
	}
	s := h.world.Stats()
	fmt.Printf("[tick %d] pop %d │ E %.2f │ gen %d │ births %d deaths %d\n",
		s.Tick, s.Population, s.AvgEnergy, s.MaxGeneration, s.Births, s.Deaths)
}
