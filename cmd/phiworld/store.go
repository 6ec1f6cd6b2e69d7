package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/data"
	"github.com/eyeoverthink/phiworld/internal/metrics"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STORE COMMANDS
// ═══════════════════════════════════════════════════════════════════════════════

func openStore() (*data.Store, error) {
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("storage is disabled")
	}
	return data.Open(cfg.Storage.DataDir, cfg.Storage.Driver)
}

func fragmentsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fragments",
		Short: "List stored escape fragments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			frags, err := store.LoadFragments(cmd.Context())
			if err != nil {
				return err
			}
			if len(frags) == 0 {
				fmt.Println("No fragments stored.")
				return nil
			}

			fmt.Printf("%d fragments in %s\n\n", len(frags), store.Path())
			shown := 0
			for i := len(frags) - 1; i >= 0 && shown < limit; i-- {
				f := frags[i]
				fmt.Printf("  %-28s gen %-3d E %.2f  %s\n",
					f.ID, f.Generation, f.LastEnergy, f.PlantedAt.Local().Format(time.DateTime))
				shown++
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum fragments to show")
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the stored ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the hash chain of every stored block",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.VerifyChain(cmd.Context())
			if err != nil {
				return fmt.Errorf("chain broken after %d blocks: %w", n, err)
			}
			fmt.Printf("✓ chain intact (%d blocks)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Block counts by kind and the latest blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			counts, err := store.BlockCountsByKind(ctx)
			if err != nil {
				return err
			}
			total, err := store.BlockCount(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%d blocks\n", total)
			kinds := make([]string, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				fmt.Printf("  %-14s %d\n", k, counts[k])
			}

			last, ok, err := store.LastBlock(ctx)
			if err != nil || !ok {
				return err
			}
			from := max(last.Index-9, 0)
			blocks, err := store.Blocks(ctx, from, 10)
			if err != nil {
				return err
			}
			fmt.Println()
			for _, b := range blocks {
				fmt.Printf("  #%-6d %-12s %s\n", b.Index, b.Kind, b.Data)
			}
			return nil
		},
	})

	return cmd
}

func metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Stored tick samples",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, closeStore, err := openMetrics()
			if err != nil {
				return err
			}
			defer closeStore()

			runs, err := samples.Runs(cmd.Context(), 20)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			for _, id := range runs {
				fmt.Println(id)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "summary <run-id>",
		Short: "Summarize one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, closeStore, err := openMetrics()
			if err != nil {
				return err
			}
			defer closeStore()

			s, err := samples.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.Samples == 0 {
				return fmt.Errorf("no samples for run %s", args[0])
			}
			fmt.Printf("Run:         %s\n", s.RunID)
			fmt.Printf("Samples:     %d (final tick %d)\n", s.Samples, s.FinalTick)
			fmt.Printf("Population:  peak %d\n", s.PeakPopulation)
			fmt.Printf("Generation:  %d\n", s.MaxGeneration)
			fmt.Printf("Energy:      %.3f avg\n", s.AvgEnergy)
			fmt.Printf("Births:      %d\n", s.Births)
			fmt.Printf("Deaths:      %d\n", s.Deaths)
			return nil
		},
	})

	return cmd
}

func openMetrics() (*metrics.Store, func(), error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	samples, err := metrics.NewStore(store.DB())
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return samples, func() { store.Close() }, nil
}
