package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edwardjardy/radlocal/internal/observability"
)

// newMapCmd creates the `map` command: a one-shot topology pass, useful for
// warming the system cache and for eyeballing what the watch loop will see.
func newMapCmd() *cobra.Command {
	mapCmd := &cobra.Command{
		Use:   "map <center-system-id>",
		Short: "Map the neighborhood around a system and print it",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("map.max_jumps", cmd.Flags().Lookup("jumps"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			centerID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("center must be a numeric system id: %w", err)
			}
			cfg.Map.MaxJumps = viper.GetInt("map.max_jumps")

			mapper := newMapper(cfg, newESIClient(cfg, logger), logger)
			snapshot, err := mapper.BuildMap(ctx, centerID, cfg.Map.MaxJumps)
			if err != nil {
				return fmt.Errorf("mapping failed: %w", err)
			}

			// Nearest first, then by name for stable output.
			ids := make([]int64, 0, len(snapshot.Systems))
			for id := range snapshot.Systems {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				a, b := snapshot.Systems[ids[i]], snapshot.Systems[ids[j]]
				if a.Jumps != b.Jumps {
					return a.Jumps < b.Jumps
				}
				return a.Name < b.Name
			})

			fmt.Printf("Mapped %d systems within %d jumps of %d:\n",
				len(ids), snapshot.Radius, snapshot.CenterID)
			for _, id := range ids {
				sys := snapshot.Systems[id]
				line := fmt.Sprintf("  %d  %-12s  gates=%d", sys.Jumps, sys.Name, len(sys.Stargates))
				if len(sys.JumpBridges) > 0 {
					line += fmt.Sprintf("  bridges=%d", len(sys.JumpBridges))
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	mapCmd.Flags().IntP("jumps", "j", 9, "BFS radius in jumps. (Overrides config/env)")

	return mapCmd
}

func init() {
	rootCmd.AddCommand(newMapCmd())
}
