package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/edwardjardy/radlocal/internal/cartography"
	"github.com/edwardjardy/radlocal/internal/observability"
)

// newBridgeCmd groups the jump bridge management subcommands. Bridges are
// player-built structures the public API knows nothing about, so they are
// maintained by hand and merged into the map at BFS time.
func newBridgeCmd() *cobra.Command {
	bridgeCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Manage manually curated jump bridge connections",
	}

	bridgeCmd.AddCommand(
		&cobra.Command{
			Use:   "add <system-id-a> <system-id-b>",
			Short: "Record a two-way jump bridge between two systems",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, b, err := parseBridgePair(args)
				if err != nil {
					return err
				}
				bridges := cartography.NewBridgeManager(cfg.Map.BridgeFile, observability.GetLogger())
				if err := bridges.AddBridge(a, b); err != nil {
					return fmt.Errorf("saving bridge: %w", err)
				}
				fmt.Printf("Bridge recorded: %d <-> %d\n", a, b)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <system-id-a> <system-id-b>",
			Short: "Remove a recorded jump bridge",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, b, err := parseBridgePair(args)
				if err != nil {
					return err
				}
				bridges := cartography.NewBridgeManager(cfg.Map.BridgeFile, observability.GetLogger())
				if err := bridges.RemoveBridge(a, b); err != nil {
					return fmt.Errorf("removing bridge: %w", err)
				}
				fmt.Printf("Bridge removed: %d <-> %d\n", a, b)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all recorded jump bridges",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				bridges := cartography.NewBridgeManager(cfg.Map.BridgeFile, observability.GetLogger())
				all := bridges.All()
				if len(all) == 0 {
					fmt.Println("No bridges recorded.")
					return nil
				}

				ids := make([]int64, 0, len(all))
				for id := range all {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

				// Each bridge is stored on both ends; print each pair once.
				for _, id := range ids {
					for _, peer := range all[id] {
						if id < peer {
							fmt.Printf("%d <-> %d\n", id, peer)
						}
					}
				}
				return nil
			},
		},
	)

	return bridgeCmd
}

func parseBridgePair(args []string) (int64, int64, error) {
	a, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("system ids must be numeric: %w", err)
	}
	b, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("system ids must be numeric: %w", err)
	}
	if a == b {
		return 0, 0, fmt.Errorf("a bridge needs two distinct systems")
	}
	return a, b, nil
}

func init() {
	rootCmd.AddCommand(newBridgeCmd())
}
