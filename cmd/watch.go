package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edwardjardy/radlocal/internal/alerting"
	"github.com/edwardjardy/radlocal/internal/app"
	"github.com/edwardjardy/radlocal/internal/observability"
	"github.com/edwardjardy/radlocal/internal/tracker"
)

// newWatchCmd creates and configures the `watch` command, the long-running
// intel loop.
func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow intel channels and announce hostiles near your location",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("esi.token", cmd.Flags().Lookup("token")); err != nil {
				return err
			}
			if err := viper.BindPFlag("tracker.character_id", cmd.Flags().Lookup("character-id")); err != nil {
				return err
			}
			return viper.BindPFlag("map.center", cmd.Flags().Lookup("center"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg.Tracker.CharacterID = viper.GetInt64("tracker.character_id")
			center := viper.GetInt64("map.center")
			token := viper.GetString("esi.token")

			if center == 0 && (cfg.Tracker.CharacterID == 0 || token == "") {
				return fmt.Errorf("need either --center, or --character-id with --token for live tracking")
			}

			api := newESIClient(cfg, logger)
			if token != "" {
				api.SetToken(token)
			}

			dispatcher := alerting.NewDispatcher(newSpeaker(cfg, logger),
				cfg.Alerts.Cooldown, logger)
			pipeline := app.New(cfg, newMapper(cfg, api, logger),
				newProfiler(cfg, api, logger), dispatcher, logger)

			if center != 0 {
				pipeline.RefreshTopology(ctx, center)
				if pipeline.Snapshot() == nil {
					return fmt.Errorf("could not map the neighborhood of system %d", center)
				}
			}

			go printEvents(pipeline.Events())

			var source tracker.LocationSource
			if cfg.Tracker.CharacterID != 0 && token != "" {
				source = api
			}

			err := pipeline.Run(ctx, source)
			if errors.Is(err, context.Canceled) {
				logger.Info("Watch stopped")
				return nil
			}
			return err
		},
	}

	watchCmd.Flags().Int64("center", 0, "System ID to map around when not tracking live location.")
	watchCmd.Flags().Int64("character-id", 0, "Character whose location drives the map. (Overrides config/env)")
	watchCmd.Flags().String("token", "", "ESI bearer token for the location endpoint. (Overrides config/env)")

	return watchCmd
}

// printEvents renders the intel stream for the terminal. Audio is handled by
// the dispatcher; this is the visual companion.
func printEvents(events <-chan app.Event) {
	for ev := range events {
		distance := "off-map"
		if ev.InRange {
			distance = fmt.Sprintf("%d jumps", ev.Jumps)
		}
		fmt.Printf("[%s] %s  %s (%s)  reporter=%s  %s\n",
			ev.Record.Timestamp, ev.Record.System, ev.Record.Status,
			distance, ev.Record.Author, ev.Assessment.String())
	}
}

func init() {
	rootCmd.AddCommand(newWatchCmd())
}
