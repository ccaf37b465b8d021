package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edwardjardy/radlocal/internal/observability"
	"github.com/edwardjardy/radlocal/internal/threat"
)

// newProfileCmd creates the `profile` command: a one-shot threat lookup for a
// pilot name, sharing the same cache the watch loop uses.
func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile <pilot name>",
		Short: "Look up the threat profile of a pilot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Pilot names contain spaces; take all args as one name.
			name := strings.Join(args, " ")

			api := newESIClient(cfg, logger)
			profiler := newProfiler(cfg, api, logger)

			assessment := profiler.Profile(ctx, name)
			switch assessment.Outcome {
			case threat.OutcomeNotFound:
				return fmt.Errorf("no pilot named %q", name)
			case threat.OutcomeFriendly:
				fmt.Printf("%s: friendly\n", name)
			case threat.OutcomeNoHistory:
				fmt.Printf("%s: no recent combat history\n", name)
			default:
				fmt.Printf("%s: %s\n", name, assessment.String())
			}
			if assessment.FromCache {
				fmt.Println("(cached)")
			}
			return nil
		},
	}

	return profileCmd
}

func init() {
	rootCmd.AddCommand(newProfileCmd())
}
