package cli

import (
	"fmt"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/config"
	"github.com/sebspolo/scrobble-guessr/internal/infra/memory"
	"github.com/spf13/cobra"
)

// NewFriendsCmd lists the crowd a leaderboard would rank.
func NewFriendsCmd(configPath *string) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "List a user and their Last.fm friends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			client, err := newLastFMClient(cfg)
			if err != nil {
				return err
			}
			service := app.NewLeaderboardService(client, nil, memory.NewOperationGuard())
			crowd, err := service.Crowd(cmd.Context(), user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range crowd {
				if m.RealName != "" {
					fmt.Fprintf(out, "%s (%s)\n", m.Name, m.RealName)
					continue
				}
				fmt.Fprintln(out, m.Name)
			}
			fmt.Fprintf(out, "%d users\n", len(crowd))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Last.fm username")
	return cmd
}
