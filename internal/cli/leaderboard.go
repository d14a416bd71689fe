package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/config"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"github.com/sebspolo/scrobble-guessr/internal/infra/memory"
	"github.com/spf13/cobra"
)

type leaderboardFlags struct {
	owner  string
	users  string
	kind   string
	artist string
	album  string
	track  string
	window string
	from   string
	to     string
}

// NewLeaderboardCmd ranks a user and their friends by plays of one entity.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var flags leaderboardFlags
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank you and your friends by plays of an artist, album or track",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, *configPath, flags)
		},
	}
	cmd.Flags().StringVar(&flags.owner, "owner", "", "your Last.fm username")
	cmd.Flags().StringVar(&flags.users, "users", "", "rank these users instead of the owner's friends")
	cmd.Flags().StringVar(&flags.kind, "kind", string(domain.KindArtist), "artist, album or track")
	cmd.Flags().StringVar(&flags.artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&flags.album, "album", "", "album title (kind album)")
	cmd.Flags().StringVar(&flags.track, "track", "", "track title (kind track)")
	cmd.Flags().StringVar(&flags.window, "window", string(domain.WindowAll), "all, 7d, 30d, 365d, this_month or this_year")
	cmd.Flags().StringVar(&flags.from, "from", "", "custom range start, YYYY-MM-DD (artists only)")
	cmd.Flags().StringVar(&flags.to, "to", "", "custom range end, YYYY-MM-DD inclusive (artists only)")
	return cmd
}

func runLeaderboard(cmd *cobra.Command, configPath string, flags leaderboardFlags) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	window, err := domain.ResolveWindow(flags.window, flags.from, flags.to)
	if err != nil {
		return err
	}
	target := domain.Target{
		Kind:   domain.CategoryKind(strings.ToLower(strings.TrimSpace(flags.kind))),
		Artist: flags.artist,
		Album:  flags.album,
		Track:  flags.track,
	}
	client, err := newLastFMClient(cfg)
	if err != nil {
		return err
	}

	service := app.NewLeaderboardService(client,
		app.NewLeaderboardBuilder(app.NewCountResolver(client), cfg.Concurrency()),
		memory.NewOperationGuard())
	var lb domain.Leaderboard
	if flags.users != "" {
		crowd := []domain.Member{}
		for _, name := range domain.ParseSubjects(flags.users) {
			crowd = append(crowd, domain.Member{Name: name})
		}
		lb, err = service.BuildFor(cmd.Context(), target, window, crowd)
	} else {
		lb, err = service.Build(cmd.Context(), flags.owner, target, window)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", target.Normalized().Name(), window.Key)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, row := range lb.Rows {
		fmt.Fprintf(tw, "%d.\t%s\t%d\t%s\n", i+1, row.Subject, row.Count, row.LibraryLink)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(lb.Rows) == 0 {
		fmt.Fprintln(out, "nobody has played this yet")
	}
	if len(lb.Missing) > 0 {
		fmt.Fprintf(out, "no plays: %s\n", strings.Join(lb.Missing, ", "))
	}
	return nil
}
