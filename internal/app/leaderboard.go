package app

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"github.com/sebspolo/scrobble-guessr/internal/taskpool"
)

// DefaultAvatar is shown for members without a profile picture.
const DefaultAvatar = "https://lastfm.freetls.fastly.net/i/u/avatar170s/2a96cbd8b46e442fc41c2b86b821562f.png"

// Counter resolves one member's play count.
type Counter interface {
	Count(ctx context.Context, user string, target domain.Target, window domain.Window) (int64, error)
}

// LeaderboardBuilder ranks a crowd by play count of one target.
type LeaderboardBuilder struct {
	counter     Counter
	concurrency int
	now         func() time.Time
}

func NewLeaderboardBuilder(counter Counter, concurrency int) *LeaderboardBuilder {
	return NewLeaderboardBuilderWithClock(counter, concurrency, time.Now)
}

// NewLeaderboardBuilderWithClock pins the clock used for links and UpdatedAt.
func NewLeaderboardBuilderWithClock(counter Counter, concurrency int, now func() time.Time) *LeaderboardBuilder {
	return &LeaderboardBuilder{counter: counter, concurrency: concurrency, now: now}
}

// Build resolves every member's count through the task pool. Members with a
// positive count become rows sorted by count descending; everyone else,
// including members whose lookup failed, is listed once in Missing.
func (b *LeaderboardBuilder) Build(ctx context.Context, target domain.Target, window domain.Window, crowd []domain.Member) (domain.Leaderboard, error) {
	target = target.Normalized()
	if err := target.Validate(window); err != nil {
		return domain.Leaderboard{}, err
	}
	if len(crowd) == 0 {
		return domain.Leaderboard{}, domain.Invalidf("no users to rank; enter a username and load friends first")
	}

	crowd = uniqueMembers(crowd)
	jobs := make([]taskpool.Job[int64], len(crowd))
	for i, member := range crowd {
		jobs[i] = func(ctx context.Context) (int64, error) {
			return b.counter.Count(ctx, member.Name, target, window)
		}
	}
	results := taskpool.Run(ctx, b.concurrency, jobs)

	now := b.now()
	rows := make([]domain.LeaderboardRow, 0, len(crowd))
	missing := make([]string, 0, len(crowd))
	for i, res := range results {
		member := crowd[i]
		if !res.OK() || res.Value <= 0 {
			missing = append(missing, member.Name)
			continue
		}
		avatar := member.Avatar
		if avatar == "" {
			avatar = DefaultAvatar
		}
		rows = append(rows, domain.LeaderboardRow{
			Subject:     member.Name,
			AvatarURL:   avatar,
			Count:       res.Value,
			LibraryLink: LibraryLink(member.Name, target, window, now),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	sort.Strings(missing)

	return domain.Leaderboard{
		Target:    target,
		Window:    window,
		Rows:      rows,
		Missing:   missing,
		UpdatedAt: now,
	}, nil
}

// uniqueMembers keeps the first member of each name.
func uniqueMembers(crowd []domain.Member) []domain.Member {
	seen := make(map[string]bool, len(crowd))
	out := make([]domain.Member, 0, len(crowd))
	for _, m := range crowd {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, m)
	}
	return out
}

// LibraryLink points at the user's library page for target. Artist links
// for bounded windows carry the date range.
func LibraryLink(user string, target domain.Target, window domain.Window, now time.Time) string {
	link := "https://www.last.fm/user/" + url.PathEscape(user) + "/library/music/" + url.PathEscape(target.Artist)
	switch target.Kind {
	case domain.KindAlbum:
		return link + "/" + url.PathEscape(target.Album)
	case domain.KindTrack:
		return link + "/" + url.PathEscape(target.Track)
	}
	from, to, ok := window.Range(now)
	if !ok {
		return link
	}
	if window.Key == domain.WindowCustom {
		// custom ranges end at midnight after the last included day
		to = to.Add(-24 * time.Hour)
	}
	q := url.Values{}
	q.Set("from", from.Format(domain.DateLayout))
	q.Set("to", to.Format(domain.DateLayout))
	return link + "?" + q.Encode()
}
