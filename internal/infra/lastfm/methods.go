package lastfm

import (
	"context"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// TopList fetches and normalizes a user's top list for one period.
func (c *Client) TopList(ctx context.Context, user string, kind domain.CategoryKind, period domain.Period, limit int) ([]domain.StatRecord, error) {
	raw, err := c.Do(ctx, TopListRequest(user, kind, period, limit))
	if err != nil {
		return nil, err
	}
	return Normalize(kind, raw), nil
}

// UserPlaycount returns the user's all-time count for target.
func (c *Client) UserPlaycount(ctx context.Context, user string, target domain.Target) (int64, error) {
	raw, err := c.Do(ctx, InfoRequest(user, target))
	if err != nil {
		return 0, err
	}
	return userPlaycount(target.Kind, raw), nil
}

// ArtistTracksTotal returns how many scrobbles of artist the user has
// between from and to, bounding the listing with the given convention.
func (c *Client) ArtistTracksTotal(ctx context.Context, user, artist string, from, to time.Time, conv domain.Convention) (int64, error) {
	raw, err := c.Do(ctx, ArtistTracksRequest(user, artist, from, to, conv))
	if err != nil {
		return 0, err
	}
	return artistTracksTotal(raw), nil
}

// Friends walks every page of the user's friends list.
func (c *Client) Friends(ctx context.Context, user string) ([]domain.Member, error) {
	var out []domain.Member
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := c.Do(ctx, FriendsRequest(user, page))
		if err != nil {
			return nil, err
		}
		members, totalPages := friends(raw)
		out = append(out, members...)
		if page >= totalPages {
			return out, nil
		}
	}
}
