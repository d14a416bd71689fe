package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// RankedScanLimit is the top-list depth scanned for rolling windows. An
// entity the user ranks below it resolves to 0 even if it was played.
const RankedScanLimit = 1000

// CountSource is the subset of the Last.fm client the resolver needs.
type CountSource interface {
	UserPlaycount(ctx context.Context, user string, target domain.Target) (int64, error)
	TopList(ctx context.Context, user string, kind domain.CategoryKind, period domain.Period, limit int) ([]domain.StatRecord, error)
	ArtistTracksTotal(ctx context.Context, user, artist string, from, to time.Time, conv domain.Convention) (int64, error)
}

// CountResolver answers "how many times did user play target in window".
type CountResolver struct {
	source CountSource
	now    func() time.Time
}

func NewCountResolver(source CountSource) *CountResolver {
	return NewCountResolverWithClock(source, time.Now)
}

// NewCountResolverWithClock pins the clock used for window bounds.
func NewCountResolverWithClock(source CountSource, now func() time.Time) *CountResolver {
	return &CountResolver{source: source, now: now}
}

// Count resolves a single play count. Remote failures are logged and
// resolve to 0; only an unsupported target/window combination is an error,
// and it is returned before any request is made.
func (r *CountResolver) Count(ctx context.Context, user string, target domain.Target, window domain.Window) (int64, error) {
	target = target.Normalized()
	if err := target.Validate(window); err != nil {
		return 0, err
	}

	switch {
	case window.IsAllTime():
		n, err := r.source.UserPlaycount(ctx, user, target)
		if err != nil {
			log.Printf("count %s for %s (all time): %v", target.Name(), user, err)
			return 0, nil
		}
		return n, nil

	case window.IsCalendar():
		from, to, _ := window.Range(r.now())
		n, err := r.source.ArtistTracksTotal(ctx, user, target.Artist, from, to, domain.ConventionFromTo)
		if err != nil {
			log.Printf("count %s for %s (%s, %s): %v", target.Artist, user, window.Key, domain.ConventionFromTo, err)
			n = 0
		}
		if n > 0 {
			return n, nil
		}
		n, err = r.source.ArtistTracksTotal(ctx, user, target.Artist, from, to, domain.ConventionStartEnd)
		if err != nil {
			log.Printf("count %s for %s (%s, %s): %v", target.Artist, user, window.Key, domain.ConventionStartEnd, err)
			return 0, nil
		}
		return n, nil
	}

	period, ok := window.TopPeriod()
	if !ok {
		return 0, domain.Invalidf("unsupported window %q", window.Key)
	}
	records, err := r.source.TopList(ctx, user, target.Kind, period, RankedScanLimit)
	if err != nil {
		log.Printf("count %s for %s (%s): %v", target.Name(), user, window.Key, err)
		return 0, nil
	}
	for _, record := range records {
		if matches(record, target) {
			return record.Playcount, nil
		}
	}
	return 0, nil
}

func matches(record domain.StatRecord, target domain.Target) bool {
	if !sameName(record.Name, target.Name()) {
		return false
	}
	if target.Kind == domain.KindArtist {
		return true
	}
	return sameName(record.Artist, target.Artist)
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
