package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

func TestDatasetBuilderIsolatesFailures(t *testing.T) {
	lister := &fakeLister{
		lists: map[string][]domain.StatRecord{
			"alice/7day/artist": {{Kind: domain.KindArtist, Name: "Autechre", Playcount: 5}},
			"bob/7day/artist":   {{Kind: domain.KindArtist, Name: "Burial", Playcount: 9}},
		},
		fail: map[string]error{
			"alice/7day/track": errors.New("last.fm request user.getTopTracks failed (503)"),
		},
	}
	builder := app.NewDatasetBuilder(lister, 2)

	ds := builder.Build(context.Background(), []string{"alice", "bob"}, nil, nil)

	if lister.calls != 24 {
		t.Fatalf("expected 24 attempts, got %d", lister.calls)
	}
	if got := ds.Cell("alice", domain.Period7Day, domain.KindTrack); got == nil || len(got) != 0 {
		t.Fatalf("expected failed slice to be empty, got %v", got)
	}
	if got := ds.Cell("alice", domain.Period7Day, domain.KindArtist); len(got) != 1 || got[0].Name != "Autechre" {
		t.Fatalf("unexpected alice slice %v", got)
	}
	if got := ds.Cell("bob", domain.Period7Day, domain.KindArtist); len(got) != 1 || got[0].Name != "Burial" {
		t.Fatalf("unexpected bob slice %v", got)
	}
	for _, subject := range []string{"alice", "bob"} {
		for _, period := range domain.AllPeriods {
			for _, kind := range domain.AllCategories {
				if ds[subject][period][kind] == nil {
					t.Fatalf("expected pre-filled cell %s/%s/%s", subject, period, kind)
				}
			}
		}
	}
}

func TestDatasetBuilderTruncatesSlices(t *testing.T) {
	long := make([]domain.StatRecord, 15)
	for i := range long {
		long[i] = domain.StatRecord{Kind: domain.KindTrack, Name: "t", Playcount: int64(i)}
	}
	lister := &fakeLister{lists: map[string][]domain.StatRecord{"alice/overall/track": long}}

	ds := app.NewDatasetBuilder(lister, 4).Build(context.Background(), []string{"alice"},
		[]domain.Period{domain.PeriodOverall}, []domain.CategoryKind{domain.KindTrack})

	if got := len(ds.Cell("alice", domain.PeriodOverall, domain.KindTrack)); got != app.SliceLimit {
		t.Fatalf("expected %d records, got %d", app.SliceLimit, got)
	}
	if lister.calls != 1 {
		t.Fatalf("expected a single fetch for the narrowed dataset, got %d", lister.calls)
	}
}
