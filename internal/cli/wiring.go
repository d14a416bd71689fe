package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/config"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"github.com/sebspolo/scrobble-guessr/internal/infra/lastfm"
)

// source is everything the services read from Last.fm.
type source interface {
	app.TopLister
	app.CountSource
	app.FriendsSource
}

// newLastFMClient builds the API client from config. It fails when no API
// key is configured.
func newLastFMClient(cfg config.Config) (*lastfm.Client, error) {
	retries := cfg.Retries()
	if retries == 0 {
		retries = -1
	}
	return lastfm.New(lastfm.Options{
		BaseURL: cfg.BaseURL(),
		APIKey:  cfg.APIKey(),
		Retries: retries,
		Backoff: config.Duration(cfg.Fetch.Backoff, config.DefaultBackoff),
		HTTPClient: &http.Client{
			Timeout: config.Duration(cfg.LastFM.Timeout, 15*time.Second),
		},
	})
}

// newSource returns the Last.fm client, or a source that refuses every call
// when no API key is configured, so the server can still start.
func newSource(cfg config.Config) source {
	client, err := newLastFMClient(cfg)
	if err != nil {
		log.Printf("last.fm disabled: %v", err)
		return noKeySource{}
	}
	return client
}

type noKeySource struct{}

func (noKeySource) TopList(context.Context, string, domain.CategoryKind, domain.Period, int) ([]domain.StatRecord, error) {
	return nil, lastfm.ErrMissingAPIKey
}

func (noKeySource) UserPlaycount(context.Context, string, domain.Target) (int64, error) {
	return 0, lastfm.ErrMissingAPIKey
}

func (noKeySource) ArtistTracksTotal(context.Context, string, string, time.Time, time.Time, domain.Convention) (int64, error) {
	return 0, lastfm.ErrMissingAPIKey
}

func (noKeySource) Friends(context.Context, string) ([]domain.Member, error) {
	return nil, lastfm.ErrMissingAPIKey
}

// quizDefaults reads the configured period and category filters.
func quizDefaults(cfg config.Config) ([]domain.Period, []domain.CategoryKind, error) {
	periods, err := domain.ParsePeriods(cfg.Quiz.Periods)
	if err != nil {
		return nil, nil, err
	}
	categories, err := domain.ParseCategories(cfg.Quiz.Categories)
	if err != nil {
		return nil, nil, err
	}
	return periods, categories, nil
}
