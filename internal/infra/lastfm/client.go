package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRetries = 2
	DefaultBackoff = 500 * time.Millisecond
)

// ErrMissingAPIKey is returned when a client is built without a key.
var ErrMissingAPIKey = fmt.Errorf("%w: missing Last.fm API key", domain.ErrValidation)

// Options configures a Client. Zero values select the defaults; a negative
// Retries disables retrying.
type Options struct {
	BaseURL    string
	APIKey     string
	Retries    int
	Backoff    time.Duration
	HTTPClient *http.Client
	// Sleep waits between attempts. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client talks to the Last.fm JSON API.
type Client struct {
	baseURL string
	apiKey  string
	retries int
	backoff time.Duration
	http    *http.Client
	sleep   func(ctx context.Context, d time.Duration) error
	sf      singleflight.Group
}

// New builds a client. It fails only when no API key is configured.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		retries: opts.Retries,
		backoff: opts.Backoff,
		http:    opts.HTTPClient,
		sleep:   opts.Sleep,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.retries == 0 {
		c.retries = DefaultRetries
	} else if c.retries < 0 {
		c.retries = 0
	}
	if c.backoff <= 0 {
		c.backoff = DefaultBackoff
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	return c, nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes req and returns the raw JSON body. Concurrent calls for the
// same URL share one round trip.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	target := req.URL(c.baseURL, c.apiKey)
	result, err, _ := c.sf.Do(target, func() (interface{}, error) {
		return c.fetch(ctx, req.Method, target)
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

// fetch retries 429 and 5xx responses up to c.retries more times, sleeping
// backoff*attempt between tries. Other statuses and transport errors fail
// straight away.
func (c *Client) fetch(ctx context.Context, method, target string) (json.RawMessage, error) {
	var lastStatus int
	for attempt := 0; attempt <= c.retries; attempt++ {
		body, status, err := c.get(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("%s request error: %w", method, err)
		}
		if status >= 200 && status < 300 {
			if !json.Valid(body) {
				return nil, fmt.Errorf("%s decode error: invalid json body", method)
			}
			return json.RawMessage(body), nil
		}

		lastStatus = status
		if !domain.IsRetryableStatus(status) || attempt == c.retries {
			break
		}
		delay := c.backoff * time.Duration(attempt+1)
		log.Printf("%s returned %d; retrying in %s", method, status, delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s backoff: %w", method, err)
		}
	}
	return nil, &domain.RemoteError{Method: method, StatusCode: lastStatus}
}

func (c *Client) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// IsRemote reports whether err came from a non-2xx Last.fm response.
func IsRemote(err error) bool {
	var remote *domain.RemoteError
	return errors.As(err, &remote)
}
