package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"github.com/sebspolo/scrobble-guessr/internal/infra/memory"
)

type stubFriends map[string][]domain.Member

func (s stubFriends) Friends(_ context.Context, user string) ([]domain.Member, error) {
	return s[user], nil
}

type stubCounter map[string]int64

func (s stubCounter) Count(_ context.Context, user string, target domain.Target, window domain.Window) (int64, error) {
	if err := target.Validate(window); err != nil {
		return 0, err
	}
	return s[user], nil
}

func newAPIServer(t *testing.T, guard app.OperationGuard) *httptest.Server {
	t.Helper()
	friends := stubFriends{"alice": {{Name: "bob", Avatar: "https://img/bob.png"}, {Name: "carol"}}}
	counts := stubCounter{"alice": 5, "bob": 12}
	service := app.NewLeaderboardService(friends, app.NewLeaderboardBuilder(counts, 4), guard)

	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLeaderboardEndpoint(t *testing.T) {
	server := newAPIServer(t, memory.NewOperationGuard())

	resp, err := http.Get(server.URL + "/api/leaderboard?owner=alice&kind=artist&artist=Burial&window=30d")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var lb domain.Leaderboard
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lb.Rows) != 2 || lb.Rows[0].Subject != "bob" || lb.Rows[0].Count != 12 || lb.Rows[1].Subject != "alice" {
		t.Fatalf("unexpected rows %+v", lb.Rows)
	}
	if len(lb.Missing) != 1 || lb.Missing[0] != "carol" {
		t.Fatalf("unexpected missing %v", lb.Missing)
	}
	if lb.Window.Key != domain.Window30Days {
		t.Fatalf("expected 30d window, got %s", lb.Window.Key)
	}
}

func TestLeaderboardEndpointStatuses(t *testing.T) {
	guard := memory.NewOperationGuard()
	server := newAPIServer(t, guard)

	cases := []struct {
		query string
		want  int
	}{
		{"owner=alice&kind=track&artist=Burial&track=Archangel&window=this_year", http.StatusBadRequest},
		{"owner=alice&kind=artist&window=all", http.StatusBadRequest},
		{"owner=alice&kind=artist&artist=Burial&window=fortnight", http.StatusBadRequest},
		{"owner=alice&kind=artist&artist=Burial&from=2024-01-01", http.StatusBadRequest},
		{"owner=&kind=artist&artist=Burial", http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, err := http.Get(server.URL + "/api/leaderboard?" + tc.query)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.query, tc.want, resp.StatusCode)
		}
	}

	_, _ = guard.TryAcquire(context.Background(), "leaderboard:alice")
	resp, err := http.Get(server.URL + "/api/leaderboard?owner=alice&artist=Burial")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while a build is pending, got %d", resp.StatusCode)
	}
}

func TestFriendsEndpoint(t *testing.T) {
	server := newAPIServer(t, memory.NewOperationGuard())

	resp, err := http.Get(server.URL + "/api/friends?user=alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var crowd []domain.Member
	if err := json.NewDecoder(resp.Body).Decode(&crowd); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(crowd) != 3 || crowd[0].Name != "alice" || crowd[1].Avatar != "https://img/bob.png" {
		t.Fatalf("unexpected crowd %+v", crowd)
	}
}
