package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeLastFM answers the handful of methods the commands call.
func fakeLastFM(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			http.Error(w, `{"error":10,"message":"Invalid API key"}`, http.StatusForbidden)
			return
		}
		user := q.Get("user")
		if user == "" {
			user = q.Get("username")
		}
		switch q.Get("method") {
		case "user.getTopTracks":
			if user == "alice" && q.Get("period") == "overall" {
				_, _ = w.Write([]byte(`{"toptracks":{"track":[{"name":"Roygbiv","playcount":"64","artist":{"name":"Boards of Canada"}}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"toptracks":{"track":[]}}`))
		case "user.getTopAlbums", "user.getTopArtists":
			_, _ = w.Write([]byte(`{}`))
		case "user.getFriends":
			_, _ = w.Write([]byte(`{"friends":{"user":[{"name":"bob","realname":"Bob"}],"@attr":{"totalPages":"1"}}}`))
		case "artist.getInfo":
			if user == "alice" {
				_, _ = w.Write([]byte(`{"artist":{"stats":{"userplaycount":"10"}}}`))
				return
			}
			_, _ = w.Write([]byte(`{"artist":{"stats":{}}}`))
		default:
			http.Error(w, "unexpected method", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "lastfm:\n  base_url: " + baseURL + "/2.0/\nfetch:\n  retries: 0\n  concurrency: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQuizCommandPlaysAFullRound(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "test-key")
	cfgPath := writeTestConfig(t, fakeLastFM(t).URL)

	out, err := execute(t, "1\nbob\nn\n", "quiz", "--config", cfgPath, "--users", "alice,bob", "--questions", "2", "--seed", "42")
	if err != nil {
		t.Fatalf("quiz: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Which user had 64 scrobbles on [track] Roygbiv — Boards of Canada in all time?") {
		t.Fatalf("expected question prompt, got:\n%s", out)
	}
	if !strings.Contains(out, "Correct!") || !strings.Contains(out, "Wrong. Correct answer: alice") {
		t.Fatalf("expected one right and one wrong answer, got:\n%s", out)
	}
	if !strings.Contains(out, "You scored 1 / 2") {
		t.Fatalf("expected final score, got:\n%s", out)
	}
}

func TestQuizCommandNeedsAPIKey(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "")
	cfgPath := writeTestConfig(t, fakeLastFM(t).URL)

	_, err := execute(t, "", "quiz", "--config", cfgPath, "--users", "alice")
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestLeaderboardCommand(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "test-key")
	cfgPath := writeTestConfig(t, fakeLastFM(t).URL)

	out, err := execute(t, "", "leaderboard", "--config", cfgPath, "--owner", "alice", "--artist", "Boards of Canada")
	if err != nil {
		t.Fatalf("leaderboard: %v\n%s", err, out)
	}
	if !strings.Contains(out, "alice") || !strings.Contains(out, "https://www.last.fm/user/alice/library/music/Boards%20of%20Canada") {
		t.Fatalf("expected alice ranked with a library link, got:\n%s", out)
	}
	if !strings.Contains(out, "no plays: bob") {
		t.Fatalf("expected bob listed without plays, got:\n%s", out)
	}

	_, err = execute(t, "", "leaderboard", "--config", cfgPath, "--owner", "alice", "--kind", "track", "--artist", "x", "--track", "y", "--window", "this_month")
	if err == nil {
		t.Fatalf("expected track + calendar window to be rejected")
	}
}

func TestLeaderboardCommandWithExplicitUsers(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "test-key")
	cfgPath := writeTestConfig(t, fakeLastFM(t).URL)

	out, err := execute(t, "", "leaderboard", "--config", cfgPath, "--users", "carol; alice", "--artist", "Boards of Canada")
	if err != nil {
		t.Fatalf("leaderboard: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1.  alice  10") {
		t.Fatalf("expected alice ranked first, got:\n%s", out)
	}
	if !strings.Contains(out, "no plays: carol") || strings.Contains(out, "bob") {
		t.Fatalf("expected only the listed users, got:\n%s", out)
	}
}

func TestFriendsCommand(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "test-key")
	cfgPath := writeTestConfig(t, fakeLastFM(t).URL)

	out, err := execute(t, "", "friends", "--config", cfgPath, "--user", "alice")
	if err != nil {
		t.Fatalf("friends: %v\n%s", err, out)
	}
	if !strings.Contains(out, "alice\nbob (Bob)\n2 users") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
