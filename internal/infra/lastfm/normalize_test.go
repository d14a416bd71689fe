package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

func TestNormalizeTracks(t *testing.T) {
	raw := []byte(`{"toptracks":{"track":[
		{"name":"Hyperballad","artist":{"name":"Björk"},"playcount":"42"},
		{"name":"Army of Me","playcount":7}
	]}}`)

	got := Normalize(domain.KindTrack, raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	want := domain.StatRecord{Kind: domain.KindTrack, Name: "Hyperballad", Artist: "Björk", Playcount: 42}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
	if got[1].Artist != "" || got[1].Playcount != 7 {
		t.Fatalf("expected missing artist to default, got %+v", got[1])
	}
}

func TestNormalizeAlbumArtistShapes(t *testing.T) {
	raw := []byte(`{"topalbums":{"album":[
		{"name":"Post","artist":{"name":"Björk"},"playcount":"3"},
		{"name":"Homogenic","artist":"Björk","playcount":"2"},
		{"name":"Vespertine","artist":{"#text":"Björk"},"playcount":"1"}
	]}}`)

	for i, record := range Normalize(domain.KindAlbum, raw) {
		if record.Artist != "Björk" {
			t.Fatalf("record %d: expected artist resolved to string, got %q", i, record.Artist)
		}
	}
}

func TestNormalizeArtistsHaveNoAttribution(t *testing.T) {
	raw := []byte(`{"topartists":{"artist":{"name":"Björk","artist":"ignored","playcount":"9"}}}`)
	got := Normalize(domain.KindArtist, raw)
	if len(got) != 1 {
		t.Fatalf("expected single object to be read as a list, got %d", len(got))
	}
	if got[0].Artist != "" || got[0].Name != "Björk" || got[0].Playcount != 9 {
		t.Fatalf("unexpected record %+v", got[0])
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	payloads := []string{
		``,
		`null`,
		`[]`,
		`"oops"`,
		`{"toptracks":null}`,
		`{"toptracks":"nope"}`,
		`{"toptracks":{"track":null}}`,
		`{"toptracks":{"track":[null, 3, "x", {}]}}`,
		`{"toptracks":{"track":[{"name":5,"artist":[],"playcount":"-4"}]}}`,
		`{"toptracks":{"track":[{"name":"a","artist":{"name":null},"playcount":"lots"}]}}`,
	}
	for _, p := range payloads {
		for _, kind := range domain.AllCategories {
			records := Normalize(kind, []byte(p))
			if records == nil {
				t.Fatalf("expected non-nil slice for %q", p)
			}
			for _, r := range records {
				if r.Playcount < 0 {
					t.Fatalf("negative playcount from %q: %+v", p, r)
				}
			}
		}
	}

	got := Normalize(domain.KindTrack, []byte(`{"toptracks":{"track":[null, 3, "x", {}]}}`))
	if len(got) != 1 || got[0] != (domain.StatRecord{Kind: domain.KindTrack}) {
		t.Fatalf("expected one zero-value record from {}, got %+v", got)
	}
	got = Normalize(domain.KindTrack, []byte(`{"toptracks":{"track":[{"name":5,"artist":[],"playcount":"-4"}]}}`))
	if got[0].Name != "5" || got[0].Artist != "" || got[0].Playcount != 0 {
		t.Fatalf("unexpected degraded record %+v", got[0])
	}
}

func TestUserPlaycountAbsentIsZero(t *testing.T) {
	cases := []struct {
		kind domain.CategoryKind
		raw  string
		want int64
	}{
		{domain.KindArtist, `{"artist":{"stats":{"userplaycount":"12"}}}`, 12},
		{domain.KindArtist, `{"artist":{"stats":{}}}`, 0},
		{domain.KindAlbum, `{"album":{"userplaycount":5}}`, 5},
		{domain.KindAlbum, `{"error":6,"message":"Album not found"}`, 0},
		{domain.KindTrack, `{"track":{"userplaycount":"3"}}`, 3},
		{domain.KindTrack, `{"track":{"userplaycount":null}}`, 0},
	}
	for _, tc := range cases {
		if got := userPlaycount(tc.kind, []byte(tc.raw)); got != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.kind, tc.raw, tc.want, got)
		}
	}
}

func TestArtistTracksTotal(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{`{"artisttracks":{"@attr":{"total":"17"},"track":[{}]}}`, 17},
		{`{"artisttracks":{"track":[{},{}]}}`, 2},
		{`{"artisttracks":{"track":{"name":"x"}}}`, 1},
		{`{"artisttracks":{}}`, 0},
		{`{}`, 0},
	}
	for _, tc := range cases {
		if got := artistTracksTotal([]byte(tc.raw)); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.raw, tc.want, got)
		}
	}
}

func TestFriendsWalksPages(t *testing.T) {
	pages := map[string]string{
		"1": `{"friends":{"user":[
			{"name":"bob","realname":"Bob","image":[{"size":"small","#text":"https://img/bob-s.png"},{"size":"large","#text":"https://img/bob-l.png"}]},
			{"name":"carol","image":[{"size":"large","#text":"https://img/carol-l.png"}]}
		],"@attr":{"totalPages":"2"}}}`,
		"2": `{"friends":{"user":{"name":"dave"},"@attr":{"totalPages":"2"}}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("method") != "user.getFriends" {
			http.Error(w, "unexpected method", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(pages[r.URL.Query().Get("page")]))
	}))
	defer srv.Close()

	c, err := New(Options{APIKey: "k", BaseURL: srv.URL + "/2.0/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	members, err := c.Friends(context.Background(), "alice")
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 friends, got %d", len(members))
	}
	if members[0].Avatar != "https://img/bob-s.png" || members[0].RealName != "Bob" {
		t.Fatalf("expected small avatar for bob, got %+v", members[0])
	}
	if members[1].Avatar != "https://img/carol-l.png" {
		t.Fatalf("expected first-image fallback for carol, got %+v", members[1])
	}
	if members[2].Name != "dave" {
		t.Fatalf("expected dave from page 2, got %+v", members[2])
	}
}

func TestTopListAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit != TopLimit || r.URL.Query().Get("period") != "7day" {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"topartists":{"artist":[{"name":"Björk","playcount":"8"}]}}`))
	}))
	defer srv.Close()

	c, err := New(Options{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	records, err := c.TopList(context.Background(), "alice", domain.KindArtist, domain.Period7Day, TopLimit)
	if err != nil {
		t.Fatalf("top list: %v", err)
	}
	if len(records) != 1 || records[0].Playcount != 8 {
		t.Fatalf("unexpected records %+v", records)
	}
}
