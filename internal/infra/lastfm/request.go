package lastfm

import (
	"net/url"
	"strconv"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// DefaultBaseURL is the Last.fm JSON API endpoint.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

const (
	// TopLimit is how many records the quiz keeps per slice.
	TopLimit        = 10
	friendsPageSize = 200
)

// Request describes one Last.fm call: a method plus its parameters.
type Request struct {
	Method string
	Params map[string]string
}

// NewRequest copies params so the request can't be mutated by the caller.
func NewRequest(method string, params map[string]string) Request {
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return Request{Method: method, Params: copied}
}

// URL renders the request against base. Empty params are omitted; the
// query is sorted by key so equal requests render to equal URLs.
func (r Request) URL(base, apiKey string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		u, _ = url.Parse(DefaultBaseURL)
	}
	q := url.Values{}
	for k, v := range r.Params {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("method", r.Method)
	q.Set("api_key", apiKey)
	q.Set("format", "json")
	u.RawQuery = q.Encode()
	return u.String()
}

// TopListMethod returns the user top-list method for a kind.
func TopListMethod(kind domain.CategoryKind) string {
	switch kind {
	case domain.KindAlbum:
		return "user.getTopAlbums"
	case domain.KindArtist:
		return "user.getTopArtists"
	default:
		return "user.getTopTracks"
	}
}

// TopListRequest asks for page 1 of a user's top list.
func TopListRequest(user string, kind domain.CategoryKind, period domain.Period, limit int) Request {
	return NewRequest(TopListMethod(kind), map[string]string{
		"user":   user,
		"period": string(period),
		"limit":  strconv.Itoa(limit),
		"page":   "1",
	})
}

// InfoRequest asks for the entity info carrying the user's cumulative count.
func InfoRequest(user string, target domain.Target) Request {
	params := map[string]string{
		"artist":   target.Artist,
		"username": user,
	}
	method := "artist.getInfo"
	switch target.Kind {
	case domain.KindAlbum:
		method = "album.getInfo"
		params["album"] = target.Album
	case domain.KindTrack:
		method = "track.getInfo"
		params["track"] = target.Track
	}
	return NewRequest(method, params)
}

// ArtistTracksRequest asks for the user's scrobbles of artist between from
// and to. Only the total matters, so the page holds a single track.
func ArtistTracksRequest(user, artist string, from, to time.Time, conv domain.Convention) Request {
	params := map[string]string{
		"user":   user,
		"artist": artist,
		"limit":  "1",
		"page":   "1",
	}
	start, end := strconv.FormatInt(from.Unix(), 10), strconv.FormatInt(to.Unix(), 10)
	if conv == domain.ConventionStartEnd {
		params["startTimestamp"] = start
		params["endTimestamp"] = end
	} else {
		params["from"] = start
		params["to"] = end
	}
	return NewRequest("user.getArtistTracks", params)
}

// FriendsRequest asks for one page of a user's friends.
func FriendsRequest(user string, page int) Request {
	return NewRequest("user.getFriends", map[string]string{
		"user":  user,
		"limit": strconv.Itoa(friendsPageSize),
		"page":  strconv.Itoa(page),
	})
}
