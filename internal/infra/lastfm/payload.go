package lastfm

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The payload types below never fail to decode. Last.fm sends counts as
// strings, collapses one-element lists into a bare object, and sometimes
// gives an album's artist as a plain string; every shape degrades to a zero
// value instead of an error.

// text accepts a JSON string or number.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = text(n.String())
		return nil
	}
	*t = ""
	return nil
}

// count accepts a JSON number or numeric string; anything else, and any
// negative value, is zero.
type count int64

func (c *count) UnmarshalJSON(b []byte) error {
	*c = 0
	var raw text
	_ = raw.UnmarshalJSON(b)
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 0 {
			*c = count(n)
		}
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f < math.MaxInt64 {
		*c = count(f)
	}
	return nil
}

// optionalCount is a count that remembers whether the field was present.
type optionalCount struct {
	Value count
	Set   bool
}

func (o *optionalCount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = optionalCount{}
		return nil
	}
	o.Set = true
	return o.Value.UnmarshalJSON(b)
}

// artistRef accepts {"name": ...}, {"#text": ...} or a bare string.
type artistRef string

func (a *artistRef) UnmarshalJSON(b []byte) error {
	*a = ""
	var s text
	if err := json.Unmarshal(b, &s); err == nil && s != "" {
		*a = artistRef(s)
		return nil
	}
	var obj struct {
		Name text `json:"name"`
		Text text `json:"#text"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		if obj.Name != "" {
			*a = artistRef(obj.Name)
		} else {
			*a = artistRef(obj.Text)
		}
	}
	return nil
}

// list accepts an array or a single object. Items that are not objects are
// dropped.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	*l = nil
	b = bytes.TrimSpace(b)
	var raws []json.RawMessage
	switch {
	case len(b) > 0 && b[0] == '[':
		if err := json.Unmarshal(b, &raws); err != nil {
			return nil
		}
	case len(b) > 0 && b[0] == '{':
		raws = []json.RawMessage{b}
	default:
		return nil
	}
	for _, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		*l = append(*l, item)
	}
	return nil
}

// object decodes into T when the value is a JSON object and leaves the zero
// value otherwise.
type object[T any] struct {
	V T
}

func (o *object[T]) UnmarshalJSON(b []byte) error {
	var zero T
	o.V = zero
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(b, &o.V); err != nil {
		o.V = zero
	}
	return nil
}

type topItem struct {
	Name      text      `json:"name"`
	Artist    artistRef `json:"artist"`
	Playcount count     `json:"playcount"`
}

type topTracksPayload struct {
	TopTracks object[struct {
		Track list[topItem] `json:"track"`
	}] `json:"toptracks"`
}

type topAlbumsPayload struct {
	TopAlbums object[struct {
		Album list[topItem] `json:"album"`
	}] `json:"topalbums"`
}

type topArtistsPayload struct {
	TopArtists object[struct {
		Artist list[topItem] `json:"artist"`
	}] `json:"topartists"`
}

type artistInfoPayload struct {
	Artist object[struct {
		Stats object[struct {
			UserPlaycount optionalCount `json:"userplaycount"`
		}] `json:"stats"`
	}] `json:"artist"`
}

type albumInfoPayload struct {
	Album object[struct {
		UserPlaycount optionalCount `json:"userplaycount"`
	}] `json:"album"`
}

type trackInfoPayload struct {
	Track object[struct {
		UserPlaycount optionalCount `json:"userplaycount"`
	}] `json:"track"`
}

type artistTracksPayload struct {
	ArtistTracks object[struct {
		Attr object[struct {
			Total optionalCount `json:"total"`
		}] `json:"@attr"`
		Track json.RawMessage `json:"track"`
	}] `json:"artisttracks"`
}

type image struct {
	Size text `json:"size"`
	URL  text `json:"#text"`
}

type friendsPayload struct {
	Friends object[struct {
		User list[struct {
			Name     text        `json:"name"`
			RealName text        `json:"realname"`
			Image    list[image] `json:"image"`
		}] `json:"user"`
		Attr object[struct {
			TotalPages count `json:"totalPages"`
		}] `json:"@attr"`
	}] `json:"friends"`
}

// decode unmarshals raw into v, ignoring errors: v keeps zero values for
// anything it could not read.
func decode(raw []byte, v any) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
