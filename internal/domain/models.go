package domain

import (
	"strings"
	"time"
)

// CategoryKind is the entity type a statistic is about.
type CategoryKind string

const (
	KindTrack  CategoryKind = "track"
	KindAlbum  CategoryKind = "album"
	KindArtist CategoryKind = "artist"
)

// AllCategories lists the kinds in fetch order.
var AllCategories = []CategoryKind{KindTrack, KindAlbum, KindArtist}

// StatRecord is one entry of a user's top list, normalized across kinds.
// Artist is empty for KindArtist records.
type StatRecord struct {
	Kind      CategoryKind `json:"kind"`
	Name      string       `json:"name"`
	Artist    string       `json:"artist"`
	Playcount int64        `json:"playcount"`
}

// Label renders the record the way the quiz prompt shows it.
func (r StatRecord) Label() string {
	if r.Kind == KindArtist || r.Artist == "" {
		return r.Name
	}
	return r.Name + " — " + r.Artist
}

// Dataset maps subject -> period -> kind -> top records. Cells for known
// subjects are never nil; a failed fetch leaves an empty slice.
type Dataset map[string]map[Period]map[CategoryKind][]StatRecord

// NewDataset pre-fills an empty cell for every subject, period and kind.
func NewDataset(subjects []string, periods []Period, kinds []CategoryKind) Dataset {
	ds := make(Dataset, len(subjects))
	for _, subject := range subjects {
		byPeriod := make(map[Period]map[CategoryKind][]StatRecord, len(periods))
		for _, period := range periods {
			byKind := make(map[CategoryKind][]StatRecord, len(kinds))
			for _, kind := range kinds {
				byKind[kind] = []StatRecord{}
			}
			byPeriod[period] = byKind
		}
		ds[subject] = byPeriod
	}
	return ds
}

// Cell returns the records for one slice, or an empty slice when unknown.
func (ds Dataset) Cell(subject string, period Period, kind CategoryKind) []StatRecord {
	if records := ds[subject][period][kind]; records != nil {
		return records
	}
	return []StatRecord{}
}

// Set stores the records for one slice, creating intermediate maps as needed.
func (ds Dataset) Set(subject string, period Period, kind CategoryKind, records []StatRecord) {
	if records == nil {
		records = []StatRecord{}
	}
	byPeriod, ok := ds[subject]
	if !ok {
		byPeriod = make(map[Period]map[CategoryKind][]StatRecord)
		ds[subject] = byPeriod
	}
	byKind, ok := byPeriod[period]
	if !ok {
		byKind = make(map[CategoryKind][]StatRecord)
		byPeriod[period] = byKind
	}
	byKind[kind] = records
}

// Question asks which subject produced ObservedCount plays of Record in Period.
type Question struct {
	CorrectSubject string       `json:"-"`
	Category       CategoryKind `json:"category"`
	Period         Period       `json:"period"`
	Record         StatRecord   `json:"record"`
	ObservedCount  int64        `json:"observedCount"`
	Choices        []string     `json:"choices"`
}

// ChoiceForKey maps a hotkey to a choice: "1".."9" select the first nine
// choices and "0" selects the tenth.
func (q Question) ChoiceForKey(key string) (string, bool) {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return "", false
	}
	idx := int(key[0] - '1')
	if key[0] == '0' {
		idx = 9
	}
	if idx >= len(q.Choices) {
		return "", false
	}
	return q.Choices[idx], true
}

// AnswerResult summarizes the outcome of one submission.
type AnswerResult struct {
	Choice         string `json:"choice"`
	Correct        bool   `json:"correct"`
	CorrectSubject string `json:"correctSubject"`
}

// Target is the entity a leaderboard compares users on.
type Target struct {
	Kind   CategoryKind `json:"kind"`
	Artist string       `json:"artist"`
	Album  string       `json:"album,omitempty"`
	Track  string       `json:"track,omitempty"`
}

// Normalized trims every name field.
func (t Target) Normalized() Target {
	return Target{
		Kind:   t.Kind,
		Artist: strings.TrimSpace(t.Artist),
		Album:  strings.TrimSpace(t.Album),
		Track:  strings.TrimSpace(t.Track),
	}
}

// Name is the entity's own name: the artist, album or track title.
func (t Target) Name() string {
	switch t.Kind {
	case KindAlbum:
		return t.Album
	case KindTrack:
		return t.Track
	default:
		return t.Artist
	}
}

// Validate checks the target has the names its kind needs and that the
// window is supported for the kind.
func (t Target) Validate(w Window) error {
	t = t.Normalized()
	switch t.Kind {
	case KindArtist:
		if t.Artist == "" {
			return Invalidf("enter an artist name")
		}
	case KindAlbum:
		if t.Artist == "" || t.Album == "" {
			return Invalidf("enter both artist and album")
		}
	case KindTrack:
		if t.Artist == "" || t.Track == "" {
			return Invalidf("enter both artist and track")
		}
	default:
		return Invalidf("unknown kind %q", t.Kind)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.IsCalendar() && t.Kind != KindArtist {
		return Invalidf("window %q is only supported for artists; use all, 7d, 30d or 365d for %ss", w.Key, t.Kind)
	}
	return nil
}

// Member is one user in a leaderboard crowd.
type Member struct {
	Name     string `json:"name"`
	RealName string `json:"realName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// LeaderboardRow is one ranked user.
type LeaderboardRow struct {
	Subject     string `json:"subject"`
	AvatarURL   string `json:"avatarUrl"`
	Count       int64  `json:"count"`
	LibraryLink string `json:"libraryLink"`
}

// Leaderboard partitions a crowd into ranked rows and users with no plays.
type Leaderboard struct {
	Target    Target           `json:"target"`
	Window    Window           `json:"window"`
	Rows      []LeaderboardRow `json:"rows"`
	Missing   []string         `json:"missing"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
