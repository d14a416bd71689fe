package domain

import (
	"strings"
	"time"
)

// Period is one of the built-in aggregation periods of the top-list methods.
type Period string

const (
	Period7Day    Period = "7day"
	Period1Month  Period = "1month"
	Period12Month Period = "12month"
	PeriodOverall Period = "overall"
)

// AllPeriods lists the quiz periods in fetch order.
var AllPeriods = []Period{Period7Day, Period1Month, Period12Month, PeriodOverall}

// ParsePeriods parses a list of period names. An empty list yields nil,
// which callers treat as "all periods".
func ParsePeriods(values []string) ([]Period, error) {
	var out []Period
	seen := map[Period]bool{}
	for _, value := range splitValues(values) {
		p := Period(value)
		valid := false
		for _, known := range AllPeriods {
			if p == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, Invalidf("unsupported period %q", value)
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// ParseCategories parses a list of category kinds. An empty list yields nil,
// which callers treat as "all categories".
func ParseCategories(values []string) ([]CategoryKind, error) {
	var out []CategoryKind
	seen := map[CategoryKind]bool{}
	for _, value := range splitValues(values) {
		k := CategoryKind(strings.TrimSuffix(value, "s"))
		if k != KindTrack && k != KindAlbum && k != KindArtist {
			return nil, Invalidf("unsupported category %q", value)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// WindowKey names a leaderboard time window.
type WindowKey string

const (
	WindowAll       WindowKey = "all"
	Window7Days     WindowKey = "7d"
	Window30Days    WindowKey = "30d"
	Window365Days   WindowKey = "365d"
	WindowThisMonth WindowKey = "this_month"
	WindowThisYear  WindowKey = "this_year"
	WindowCustom    WindowKey = "custom"
)

// Window is a leaderboard time window. From and To are only used by
// WindowCustom.
type Window struct {
	Key  WindowKey `json:"key"`
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// ParseWindow parses a window key; an empty key means all time.
func ParseWindow(key string) (Window, error) {
	w := Window{Key: WindowKey(strings.ToLower(strings.TrimSpace(key)))}
	if w.Key == "" {
		w.Key = WindowAll
	}
	switch w.Key {
	case WindowAll, Window7Days, Window30Days, Window365Days, WindowThisMonth, WindowThisYear:
		return w, nil
	case WindowCustom:
		return Window{}, Invalidf("custom window needs a from and to date")
	}
	return Window{}, Invalidf("unsupported window %q", key)
}

// CustomWindow builds an explicit date range window. to is exclusive.
func CustomWindow(from, to time.Time) Window {
	return Window{Key: WindowCustom, From: from.UTC(), To: to.UTC()}
}

// ResolveWindow builds a window from user input. When either date is set
// the window is a custom range of whole UTC days, both ends inclusive;
// otherwise key is parsed as a named window.
func ResolveWindow(key, from, to string) (Window, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return ParseWindow(key)
	}
	if from == "" || to == "" {
		return Window{}, Invalidf("custom window needs a from and to date")
	}
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return Window{}, Invalidf("bad from date %q, want YYYY-MM-DD", from)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return Window{}, Invalidf("bad to date %q, want YYYY-MM-DD", to)
	}
	w := CustomWindow(start, end.Add(24*time.Hour))
	return w, w.Validate()
}

// DateLayout is the date format of custom windows and library links.
const DateLayout = "2006-01-02"

// Validate checks custom ranges are ordered and present.
func (w Window) Validate() error {
	if w.Key != WindowCustom {
		return nil
	}
	if w.From.IsZero() || w.To.IsZero() {
		return Invalidf("custom window needs a from and to date")
	}
	if !w.From.Before(w.To) {
		return Invalidf("custom window must start before it ends")
	}
	return nil
}

// IsAllTime reports whether the window is unbounded.
func (w Window) IsAllTime() bool {
	return w.Key == WindowAll || w.Key == ""
}

// IsCalendar reports whether the window needs the windowed-listing method:
// calendar-aligned windows and custom ranges.
func (w Window) IsCalendar() bool {
	return w.Key == WindowThisMonth || w.Key == WindowThisYear || w.Key == WindowCustom
}

// TopPeriod maps a rolling window to the top-list period that covers it.
func (w Window) TopPeriod() (Period, bool) {
	switch w.Key {
	case Window7Days:
		return Period7Day, true
	case Window30Days:
		return Period1Month, true
	case Window365Days:
		return Period12Month, true
	}
	return "", false
}

// Range returns the UTC bounds of the window relative to now. ok is false
// for all time.
func (w Window) Range(now time.Time) (start, end time.Time, ok bool) {
	now = now.UTC().Truncate(time.Second)
	day := 24 * time.Hour
	switch w.Key {
	case Window7Days:
		return now.Add(-7 * day), now, true
	case Window30Days:
		return now.Add(-30 * day), now, true
	case Window365Days:
		return now.Add(-365 * day), now, true
	case WindowThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now, true
	case WindowThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), now, true
	case WindowCustom:
		return w.From.UTC(), w.To.UTC(), true
	}
	return time.Time{}, time.Time{}, false
}

// Convention selects how the windowed artist-tracks listing is bounded.
// The service has answered to both parameter spellings over time.
type Convention int

const (
	// ConventionFromTo sends from/to unix timestamps.
	ConventionFromTo Convention = iota
	// ConventionStartEnd sends startTimestamp/endTimestamp.
	ConventionStartEnd
)

func (c Convention) String() string {
	if c == ConventionStartEnd {
		return "startTimestamp/endTimestamp"
	}
	return "from/to"
}
