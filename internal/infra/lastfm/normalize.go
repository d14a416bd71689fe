package lastfm

import (
	"strings"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// Normalize maps a raw top-list payload for kind into records. It never
// fails: a missing or malformed payload yields an empty list, and malformed
// fields yield empty names and zero counts.
func Normalize(kind domain.CategoryKind, raw []byte) []domain.StatRecord {
	var items []topItem
	switch kind {
	case domain.KindTrack:
		var p topTracksPayload
		decode(raw, &p)
		items = p.TopTracks.V.Track
	case domain.KindAlbum:
		var p topAlbumsPayload
		decode(raw, &p)
		items = p.TopAlbums.V.Album
	case domain.KindArtist:
		var p topArtistsPayload
		decode(raw, &p)
		items = p.TopArtists.V.Artist
	}

	out := make([]domain.StatRecord, 0, len(items))
	for _, item := range items {
		record := domain.StatRecord{
			Kind:      kind,
			Name:      string(item.Name),
			Playcount: int64(item.Playcount),
		}
		if kind != domain.KindArtist {
			record.Artist = string(item.Artist)
		}
		out = append(out, record)
	}
	return out
}

// userPlaycount reads the user's cumulative count from an info payload.
// An absent field is zero.
func userPlaycount(kind domain.CategoryKind, raw []byte) int64 {
	var c optionalCount
	switch kind {
	case domain.KindAlbum:
		var p albumInfoPayload
		decode(raw, &p)
		c = p.Album.V.UserPlaycount
	case domain.KindTrack:
		var p trackInfoPayload
		decode(raw, &p)
		c = p.Track.V.UserPlaycount
	default:
		var p artistInfoPayload
		decode(raw, &p)
		c = p.Artist.V.Stats.V.UserPlaycount
	}
	if !c.Set {
		return 0
	}
	return int64(c.Value)
}

// artistTracksTotal prefers the @attr total and falls back to the length of
// the track list.
func artistTracksTotal(raw []byte) int64 {
	var p artistTracksPayload
	decode(raw, &p)
	at := p.ArtistTracks.V
	if total := at.Attr.V.Total; total.Set {
		return int64(total.Value)
	}
	var tracks list[struct{}]
	_ = tracks.UnmarshalJSON(at.Track)
	return int64(len(tracks))
}

// friends reads one page of friends and the total page count.
func friends(raw []byte) ([]domain.Member, int) {
	var p friendsPayload
	decode(raw, &p)
	f := p.Friends.V

	members := make([]domain.Member, 0, len(f.User))
	for _, u := range f.User {
		member := domain.Member{
			Name:     strings.TrimSpace(string(u.Name)),
			RealName: string(u.RealName),
		}
		for _, img := range u.Image {
			if img.Size == "small" && img.URL != "" {
				member.Avatar = string(img.URL)
				break
			}
		}
		if member.Avatar == "" && len(u.Image) > 0 {
			member.Avatar = string(u.Image[0].URL)
		}
		members = append(members, member)
	}

	totalPages := int(f.Attr.V.TotalPages)
	if totalPages < 1 {
		totalPages = 1
	}
	return members, totalPages
}
