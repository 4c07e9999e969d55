package tmdb

import (
	"strings"

	"github.com/sanonone/castchain/pkg/core/types"
)

// --- Wire payloads ---
//
// Every field is optional. Pointers are used where "absent" and "zero" must be
// told apart; collections that are missing decode to nil and are treated as empty.

type pagedResponse[T any] struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Results    []T `json:"results"`
}

type personEntry struct {
	ID                 int64        `json:"id"`
	Name               string       `json:"name"`
	KnownForDepartment string       `json:"known_for_department"`
	ProfilePath        *string      `json:"profile_path"`
	KnownFor           []mediaEntry `json:"known_for"`
}

// mediaEntry covers known_for items, combined credits and search results of
// both categories: movies carry title/release_date, series name/first_air_date.
type mediaEntry struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	PosterPath       *string `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	VoteCount        *int    `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Character        string  `json:"character"`
}

type combinedCreditsResponse struct {
	Cast []mediaEntry `json:"cast"`
}

type castEntry struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Roles       []struct {
		Character string `json:"character"`
	} `json:"roles"`
}

type castResponse struct {
	Cast []castEntry `json:"cast"`
}

type errorResponse struct {
	StatusMessage string `json:"status_message"`
}

// --- Conversion to the domain model ---

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func year(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// toMedia converts an entry, using fallback when the payload carries no media_type
// (search endpoints are single-category).
func (m mediaEntry) toMedia(fallback types.Category) types.MediaWork {
	cat := fallback
	if c, err := types.ParseCategory(m.MediaType); err == nil {
		cat = c
	}
	title, date := m.Title, m.ReleaseDate
	if cat == types.Series {
		title, date = m.Name, m.FirstAirDate
	}
	if title == "" {
		title = m.Title + m.Name
	}
	return types.MediaWork{
		ID:         m.ID,
		Title:      title,
		Category:   cat,
		PosterPath: deref(m.PosterPath),
		Year:       year(date),
	}
}

func (m mediaEntry) toCredit(actorID int64) types.Credit {
	votes := 0
	if m.VoteCount != nil {
		votes = *m.VoteCount
	}
	return types.Credit{
		ActorID:          actorID,
		Media:            m.toMedia(types.Film),
		Character:        m.Character,
		VoteCount:        votes,
		OriginalLanguage: m.OriginalLanguage,
	}
}

func (p personEntry) toPerson() types.Person {
	out := types.Person{
		Actor: types.Actor{
			ID:          p.ID,
			Name:        p.Name,
			ProfilePath: deref(p.ProfilePath),
		},
		Department: p.KnownForDepartment,
	}
	for _, kf := range p.KnownFor {
		// Media identifiers are required; entries without one are dropped.
		if kf.ID <= 0 {
			continue
		}
		out.KnownFor = append(out.KnownFor, kf.toCredit(p.ID))
	}
	return out
}

func (c castEntry) toMember() types.CastMember {
	character := c.Character
	if character == "" && len(c.Roles) > 0 {
		character = c.Roles[0].Character
	}
	return types.CastMember{
		ID:          c.ID,
		Name:        c.Name,
		Character:   strings.TrimSpace(character),
		ProfilePath: deref(c.ProfilePath),
	}
}
