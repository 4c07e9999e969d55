// Package types holds the domain model shared by the pool, oracle and selector:
// actors, media works, credits and the values the engine hands to its callers.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sanonone/castchain/pkg/errs"
)

// Category discriminates the two kinds of media work. The value doubles as the
// upstream path segment ("movie" / "tv").
type Category string

const (
	Film   Category = "movie"
	Series Category = "tv"
)

// ParseCategory accepts the wire names "movie" and "tv".
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Film:
		return Film, nil
	case Series:
		return Series, nil
	default:
		return "", errs.InvalidInput(fmt.Sprintf("unknown media type %q", s))
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool { return c == Film || c == Series }

// Actor is a person as reported by the upstream provider.
type Actor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ProfilePath string `json:"profilePath,omitempty"`
}

// MediaWork is a film or a series.
type MediaWork struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Category   Category `json:"mediaType"`
	PosterPath string   `json:"posterPath,omitempty"`
	Year       string   `json:"year,omitempty"`
}

// Credit is one actor appearing in one media work.
// VoteCount and OriginalLanguage only feed the pool filter.
type Credit struct {
	ActorID          int64     `json:"actorId"`
	Media            MediaWork `json:"media"`
	Character        string    `json:"character,omitempty"`
	VoteCount        int       `json:"voteCount,omitempty"`
	OriginalLanguage string    `json:"originalLanguage,omitempty"`
}

// Filmography is the credits of one actor in upstream order (most recent first
// as provided; never re-sorted).
type Filmography struct {
	ActorID int64
	Credits []Credit
}

// MediaKey identifies a media work. Film and series ids are separate
// upstream namespaces, so the id alone is ambiguous.
type MediaKey struct {
	ID       int64
	Category Category
}

// Key returns the identity of the work.
func (m MediaWork) Key() MediaKey { return MediaKey{ID: m.ID, Category: m.Category} }

// MediaKeys returns the set of media works in the filmography.
func (f Filmography) MediaKeys() map[MediaKey]struct{} {
	set := make(map[MediaKey]struct{}, len(f.Credits))
	for _, c := range f.Credits {
		set[c.Media.Key()] = struct{}{}
	}
	return set
}

// Recent returns at most n leading credits.
func (f Filmography) Recent(n int) []Credit {
	if n < 0 {
		n = 0
	}
	if len(f.Credits) <= n {
		return f.Credits
	}
	return f.Credits[:n]
}

// CastMember is one entry of a cast list.
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profilePath,omitempty"`
}

// CastList is everyone credited in one media work. For series it is the
// aggregate cast across all seasons.
type CastList struct {
	MediaID  int64        `json:"mediaId"`
	Category Category     `json:"mediaType"`
	Cast     []CastMember `json:"cast"`
}

// Contains reports whether actorID appears in the cast.
func (c CastList) Contains(actorID int64) bool {
	for _, m := range c.Cast {
		if m.ID == actorID {
			return true
		}
	}
	return false
}

// PoolActor is an actor together with the outcome of the pool filter.
type PoolActor struct {
	Actor
	Qualifies bool `json:"-"`
}

// ActorPair is the start and end of a round.
type ActorPair struct {
	Start PoolActor `json:"start"`
	End   PoolActor `json:"end"`
}

// Hops is a hop distance: the number of media works needed to link two actors.
// HopsNone means the bounded search found no proof and marshals as JSON null.
type Hops int

const (
	HopsNone Hops = 0
	HopsOne  Hops = 1
	HopsTwo  Hops = 2
)

func (h Hops) MarshalJSON() ([]byte, error) {
	if h == HopsNone {
		return []byte("null"), nil
	}
	return json.Marshal(int(h))
}

func (h *Hops) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*h = HopsNone
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*h = Hops(n)
	return nil
}

// LinkKind tells actor links from media links in a chain or witness path.
type LinkKind string

const (
	LinkActor LinkKind = "actor"
	LinkMedia LinkKind = "media"
)

// Link is one element of an alternating actor/media path.
type Link struct {
	Kind     LinkKind `json:"type"`
	ID       int64    `json:"id"`
	Name     string   `json:"name,omitempty"`
	Category Category `json:"mediaType,omitempty"`
}

// Classification is the oracle's verdict on a pair.
//
// Connected=false with MinHops=HopsNone means no proof was found within two hops.
// It is a heuristic label, not a claim that the actors are disconnected.
type Classification struct {
	Connected bool   `json:"connected"`
	MinHops   Hops   `json:"minHops"`
	Stage     string `json:"stage,omitempty"`
	Witness   []Link `json:"witness,omitempty"`
}

// Difficulty is the requested hardness of a round.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	// Hard means "no 2-hop proof found", not "provably disconnected".
	Hard Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium and hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", errs.InvalidInput(fmt.Sprintf("unknown difficulty %q", s))
	}
}

// Accepts is the acceptance predicate of the difficulty over a classification.
func (d Difficulty) Accepts(c Classification) bool {
	switch d {
	case Easy:
		return c.MinHops == HopsOne
	case Medium:
		return c.MinHops == HopsTwo
	case Hard:
		return c.MinHops == HopsNone
	default:
		return false
	}
}

// Person is an entry of a people listing or a person detail lookup.
// KnownFor is the small sample of credits the popular listing attaches.
type Person struct {
	Actor
	Department string   `json:"department,omitempty"`
	KnownFor   []Credit `json:"knownFor,omitempty"`
}

// PersonPage is one page of the popular-people listing.
type PersonPage struct {
	Page       int
	TotalPages int
	People     []Person
}

// MediaHit is a media search result with the provider's popularity score.
type MediaHit struct {
	MediaWork
	Popularity float64 `json:"-"`
}
