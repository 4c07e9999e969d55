// Package pool builds and caches the set of actors that rounds are drawn from.
//
// The pool is the top of the provider's popular-people listing, filtered down
// to mainstream, recognisable actors. Building it costs up to MaxPages upstream
// calls, so results are memoized by Cache for a fixed TTL.
package pool

import (
	"strings"

	"github.com/sanonone/castchain/pkg/core/types"
)

const (
	// ActingDepartment is the only department admitted.
	ActingDepartment = "Acting"
	// EnglishLanguage is the original-language code a known-for credit must carry.
	EnglishLanguage = "en"
	// MinEnglishKnownFor is the minimum number of English known-for credits.
	MinEnglishKnownFor = 2
	// MinVoteCount is the vote threshold for a qualifying known-for credit.
	MinVoteCount = 3000
	// MinQualifyingKnownFor is the minimum number of English credits at or above MinVoteCount.
	MinQualifyingKnownFor = 2
)

// Rule is one admission predicate. A candidate is admitted only when every rule holds,
// so adding a rule can only shrink the pool.
type Rule struct {
	Name  string
	Check func(types.Person) bool
}

// DefaultRules returns the admission rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "acting", Check: func(p types.Person) bool {
			return p.Department == ActingDepartment
		}},
		{Name: "portrait", Check: func(p types.Person) bool {
			return strings.TrimSpace(p.ProfilePath) != ""
		}},
		{Name: "english_known_for", Check: func(p types.Person) bool {
			return countKnownFor(p, 0) >= MinEnglishKnownFor
		}},
		{Name: "widely_seen", Check: func(p types.Person) bool {
			return countKnownFor(p, MinVoteCount) >= MinQualifyingKnownFor
		}},
	}
}

// countKnownFor counts English known-for credits with at least minVotes votes.
func countKnownFor(p types.Person, minVotes int) int {
	n := 0
	for _, c := range p.KnownFor {
		if c.OriginalLanguage == EnglishLanguage && c.VoteCount >= minVotes {
			n++
		}
	}
	return n
}

// Admit evaluates rules against p. It returns the name of the first failing
// rule, or "" when p qualifies.
func Admit(p types.Person, rules []Rule) (ok bool, failed string) {
	for _, r := range rules {
		if !r.Check(p) {
			return false, r.Name
		}
	}
	return true, ""
}
