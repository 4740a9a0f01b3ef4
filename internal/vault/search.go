package vault

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// matchThreshold trades precision for recall in the Bitap matcher:
// 0 demands an exact match, 1 accepts nearly anything.
const matchThreshold = 0.4

// Match is a search hit with its edit distance from the query.
type Match struct {
	Entry    *Entry
	Distance int
}

// Search returns the entries whose name fuzzily contains query, closest first.
// Matching is case-insensitive. Entries with equal distance keep vault order.
func (v *Vault) Search(query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	dmp := diffmatchpatch.New()
	dmp.MatchThreshold = matchThreshold
	pattern := query
	if len(pattern) > dmp.MatchMaxBits {
		pattern = pattern[:dmp.MatchMaxBits]
	}

	var matches []Match
	for _, e := range v.Entries {
		name := strings.ToLower(e.Name)
		if !strings.Contains(name, query) && dmp.MatchMain(name, pattern, 0) < 0 {
			continue
		}
		matches = append(matches, Match{
			Entry:    e,
			Distance: distance(dmp, name, query),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches
}

// Suggest returns the entry name closest to name when it is close enough to
// be a plausible typo, or "" otherwise.
func (v *Vault) Suggest(name string) string {
	dmp := diffmatchpatch.New()
	target := strings.ToLower(name)
	limit := max(2, len(target)/3)

	best, bestDist := "", limit+1
	for _, e := range v.Entries {
		d := distance(dmp, strings.ToLower(e.Name), target)
		if d < bestDist {
			best, bestDist = e.Name, d
		}
	}
	return best
}

func distance(dmp *diffmatchpatch.DiffMatchPatch, a, b string) int {
	return dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
}
