package ballots

import (
	"sort"
	"strings"
)

// CandidateLess orders candidates by surname, then first name, then id.
func CandidateLess(a, b Candidate) bool {
	if la, lb := strings.ToLower(a.LastName), strings.ToLower(b.LastName); la != lb {
		return la < lb
	}
	if fa, fb := strings.ToLower(a.FirstName), strings.ToLower(b.FirstName); fa != fb {
		return fa < fb
	}
	return a.ID < b.ID
}

func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return CandidateLess(candidates[i], candidates[j])
	})
}
