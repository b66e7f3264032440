package initiative

import (
	"github.com/gmscreen/initiative/internal/dependencies/random"
	"github.com/gmscreen/initiative/internal/model"
)

// Tiebreak is one tiebreak assignment the caller must persist before its
// transaction commits.
type Tiebreak struct {
	Name  string
	Value int
}

// ResolveTiebreaks groups the full roster by (initiative, roll) and
// assigns every tied group of size >= 2 a uniformly random permutation of
// [0, groupSize) drawn from rnd. Characters without a roll are never
// grouped. Groups whose members already hold pairwise-distinct tiebreaks
// are left alone so the order stays stable across unrelated mutations;
// force reassigns them anyway, which the bulk reroll uses to start a
// fresh tiebreak cycle.
func ResolveTiebreaks(chars []*model.Character, rnd random.Random, force bool) []Tiebreak {
	type key struct {
		initiative int
		roll       int
	}

	groups := make(map[key][]*model.Character)
	var keys []key
	for _, c := range chars {
		if c.Roll == nil {
			continue
		}
		k := key{initiative: *c.Initiative(), roll: *c.Roll}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], c)
	}

	var out []Tiebreak
	for _, k := range keys {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		if !force && hasDistinctTiebreaks(group) {
			continue
		}
		perm := rnd.Perm(len(group))
		for i, c := range group {
			out = append(out, Tiebreak{Name: c.Name, Value: perm[i]})
		}
	}
	return out
}

// hasDistinctTiebreaks reports whether every member of a tied group holds
// a tiebreak and no two members share one
func hasDistinctTiebreaks(group []*model.Character) bool {
	seen := make(map[int]bool, len(group))
	for _, c := range group {
		if c.Tiebreak == nil || seen[*c.Tiebreak] {
			return false
		}
		seen[*c.Tiebreak] = true
	}
	return true
}
