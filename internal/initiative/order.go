// Package initiative implements the ordering engine: a pure mapping from
// a roster snapshot to a deterministic total order plus per-character
// projections, and the resolver that persists tie-break discriminators.
package initiative

import (
	"sort"
	"strings"

	"github.com/gmscreen/initiative/internal/model"
)

// Order sorts a roster snapshot into initiative order and projects every
// character for the given visibility mode. In player mode hidden
// characters are dropped from both the projections and the name order.
// The input slice is not modified. Order performs no I/O and no
// randomness: the same snapshot always yields the same result.
func Order(chars []*model.Character, mode model.Visibility) ([]model.CharacterView, []string) {
	sorted := make([]*model.Character, 0, len(chars))
	for _, c := range chars {
		if mode == model.VisibilityPlayer && c.Hidden {
			continue
		}
		sorted = append(sorted, c)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(sorted[i], sorted[j])
	})

	views := make([]model.CharacterView, len(sorted))
	order := make([]string, len(sorted))
	for i, c := range sorted {
		views[i] = c.View(mode)
		order[i] = c.Name
	}
	return views, order
}

// Less reports whether a precedes b in initiative order:
//
//  1. Characters without a roll sort after every character with one;
//     among themselves they order by name.
//  2. Higher initiative (roll + dex + wis) first.
//  3. Equal initiative: higher raw roll first.
//  4. Equal roll: higher persisted tiebreak first when both are set,
//     otherwise by name. A missing tiebreak here means the resolver has
//     not yet run for this tied group.
func Less(a, b *model.Character) bool {
	switch {
	case a.Roll == nil && b.Roll == nil:
		return strings.Compare(a.Name, b.Name) < 0
	case a.Roll == nil:
		return false
	case b.Roll == nil:
		return true
	}

	ia, ib := *a.Initiative(), *b.Initiative()
	if ia != ib {
		return ia > ib
	}
	if *a.Roll != *b.Roll {
		return *a.Roll > *b.Roll
	}
	if a.Tiebreak != nil && b.Tiebreak != nil && *a.Tiebreak != *b.Tiebreak {
		return *a.Tiebreak > *b.Tiebreak
	}
	return strings.Compare(a.Name, b.Name) < 0
}
