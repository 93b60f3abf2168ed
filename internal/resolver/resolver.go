// Package resolver turns the multiset of candidate entities produced by the
// detection stages into a final ordered, non-overlapping, deduplicated set.
package resolver

import (
	"sort"

	"github.com/AenganZ/pseudo/internal/entity"
)

// PriorityFunc maps an entity source tag to its resolution rank; lower
// outranks higher.
type PriorityFunc func(source string) int

// ValueKey identifies a distinct (kind, normalized value) pair.
type ValueKey struct {
	Kind  entity.Kind
	Value string
}

// Resolution is the outcome of overlap and duplicate resolution. Entities
// are ordered by span with no two spans overlapping and no duplicate
// (kind, normalized value) pairs. Occurrences preserves how often each pair
// was seen before deduplication.
type Resolution struct {
	Entities    []entity.Entity
	Occurrences map[ValueKey]int
}

// Resolve applies overlap resolution then value-level deduplication.
//
// Candidates are ordered by (start, priority, longer span first). During the
// scan an overlapping pair keeps the longer span; on equal length the higher
// priority source wins. A subordinate administrative unit contained in an
// already accepted superior unit's span is an overlap like any other and is
// discarded, not merged.
func Resolve(candidates []entity.Entity, priorityOf PriorityFunc) Resolution {
	res := Resolution{Occurrences: make(map[ValueKey]int)}
	if len(candidates) == 0 {
		return res
	}

	sorted := make([]entity.Entity, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		pa, pb := priorityOf(a.Source), priorityOf(b.Source)
		if pa != pb {
			return pa < pb
		}
		return a.Len() > b.Len()
	})

	var accepted []entity.Entity
	for _, cand := range sorted {
		replaced := false
		conflict := -1
		for i, acc := range accepted {
			if cand.Overlaps(acc) {
				conflict = i
				break
			}
		}
		if conflict < 0 {
			accepted = append(accepted, cand)
			continue
		}

		acc := accepted[conflict]
		switch {
		case cand.Len() > acc.Len():
			replaced = true
		case cand.Len() == acc.Len() && priorityOf(cand.Source) < priorityOf(acc.Source):
			replaced = true
		}
		if replaced {
			accepted[conflict] = cand
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })

	seen := make(map[ValueKey]bool)
	for _, e := range accepted {
		key := ValueKey{Kind: e.Kind, Value: entity.NormalizeValue(e)}
		res.Occurrences[key]++
		if seen[key] {
			continue
		}
		seen[key] = true
		res.Entities = append(res.Entities, e)
	}
	return res
}
