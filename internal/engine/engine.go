// Package engine builds the bidirectional substitution mapping from
// resolved entities and rewrites text with synthetic values. It also hosts
// the Pseudonymizer facade that wires detection, resolution, allocation,
// and rewriting into the single pseudonymize operation.
package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/AenganZ/pseudo/internal/entity"
	"github.com/AenganZ/pseudo/internal/pools"
	"github.com/AenganZ/pseudo/internal/resolver"
)

const allocAttempts = 10

// Mapping is the per-pass bidirectional original/replacement map. Forward
// keys are unique and each replacement is issued at most once per pass;
// address entities share one representative region label (the reverse map
// records the first original for it).
type Mapping struct {
	Forward map[string]string
	Reverse map[string]string
	Items   []entity.WithReplacement
}

// buildMapping assigns replacements in position order, reusing the first
// assignment when the same value occurs again. Replacements are screened
// against every original of the pass so no pair can rewrite another pair's
// output during the longest-first pass.
func buildMapping(res resolver.Resolution, pool *pools.Manager) Mapping {
	m := Mapping{
		Forward: make(map[string]string),
		Reverse: make(map[string]string),
	}
	originals := make(map[string]bool, len(res.Entities))
	for _, e := range res.Entities {
		if key := substitutionKey(e); key != "" {
			originals[key] = true
		}
	}
	used := make(map[string]bool)
	addressLabel := ""

	for _, e := range res.Entities {
		key := substitutionKey(e)
		if key == "" {
			continue
		}
		repl, ok := m.Forward[key]
		if !ok {
			if e.Kind == entity.KindAddress {
				if addressLabel == "" {
					addressLabel = allocateUnique(pool, e.Kind, key, used, originals)
				}
				repl = addressLabel
			} else {
				repl = allocateUnique(pool, e.Kind, key, used, originals)
			}
			m.Forward[key] = repl
			if _, exists := m.Reverse[repl]; !exists {
				m.Reverse[repl] = key
			}
		}
		m.Items = append(m.Items, entity.WithReplacement{Entity: e, Replacement: repl})
	}
	return m
}

// substitutionKey is the exact substring replaced in the text. Names use
// the base form so an attached honorific survives substitution
// (김민준님 -> 김가명님).
func substitutionKey(e entity.Entity) string {
	if e.Kind == entity.KindName {
		return e.BaseValue()
	}
	return e.Value
}

// allocateUnique draws from the pool until the value is unused in this
// pass and free of substring overlap with every original, then falls back
// to a numbered variant and finally a bracketed mask. A replacement sharing
// a substring with another original would be rewritten by that original's
// pair in the longest-first pass and break the restore round trip (an age
// of 10 corrupting the 010 fake phone block). Allocation never fails.
func allocateUnique(pool *pools.Manager, kind entity.Kind, original string, used map[string]bool, originals map[string]bool) string {
	ok := func(v string) bool {
		return v != "" && !used[v] && !clashes(v, originals)
	}
	var last string
	for i := 0; i < allocAttempts; i++ {
		v := pool.Allocate(kind, original)
		if ok(v) {
			used[v] = true
			return v
		}
		last = v
	}
	for n := 2; n < allocAttempts+2; n++ {
		v := fmt.Sprintf("%s%d", last, n)
		if ok(v) {
			used[v] = true
			return v
		}
	}
	// Every pool shape for this kind collides with an original in the
	// pass. A bracketed mask carries no pool shape to collide with.
	mask := "[" + strings.ToUpper(string(kind)) + "_MASKED]"
	if ok(mask) {
		used[mask] = true
		return mask
	}
	for n := 2; ; n++ {
		v := fmt.Sprintf("[%s_MASKED_%d]", strings.ToUpper(string(kind)), n)
		if !used[v] {
			used[v] = true
			return v
		}
	}
}

// clashes reports whether a candidate replacement equals, contains, or is
// contained in any original of the pass.
func clashes(v string, originals map[string]bool) bool {
	for k := range originals {
		if strings.Contains(v, k) || strings.Contains(k, v) {
			return true
		}
	}
	return false
}

// Rewrite applies the forward map to text. Pairs are applied by descending
// original length so a short original never matches inside a longer one
// that has not been substituted yet. Afterwards accidental duplicate
// adjacent replacements are collapsed.
func Rewrite(text string, forward map[string]string) string {
	masked := replaceLongestFirst(text, forward)
	return collapseDuplicates(masked, forward)
}

// Restore applies the reverse map to a masked text, restoring original
// values with the same longest-first algorithm.
func Restore(masked string, reverse map[string]string) string {
	return replaceLongestFirst(masked, reverse)
}

func replaceLongestFirst(text string, mapping map[string]string) string {
	type pair struct{ from, to string }
	pairs := make([]pair, 0, len(mapping))
	for from, to := range mapping {
		if from == "" || from == to {
			continue
		}
		pairs = append(pairs, pair{from, to})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if len(pairs[i].from) != len(pairs[j].from) {
			return len(pairs[i].from) > len(pairs[j].from)
		}
		return pairs[i].from < pairs[j].from
	})

	out := text
	for _, p := range pairs {
		out = strings.ReplaceAll(out, p.from, p.to)
	}
	return out
}

var whitespaceRuns = regexp.MustCompile(`[ \t]{2,}`)

var commaRuns = regexp.MustCompile(`(?:,\s*){2,}`)

// collapseDuplicates removes runs of the same replacement value separated
// only by whitespace or commas, then tidies the leftover separators. This
// repairs text where several originals mapped to one address-level label
// (서울특별시 서울특별시 -> 서울특별시).
func collapseDuplicates(text string, forward map[string]string) string {
	out := text
	seen := make(map[string]bool)
	for _, repl := range forward {
		if repl == "" || seen[repl] {
			continue
		}
		seen[repl] = true
		quoted := regexp.QuoteMeta(repl)
		re, err := regexp.Compile(quoted + `(?:[\s,]+` + quoted + `)+`)
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, repl)
	}
	out = commaRuns.ReplaceAllString(out, ", ")
	out = whitespaceRuns.ReplaceAllString(out, " ")
	return out
}
