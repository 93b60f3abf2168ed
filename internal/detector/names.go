package detector

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/AenganZ/pseudo/internal/entity"
	"github.com/AenganZ/pseudo/internal/refdata"
)

// Honorific suffixes recognized after a personal name. Detected suffixes are
// kept in the entity value and recorded separately on the entity.
var honorifics = []string{"님", "씨", "군", "양"}

// Linguistic templates that introduce a personal name. Each regex exposes
// the name in capture group 1.
var nameTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?:제|내)?\s*이름은\s*([가-힣]{2,4})`),
	regexp.MustCompile(`저는\s*([가-힣]{2,4})(?:입니다|이에요|예요|이고|이며|라고)`),
	regexp.MustCompile(`([가-힣]{2,4})(?:은|는)\s*학생`),
	regexp.MustCompile(`([가-힣]{2,4})\s+고객`),
}

const (
	sourceNameLookup   = "lookup-names"
	sourceNameTemplate = "name-template"
)

// Name validity reason codes. Empty string means the candidate passed.
const (
	nameReasonTooShort  = "too_short"
	nameReasonTooLong   = "too_long"
	nameReasonDigit     = "contains_digit"
	nameReasonExcluded  = "excluded_word"
	nameReasonPlaceName = "place_name"
	nameReasonUnknown   = "unverified_two_char"
	nameReasonNoSurname = "unverified_four_char"
)

// validateName checks a base name (honorific already stripped) against the
// reference sets and returns a reason code, or "" when the name is
// acceptable. Explicit predicate instead of skip-by-exception so each rule
// is independently testable.
func validateName(base string, snap *refdata.Snapshot) string {
	n := utf8.RuneCountInString(base)
	if n < 2 {
		return nameReasonTooShort
	}
	if n > 4 {
		return nameReasonTooLong
	}
	for _, r := range base {
		if unicode.IsDigit(r) {
			return nameReasonDigit
		}
	}
	if snap.ExcludeWords.Has(base) {
		return nameReasonExcluded
	}
	if snap.Provinces.Has(base) || snap.Districts.Has(base) {
		return nameReasonPlaceName
	}
	if n == 2 {
		first, _ := utf8.DecodeRuneInString(base)
		known := snap.FullNames.Has(base) || snap.GivenNames.Has(base)
		if !known && !snap.SurnameChars.Has(string(first)) {
			return nameReasonUnknown
		}
	}
	if n == 4 && !snap.FullNames.Has(base) {
		first2 := string([]rune(base)[:2])
		if !snap.CompoundSurnames.Has(first2) {
			return nameReasonNoSurname
		}
	}
	return ""
}

// detectNameTemplates matches the curated linguistic templates and filters
// each captured name through the validity predicate.
func detectNameTemplates(text string, snap *refdata.Snapshot) []entity.Entity {
	var out []entity.Entity
	for _, re := range nameTemplates {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], m[3]
			name := text[start:end]
			// A greedy capture can swallow copula syllables (김민준입니다 ->
			// 김민준입). Trim trailing runes until the candidate validates.
			for validateName(name, snap) != "" && utf8.RuneCountInString(name) > 2 {
				_, size := utf8.DecodeLastRuneInString(name)
				name = name[:len(name)-size]
				end -= size
			}
			if validateName(name, snap) != "" {
				continue
			}
			out = append(out, entity.Entity{
				Kind:       entity.KindName,
				Value:      name,
				Start:      start,
				End:        end,
				Confidence: 0.7,
				Source:     sourceNameTemplate,
			})
		}
	}

	// Honorific-suffixed mentions: the suffix stays inside the value.
	honorificRe := regexp.MustCompile(`([가-힣]{2,4})(님|씨|군|양)`)
	for _, m := range honorificRe.FindAllStringSubmatchIndex(text, -1) {
		base := text[m[2]:m[3]]
		honorific := text[m[4]:m[5]]
		if validateName(base, snap) != "" {
			continue
		}
		if !boundaryBefore(text, m[0]) {
			continue
		}
		out = append(out, entity.Entity{
			Kind:       entity.KindName,
			Value:      base + honorific,
			Start:      m[0],
			End:        m[5],
			Confidence: 0.8,
			Source:     sourceNameTemplate,
			Honorific:  honorific,
		})
	}
	return out
}

// detectNameLookups scans hangul runs for verbatim members of the known
// full-name and given-name sets. Only run-initial positions are considered,
// which doubles as the word-boundary check.
func detectNameLookups(text string, snap *refdata.Snapshot) []entity.Entity {
	var out []entity.Entity
	for _, run := range hangulRuns(text) {
		runes := []rune(text[run.start:run.end])
		// Longest candidate first so 남궁민수 wins over 남궁민.
		for l := 4; l >= 2; l-- {
			if l > len(runes) {
				continue
			}
			candidate := string(runes[:l])
			if !snap.FullNames.Has(candidate) && !snap.GivenNames.Has(candidate) {
				continue
			}
			if validateName(candidate, snap) != "" {
				continue
			}
			end := run.start + len(candidate)
			value := candidate
			honorific := ""
			if l < len(runes) {
				next := string(runes[l])
				for _, h := range honorifics {
					if next == h {
						honorific = h
						value = candidate + h
						end += len(h)
						break
					}
				}
			}
			out = append(out, entity.Entity{
				Kind:       entity.KindName,
				Value:      value,
				Start:      run.start,
				End:        end,
				Confidence: 0.95,
				Source:     sourceNameLookup,
				Honorific:  honorific,
			})
			break
		}
	}
	return out
}

type span struct{ start, end int }

// hangulRuns returns the byte spans of maximal hangul-syllable runs.
func hangulRuns(text string) []span {
	var runs []span
	start := -1
	for i, r := range text {
		if r >= '가' && r <= '힣' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, span{start, len(text)})
	}
	return runs
}

// boundaryBefore reports whether position i starts a word: beginning of
// text or preceded by a non-letter, non-digit rune.
func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
