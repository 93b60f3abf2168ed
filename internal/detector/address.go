package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/AenganZ/pseudo/internal/entity"
	"github.com/AenganZ/pseudo/internal/refdata"
)

const sourceAddressLookup = "lookup-address"

// adminSuffixes may follow a province token (서울 -> 서울특별시). Longest
// first so 특별자치시 wins over 시.
var adminSuffixes = []string{"특별자치시", "특별자치도", "특별시", "광역시", "도", "시"}

// trailingParticles are grammatical particles stripped from the end of a
// matched district token, with the span end adjusted to the trimmed value.
// 로 is deliberately absent: road names end in 로.
var trailingParticles = []string{"에서", "에게", "부터", "까지", "으로", "에"}

var districtSuffixes = []string{"구", "군", "시"}

// detectAddresses finds hierarchical administrative mentions:
// province[+suffix][+district], district[+road], bare roads, and bare
// provinces accompanied by an address context keyword.
func (d *Detector) detectAddresses(text string, snap *refdata.Snapshot) []entity.Entity {
	var out []entity.Entity

	// Province-rooted candidates.
	for province := range snap.Provinces {
		for _, pos := range findOccurrences(text, province) {
			if !boundaryBefore(text, pos) {
				continue
			}
			end := pos + len(province)
			// Fold a directly attached administrative suffix into the span
			// unless the set member already carries one.
			if !hasAdminSuffix(province) {
				for _, suf := range adminSuffixes {
					if strings.HasPrefix(text[end:], suf) {
						end += len(suf)
						break
					}
				}
			}

			// province [+suffix] + district
			if distEnd, ok := matchDistrictAfter(text, end, snap); ok {
				out = append(out, entity.Entity{
					Kind:       entity.KindAddress,
					Value:      text[pos:distEnd],
					Start:      pos,
					End:        distEnd,
					Confidence: 0.95,
					Source:     sourceAddressLookup,
				})
				continue
			}

			// Bare province: only an address when context keywords appear
			// nearby.
			if end > pos+len(province) || d.hasAddressContext(text, pos, end) {
				out = append(out, entity.Entity{
					Kind:       entity.KindAddress,
					Value:      text[pos:end],
					Start:      pos,
					End:        end,
					Confidence: 0.9,
					Source:     sourceAddressLookup,
				})
			}
		}
	}

	// District-rooted candidates, optionally followed by a road.
	for district := range snap.Districts {
		for _, pos := range findOccurrences(text, district) {
			if !boundaryBefore(text, pos) {
				continue
			}
			end := pos + len(district)
			if roadEnd, ok := matchRoadAfter(text, end, snap); ok {
				end = roadEnd
			}
			out = append(out, entity.Entity{
				Kind:       entity.KindAddress,
				Value:      text[pos:end],
				Start:      pos,
				End:        end,
				Confidence: 0.9,
				Source:     sourceAddressLookup,
			})
		}
	}

	// Known road names on their own.
	for road := range snap.Roads {
		for _, pos := range findOccurrences(text, road) {
			if !boundaryBefore(text, pos) {
				continue
			}
			out = append(out, entity.Entity{
				Kind:       entity.KindAddress,
				Value:      road,
				Start:      pos,
				End:        pos + len(road),
				Confidence: 0.95,
				Source:     sourceAddressLookup,
			})
		}
	}

	return out
}

// matchDistrictAfter tries to read a validated district token after
// position start, skipping at most one space. Trailing particles are
// stripped before validation so "강남구에서" yields the span of "강남구".
func matchDistrictAfter(text string, start int, snap *refdata.Snapshot) (end int, ok bool) {
	i := start
	if i < len(text) && text[i] == ' ' {
		i++
	}
	run, found := hangulRunAt(text, i)
	if !found {
		return 0, false
	}
	token := text[run.start:run.end]
	token, _ = stripParticle(token)
	if token == "" {
		return 0, false
	}
	// Longest validated prefix wins; the run may continue into a particle
	// or the next word without intervening space.
	runes := []rune(token)
	for l := len(runes); l >= 1; l-- {
		prefix := string(runes[:l])
		if endsWithAny(prefix, districtSuffixes) && snap.Districts.Has(prefix) {
			return run.start + len(prefix), true
		}
	}
	return 0, false
}

// matchRoadAfter tries to read a road token after position start: either a
// known road name or an unknown hangul token with a road suffix.
func matchRoadAfter(text string, start int, snap *refdata.Snapshot) (end int, ok bool) {
	i := start
	if i < len(text) && text[i] == ' ' {
		i++
	}
	run, found := hangulRunAt(text, i)
	if !found {
		return 0, false
	}
	token := text[run.start:run.end]
	if snap.Roads.Has(token) {
		return run.end, true
	}
	for _, suf := range []string{"대로", "로", "길"} {
		if idx := strings.Index(token, suf); idx > 0 {
			cut := run.start + idx + len(suf)
			if utf8.RuneCountInString(text[run.start:cut]) >= 3 {
				return cut, true
			}
		}
	}
	return 0, false
}

// hasAddressContext reports whether an address context keyword appears
// within the configured window on either side of [start,end).
func (d *Detector) hasAddressContext(text string, start, end int) bool {
	lo := start - d.addrWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + d.addrWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]
	for _, kw := range d.addrKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// stripParticle removes one trailing grammatical particle, returning the
// trimmed token and the number of bytes removed.
func stripParticle(token string) (string, int) {
	for _, p := range trailingParticles {
		if strings.HasSuffix(token, p) && len(token) > len(p) {
			return token[:len(token)-len(p)], len(p)
		}
	}
	return token, 0
}

func endsWithAny(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func hasAdminSuffix(token string) bool {
	for _, suf := range adminSuffixes {
		if strings.HasSuffix(token, suf) && token != suf {
			return true
		}
	}
	return false
}

// hangulRunAt returns the hangul run starting exactly at position i.
func hangulRunAt(text string, i int) (span, bool) {
	if i >= len(text) {
		return span{}, false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	if r < '가' || r > '힣' {
		return span{}, false
	}
	end := i
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if r < '가' || r > '힣' {
			break
		}
		end += size
	}
	return span{i, end}, true
}

// findOccurrences returns the byte offsets of every occurrence of needle.
func findOccurrences(text, needle string) []int {
	if needle == "" {
		return nil
	}
	var offsets []int
	for start := 0; ; {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			break
		}
		offsets = append(offsets, start+idx)
		start += idx + 1
	}
	return offsets
}
