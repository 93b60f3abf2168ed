// Package pools issues synthetic replacement values per entity kind.
// Values are visually plausible but clearly non-real: fake-marker names,
// the reserved 010-0000 phone block, example-domain emails, and sibling
// region labels for addresses.
//
// A Manager holds monotonically advancing wrap-around counters per kind.
// One shared Manager behind its mutex preserves a stable sequence of fake
// identities across calls; callers wanting per-request isolation construct
// a fresh Manager instead.
package pools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/AenganZ/pseudo/internal/entity"
)

// fakeSurnames and fakeMarkers compose synthetic names as two parallel
// cyclic lists. With coprime lengths the full cycle covers every
// combination before any repeats.
var fakeSurnames = []string{"김", "이", "박", "최", "정", "윤", "장"}

var fakeMarkers = []string{"가명", "무명", "차명", "익명", "모명"}

// fakeEmails is the fixed pool cycled before falling back to numbered
// synthetic addresses.
var fakeEmails = []string{
	"name1@example.com",
	"name2@example.com",
	"mask@example.org",
	"foo.bar@masked.co.kr",
	"user1@test.com",
	"user2@test.com",
	"sample@demo.kr",
	"masked@privacy.net",
}

// fakeRegions are the province-level labels used as address substitutes.
// Street-level output is never produced.
var fakeRegions = []string{
	"서울특별시", "부산광역시", "대구광역시", "인천광역시", "광주광역시",
	"대전광역시", "울산광역시", "세종특별자치시", "경기도", "강원도",
	"충청북도", "충청남도",
}

const (
	ageMin = 20
	ageMax = 65
	// ageStep is coprime with the range size so the cycle visits every
	// value before repeating.
	ageStep = 7
)

// Manager issues synthetic values with per-kind cursors. Allocation never
// fails; unknown kinds yield a bracketed placeholder. Safe for concurrent
// use.
type Manager struct {
	mu      sync.Mutex
	cursors map[entity.Kind]int
}

// NewManager creates a pool manager with all cursors at zero.
func NewManager() *Manager {
	return &Manager{cursors: make(map[entity.Kind]int)}
}

// Reset rewinds every cursor so the synthetic sequence starts over.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors = make(map[entity.Kind]int)
}

// Allocate returns the next synthetic value for the given kind. The
// original value steers kinds whose replacement derives from it (address
// sibling selection, RRN and card masks).
func (m *Manager) Allocate(kind entity.Kind, original string) string {
	m.mu.Lock()
	n := m.cursors[kind]
	m.cursors[kind] = n + 1
	m.mu.Unlock()

	switch kind {
	case entity.KindName:
		return fakeSurnames[n%len(fakeSurnames)] + fakeMarkers[n%len(fakeMarkers)]
	case entity.KindPhone:
		return fmt.Sprintf("010-0000-%04d", n%10000)
	case entity.KindEmail:
		if n < len(fakeEmails) {
			return fakeEmails[n]
		}
		return fmt.Sprintf("user%05d@example.com", n-len(fakeEmails)+1)
	case entity.KindAddress:
		return siblingRegion(original, n)
	case entity.KindAge:
		return fmt.Sprintf("%d", ageMin+(n*ageStep)%(ageMax-ageMin+1))
	case entity.KindRRN:
		return maskRRN(original)
	case entity.KindCreditCard:
		return maskCard(original)
	default:
		return "[" + strings.ToUpper(string(kind)) + "_MASKED]"
	}
}

// siblingRegion picks a province-level label different from the original
// mention. Substituting a full address with a bare region is intentional
// information loss: it keeps the text plausible while cutting
// re-identification risk.
func siblingRegion(original string, n int) string {
	for i := 0; i < len(fakeRegions); i++ {
		region := fakeRegions[(n+i)%len(fakeRegions)]
		if !strings.Contains(original, regionStem(region)) {
			return region
		}
	}
	return fakeRegions[n%len(fakeRegions)]
}

// regionStem returns the short form used inside address text (서울특별시 ->
// 서울).
func regionStem(label string) string {
	for _, suf := range []string{"특별자치시", "특별자치도", "특별시", "광역시", "도", "시"} {
		if strings.HasSuffix(label, suf) && len(label) > len(suf) {
			return strings.TrimSuffix(label, suf)
		}
	}
	return label
}

// maskRRN keeps the birthdate half and masks the rest.
func maskRRN(original string) string {
	digits := digitsOnly(original)
	if len(digits) >= 6 {
		return digits[:6] + "-*******"
	}
	return "******-*******"
}

// maskCard keeps the first and last four digits.
func maskCard(original string) string {
	digits := digitsOnly(original)
	if len(digits) >= 16 {
		return digits[:4] + "-****-****-" + digits[len(digits)-4:]
	}
	return "****-****-****-****"
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
