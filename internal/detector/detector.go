// Package detector applies an ordered table of typed recognizers over input
// text and returns unresolved candidate entities. Regex recognizers come
// from the embedded YAML registry; name and address recognizers validate
// candidates against reference data lookups.
package detector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AenganZ/pseudo/internal/entity"
	pseudootel "github.com/AenganZ/pseudo/internal/otel"
	"github.com/AenganZ/pseudo/internal/refdata"
)

var tracer = pseudootel.Tracer("github.com/AenganZ/pseudo/internal/detector")

const (
	// DefaultMinScore is the minimum confidence below which a match is
	// discarded unless boosted by context words.
	DefaultMinScore = 0.5

	// ContextSimilarityFactor is the score boost applied when a context word
	// is found near a match.
	ContextSimilarityFactor = 0.35

	// DefaultContextWindow is the character window searched around a regex
	// match for context words.
	DefaultContextWindow = 100

	// DefaultAgeWindow is the window searched for age-indicating words.
	DefaultAgeWindow = 15

	// DefaultAddressWindow is the window searched for address context words
	// around a bare province mention.
	DefaultAddressWindow = 20
)

// DefaultAddressKeywords mark a bare province token as an address mention.
var DefaultAddressKeywords = []string{
	"거주", "살고", "삽니다", "위치", "주소", "소재", "예약", "지역", "에서",
}

var ageContextWords = []string{"나이", "연세", "세", "살"}

// Source priority ranks. Lower outranks higher when spans tie.
const (
	PrioritySupplemental = 0
	PriorityLookup       = 1
	PriorityRegex        = 2
)

// SourcePriority maps an entity source tag to its resolution rank.
// Supplemental-recognizer output outranks pattern output; reference-data
// lookups outrank plain regex matches.
func SourcePriority(source string) int {
	switch {
	case source == entity.SourceSupplemental:
		return PrioritySupplemental
	case strings.HasPrefix(source, "lookup-"):
		return PriorityLookup
	default:
		return PriorityRegex
	}
}

// Detector runs all recognizers over input text. Safe for concurrent use:
// per-call state lives on the stack and reference data is read via an
// immutable snapshot.
type Detector struct {
	rules        []regexRule
	ref          *refdata.Store
	minScore     float64
	ageWindow    int
	addrWindow   int
	addrKeywords []string
}

// Option configures a Detector via the functional options pattern.
type Option func(*config)

type config struct {
	patternFile       string
	enabledEntities   []string
	disabledEntities  []string
	customRecognizers []RecognizerConfig
	minScore          float64
	ageWindow         int
	addrWindow        int
	addrKeywords      []string
}

// WithMinScore overrides the default minimum confidence threshold.
func WithMinScore(score float64) Option {
	return func(c *config) { c.minScore = score }
}

// WithPatternFile loads additional recognizers from a recognizer YAML file.
// A missing file is silently skipped.
func WithPatternFile(path string) Option {
	return func(c *config) { c.patternFile = path }
}

// WithEnabledEntities sets a whitelist of recognizer entity types.
func WithEnabledEntities(entities []string) Option {
	return func(c *config) { c.enabledEntities = entities }
}

// WithDisabledEntities sets a blacklist of recognizer entity types.
func WithDisabledEntities(entities []string) Option {
	return func(c *config) { c.disabledEntities = entities }
}

// WithCustomRecognizers adds caller-supplied recognizer definitions on top
// of the embedded defaults.
func WithCustomRecognizers(recognizers []RecognizerConfig) Option {
	return func(c *config) { c.customRecognizers = recognizers }
}

// WithAddressContext tunes the bare-province context check. Zero window or
// empty keywords keep the defaults.
func WithAddressContext(window int, keywords []string) Option {
	return func(c *config) {
		c.addrWindow = window
		c.addrKeywords = keywords
	}
}

// WithAgeWindow tunes the age context window.
func WithAgeWindow(window int) Option {
	return func(c *config) { c.ageWindow = window }
}

// New creates a detector bound to the given reference data store. Without
// options it uses the embedded Korean defaults.
func New(ref *refdata.Store, opts ...Option) (*Detector, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	defaults, err := DefaultRecognizers()
	if err != nil {
		return nil, fmt.Errorf("loading default recognizers: %w", err)
	}

	var globalRecs []*RecognizerConfig
	if cfg.patternFile != "" {
		rf, err := LoadRecognizerFile(cfg.patternFile)
		if err != nil {
			return nil, fmt.Errorf("loading global pattern file: %w", err)
		}
		if rf != nil {
			globalRecs = toPtrSlice(rf.Recognizers)
		}
	}

	var customRecs []*RecognizerConfig
	if len(cfg.customRecognizers) > 0 {
		customRecs = toPtrSlice(cfg.customRecognizers)
	}

	merged := MergeRecognizers(toPtrSlice(defaults), globalRecs, customRecs)
	merged = FilterByEntities(merged, cfg.enabledEntities, cfg.disabledEntities)

	rules, err := CompileRules(merged)
	if err != nil {
		return nil, fmt.Errorf("compiling patterns: %w", err)
	}

	d := &Detector{
		rules:        rules,
		ref:          ref,
		minScore:     DefaultMinScore,
		ageWindow:    DefaultAgeWindow,
		addrWindow:   DefaultAddressWindow,
		addrKeywords: DefaultAddressKeywords,
	}
	if cfg.minScore > 0 {
		d.minScore = cfg.minScore
	}
	if cfg.ageWindow > 0 {
		d.ageWindow = cfg.ageWindow
	}
	if cfg.addrWindow > 0 {
		d.addrWindow = cfg.addrWindow
	}
	if len(cfg.addrKeywords) > 0 {
		d.addrKeywords = cfg.addrKeywords
	}
	return d, nil
}

// MustNew is like New but panics on error. Useful for zero-config startup
// where the embedded defaults are expected to always compile.
func MustNew(ref *refdata.Store, opts ...Option) *Detector {
	d, err := New(ref, opts...)
	if err != nil {
		panic(fmt.Sprintf("detector.New: %v", err))
	}
	return d
}

// Detect runs every recognizer and returns the unresolved candidate list.
// A panicking recognizer contributes zero entities; it never aborts the pass.
func (d *Detector) Detect(ctx context.Context, text string) []entity.Entity {
	_, span := tracer.Start(ctx, "detector.detect")
	defer span.End()

	snap := d.ref.Snapshot()

	var candidates []entity.Entity
	recognizers := []struct {
		name string
		run  func() []entity.Entity
	}{
		{"regex", func() []entity.Entity { return d.detectRegex(text) }},
		{"name-lookup", func() []entity.Entity { return detectNameLookups(text, snap) }},
		{"name-template", func() []entity.Entity { return detectNameTemplates(text, snap) }},
		{"address", func() []entity.Entity { return d.detectAddresses(text, snap) }},
	}
	for _, rec := range recognizers {
		candidates = append(candidates, runRecognizer(rec.name, rec.run)...)
	}

	span.SetAttributes(
		attribute.Int("pii.candidate_count", len(candidates)),
	)
	return candidates
}

// runRecognizer isolates one recognizer so a panic degrades to "zero
// entities" instead of aborting the whole detection pass.
func runRecognizer(name string, run func() []entity.Entity) (out []entity.Entity) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("recognizer", name).Interface("panic", r).Msg("recognizer panicked, treating as empty")
			out = nil
		}
	}()
	return run()
}

// detectRegex runs all compiled YAML-defined rules.
func (d *Detector) detectRegex(text string) []entity.Entity {
	var out []entity.Entity
	for _, rule := range d.rules {
		matches := rule.Pattern.FindAllStringSubmatchIndex(text, -1)
		for _, m := range matches {
			start, end := m[0], m[1]
			if rule.group > 0 && 2*rule.group+1 < len(m) && m[2*rule.group] >= 0 {
				start, end = m[2*rule.group], m[2*rule.group+1]
			}
			value := text[start:end]

			if rule.ValidateLuhn && !luhnValid(toDigits(value)) {
				continue
			}
			if rule.Kind == entity.KindAge && !d.validAge(text, m[0], m[1], value) {
				continue
			}

			confidence := enhanceScoreWithContext(text, m[0], rule.Score, rule.ContextWords)
			if confidence < d.minScore {
				continue
			}
			if confidence > 1 {
				confidence = 1
			}

			out = append(out, entity.Entity{
				Kind:       rule.Kind,
				Value:      value,
				Start:      start,
				End:        end,
				Confidence: confidence,
				Source:     rule.Name,
			})
		}
	}
	return out
}

// validAge bounds the number to [1,120] and requires an age-indicating word
// within the configured window around the full match.
func (d *Detector) validAge(text string, matchStart, matchEnd int, value string) bool {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 120 {
		return false
	}
	lo := matchStart - d.ageWindow
	if lo < 0 {
		lo = 0
	}
	hi := matchEnd + d.ageWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]
	for _, w := range ageContextWords {
		if strings.Contains(window, w) {
			return true
		}
	}
	return false
}

// enhanceScoreWithContext boosts a match's base score if a context word is
// found within the default window of the match position.
func enhanceScoreWithContext(text string, position int, baseScore float64, contextWords []string) float64 {
	if len(contextWords) == 0 {
		return baseScore
	}
	start := position - DefaultContextWindow
	if start < 0 {
		start = 0
	}
	end := position + DefaultContextWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	for _, cw := range contextWords {
		if strings.Contains(window, strings.ToLower(cw)) {
			return baseScore + ContextSimilarityFactor
		}
	}
	return baseScore
}

// luhnValid checks whether a digit string passes the Luhn algorithm.
func luhnValid(number string) bool {
	n := len(number)
	if n < 2 {
		return false
	}
	sum := 0
	alt := false
	for i := n - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

func toDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
