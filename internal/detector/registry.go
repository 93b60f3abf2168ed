package detector

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/AenganZ/pseudo/internal/entity"
	"github.com/AenganZ/pseudo/patterns"
)

// RecognizerFile is the top-level YAML structure for a recognizer config file.
// Mirrors Presidio's recognizer registry YAML format.
type RecognizerFile struct {
	Recognizers []RecognizerConfig `yaml:"recognizers"`
}

// RecognizerConfig mirrors Presidio's YAML recognizer schema with local
// extensions (sensitivity, validate).
type RecognizerConfig struct {
	Name               string            `yaml:"name" json:"name"`
	SupportedEntity    string            `yaml:"supported_entity" json:"supported_entity"`
	Enabled            *bool             `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Patterns           []PatternConfig   `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	SupportedLanguages []LanguageContext `yaml:"supported_languages,omitempty" json:"supported_languages,omitempty"`
	Sensitivity        int               `yaml:"sensitivity,omitempty" json:"sensitivity,omitempty"`
	Validate           string            `yaml:"validate,omitempty" json:"validate,omitempty"`
}

// PatternConfig is a single regex pattern within a recognizer.
type PatternConfig struct {
	Name  string  `yaml:"name" json:"name"`
	Regex string  `yaml:"regex" json:"regex"`
	Score float64 `yaml:"score" json:"score"`
}

// LanguageContext holds context words for a specific language.
type LanguageContext struct {
	Language string   `yaml:"language" json:"language"`
	Context  []string `yaml:"context,omitempty" json:"context,omitempty"`
}

func (r *RecognizerConfig) isEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// contextWords flattens all per-language context words.
func (r *RecognizerConfig) contextWords() []string {
	var words []string
	for _, lc := range r.SupportedLanguages {
		words = append(words, lc.Context...)
	}
	return words
}

// ParseRecognizerFile parses recognizer YAML bytes into a RecognizerFile.
func ParseRecognizerFile(data []byte) (*RecognizerFile, error) {
	var rf RecognizerFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing recognizer YAML: %w", err)
	}
	return &rf, nil
}

// LoadRecognizerFile reads and parses a recognizer YAML file from disk.
// Returns nil (not an error) if the file does not exist, so callers can
// treat a missing global override file as a no-op.
func LoadRecognizerFile(path string) (*RecognizerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recognizer file %s: %w", path, err)
	}
	return ParseRecognizerFile(data)
}

// DefaultRecognizers returns the built-in recognizers parsed from the
// embedded pii_kr.yaml file. This is the first layer in the merge chain.
func DefaultRecognizers() ([]RecognizerConfig, error) {
	rf, err := ParseRecognizerFile(patterns.PIIKRYAML())
	if err != nil {
		return nil, fmt.Errorf("parsing embedded PII patterns: %w", err)
	}
	return rf.Recognizers, nil
}

// MergeRecognizers performs a layered merge: defaults, then overrides.
// Later layers override earlier ones by matching on the recognizer Name
// field; new recognizers are appended.
func MergeRecognizers(layers ...[]*RecognizerConfig) []RecognizerConfig {
	index := make(map[string]int)
	var merged []RecognizerConfig

	for _, layer := range layers {
		for _, rc := range layer {
			if rc == nil {
				continue
			}
			if idx, exists := index[rc.Name]; exists {
				merged[idx] = *rc
			} else {
				index[rc.Name] = len(merged)
				merged = append(merged, *rc)
			}
		}
	}

	return merged
}

func toPtrSlice(configs []RecognizerConfig) []*RecognizerConfig {
	ptrs := make([]*RecognizerConfig, len(configs))
	for i := range configs {
		ptrs[i] = &configs[i]
	}
	return ptrs
}

// FilterByEntities applies enabled/disabled entity filters to a recognizer
// list. A non-empty enabled list is a whitelist; disabled is a blacklist
// applied afterwards.
func FilterByEntities(recognizers []RecognizerConfig, enabledEntities, disabledEntities []string) []RecognizerConfig {
	result := recognizers

	if len(enabledEntities) > 0 {
		allowed := make(map[string]bool, len(enabledEntities))
		for _, e := range enabledEntities {
			allowed[e] = true
		}
		var filtered []RecognizerConfig
		for _, r := range result {
			if allowed[r.SupportedEntity] {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}

	if len(disabledEntities) > 0 {
		blocked := make(map[string]bool, len(disabledEntities))
		for _, e := range disabledEntities {
			blocked[e] = true
		}
		var filtered []RecognizerConfig
		for _, r := range result {
			if !blocked[r.SupportedEntity] {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}

	return result
}

// regexRule is a compiled, ready-to-run regex recognizer row.
type regexRule struct {
	Name         string
	Kind         entity.Kind
	Pattern      *regexp.Regexp
	Score        float64
	Sensitivity  int
	ContextWords []string
	ValidateLuhn bool
	group        int // submatch index carrying the value; 0 = whole match
}

// CompileRules converts recognizer configs into runtime rules. Disabled
// recognizers are skipped; each regex pattern produces one rule.
func CompileRules(recognizers []RecognizerConfig) ([]regexRule, error) {
	var rules []regexRule

	for _, rec := range recognizers {
		if !rec.isEnabled() {
			continue
		}
		kind := entityToKind(rec.SupportedEntity)
		for _, p := range rec.Patterns {
			compiled, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %q in recognizer %q: %w", p.Name, rec.Name, err)
			}
			group := 0
			if kind == entity.KindAge && compiled.NumSubexp() > 0 {
				group = 1 // capture the bare number, not the 세/살 suffix
			}
			rules = append(rules, regexRule{
				Name:         rec.Name,
				Kind:         kind,
				Pattern:      compiled,
				Score:        p.Score,
				Sensitivity:  rec.Sensitivity,
				ContextWords: rec.contextWords(),
				ValidateLuhn: rec.Validate == "luhn",
				group:        group,
			})
		}
	}

	return rules, nil
}

// entityToKind maps Presidio entity names to internal kinds. Unknown
// entities map to KindOther so custom recognizers still flow through.
var entityKindMap = map[string]entity.Kind{
	"EMAIL_ADDRESS":   entity.KindEmail,
	"KR_PHONE_NUMBER": entity.KindPhone,
	"PHONE_NUMBER":    entity.KindPhone,
	"KR_AGE":          entity.KindAge,
	"KR_RRN":          entity.KindRRN,
	"CREDIT_CARD":     entity.KindCreditCard,
	"PERSON":          entity.KindName,
	"LOCATION":        entity.KindAddress,
}

func entityToKind(name string) entity.Kind {
	if k, ok := entityKindMap[name]; ok {
		return k
	}
	return entity.KindOther
}
