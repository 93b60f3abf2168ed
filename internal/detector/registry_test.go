package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AenganZ/pseudo/internal/entity"
)

const sampleYAML = `
recognizers:
  - name: TestEmailRecognizer
    supported_entity: EMAIL_ADDRESS
    patterns:
      - name: email
        regex: '[a-z]+@[a-z]+\.[a-z]+'
        score: 0.9
    supported_languages:
      - language: ko
        context: [이메일, 메일]
  - name: DisabledRecognizer
    supported_entity: PHONE_NUMBER
    enabled: false
    patterns:
      - name: phone
        regex: '[0-9]{3}'
        score: 0.5
`

func TestParseRecognizerFile(t *testing.T) {
	rf, err := ParseRecognizerFile([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, rf.Recognizers, 2)

	rec := rf.Recognizers[0]
	assert.Equal(t, "TestEmailRecognizer", rec.Name)
	assert.Equal(t, "EMAIL_ADDRESS", rec.SupportedEntity)
	assert.True(t, rec.isEnabled())
	assert.Equal(t, []string{"이메일", "메일"}, rec.contextWords())

	assert.False(t, rf.Recognizers[1].isEnabled())
}

func TestParseRecognizerFile_InvalidYAML(t *testing.T) {
	_, err := ParseRecognizerFile([]byte("recognizers: [}"))
	assert.Error(t, err)
}

func TestLoadRecognizerFile_MissingIsNil(t *testing.T) {
	rf, err := LoadRecognizerFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, rf)
}

func TestLoadRecognizerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	rf, err := LoadRecognizerFile(path)
	require.NoError(t, err)
	require.NotNil(t, rf)
	assert.Len(t, rf.Recognizers, 2)
}

func TestDefaultRecognizers(t *testing.T) {
	recs, err := DefaultRecognizers()
	require.NoError(t, err)

	byName := make(map[string]RecognizerConfig, len(recs))
	for _, r := range recs {
		byName[r.Name] = r
	}
	assert.Contains(t, byName, "EmailRecognizer")
	assert.Contains(t, byName, "KRPhoneRecognizer")
	assert.Contains(t, byName, "KRAgeRecognizer")
	assert.Contains(t, byName, "KRRRNRecognizer")
	assert.Contains(t, byName, "CreditCardRecognizer")
	assert.Equal(t, "luhn", byName["CreditCardRecognizer"].Validate)
}

func TestMergeRecognizers(t *testing.T) {
	base := []*RecognizerConfig{
		{Name: "A", SupportedEntity: "EMAIL_ADDRESS"},
		{Name: "B", SupportedEntity: "PHONE_NUMBER"},
	}
	override := []*RecognizerConfig{
		{Name: "B", SupportedEntity: "KR_PHONE_NUMBER"},
		{Name: "C", SupportedEntity: "KR_AGE"},
		nil,
	}

	merged := MergeRecognizers(base, override)
	require.Len(t, merged, 3)
	assert.Equal(t, "A", merged[0].Name)
	assert.Equal(t, "KR_PHONE_NUMBER", merged[1].SupportedEntity, "later layer overrides by name")
	assert.Equal(t, "C", merged[2].Name)
}

func TestFilterByEntities(t *testing.T) {
	recs := []RecognizerConfig{
		{Name: "A", SupportedEntity: "EMAIL_ADDRESS"},
		{Name: "B", SupportedEntity: "KR_PHONE_NUMBER"},
		{Name: "C", SupportedEntity: "KR_AGE"},
	}

	whitelisted := FilterByEntities(recs, []string{"EMAIL_ADDRESS", "KR_AGE"}, nil)
	require.Len(t, whitelisted, 2)
	assert.Equal(t, "A", whitelisted[0].Name)
	assert.Equal(t, "C", whitelisted[1].Name)

	blacklisted := FilterByEntities(recs, nil, []string{"KR_PHONE_NUMBER"})
	require.Len(t, blacklisted, 2)

	both := FilterByEntities(recs, []string{"EMAIL_ADDRESS", "KR_AGE"}, []string{"KR_AGE"})
	require.Len(t, both, 1)
	assert.Equal(t, "A", both[0].Name)
}

func TestCompileRules(t *testing.T) {
	disabled := false
	recs := []RecognizerConfig{
		{
			Name:            "Card",
			SupportedEntity: "CREDIT_CARD",
			Validate:        "luhn",
			Patterns:        []PatternConfig{{Name: "card", Regex: `[0-9]{16}`, Score: 0.7}},
		},
		{
			Name:            "Age",
			SupportedEntity: "KR_AGE",
			Patterns:        []PatternConfig{{Name: "age", Regex: `([0-9]{1,3})\s*(?:세|살)`, Score: 0.85}},
		},
		{
			Name:            "Off",
			SupportedEntity: "EMAIL_ADDRESS",
			Enabled:         &disabled,
			Patterns:        []PatternConfig{{Name: "email", Regex: `.+@.+`, Score: 0.9}},
		},
	}

	rules, err := CompileRules(recs)
	require.NoError(t, err)
	require.Len(t, rules, 2, "disabled recognizers are skipped")

	assert.True(t, rules[0].ValidateLuhn)
	assert.Equal(t, entity.KindCreditCard, rules[0].Kind)
	assert.Equal(t, 0, rules[0].group)

	assert.Equal(t, entity.KindAge, rules[1].Kind)
	assert.Equal(t, 1, rules[1].group, "age rules capture the bare number")
}

func TestCompileRules_InvalidRegex(t *testing.T) {
	recs := []RecognizerConfig{{
		Name:            "Broken",
		SupportedEntity: "EMAIL_ADDRESS",
		Patterns:        []PatternConfig{{Name: "bad", Regex: `([`, Score: 0.5}},
	}}

	_, err := CompileRules(recs)
	assert.Error(t, err)
}

func TestEntityToKind(t *testing.T) {
	assert.Equal(t, entity.KindEmail, entityToKind("EMAIL_ADDRESS"))
	assert.Equal(t, entity.KindPhone, entityToKind("KR_PHONE_NUMBER"))
	assert.Equal(t, entity.KindRRN, entityToKind("KR_RRN"))
	assert.Equal(t, entity.KindOther, entityToKind("SOMETHING_ELSE"))
}
