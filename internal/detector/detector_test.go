package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AenganZ/pseudo/internal/entity"
)

func findByKind(entities []entity.Entity, kind entity.Kind) (entity.Entity, bool) {
	for _, e := range entities {
		if e.Kind == kind {
			return e, true
		}
	}
	return entity.Entity{}, false
}

func TestDetect_Email(t *testing.T) {
	d, _ := newTestDetector(t)

	got := d.Detect(context.Background(), "제 이메일은 hong@example.com 입니다")
	e, ok := findByKind(got, entity.KindEmail)
	require.True(t, ok, "got %v", got)
	assert.Equal(t, "hong@example.com", e.Value)
	assert.Equal(t, "hong@example.com", "제 이메일은 hong@example.com 입니다"[e.Start:e.End])
}

func TestDetect_Phone(t *testing.T) {
	d, _ := newTestDetector(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"hyphenated mobile", "연락처는 010-1234-5678 입니다", "010-1234-5678"},
		{"bare digits", "010 1234 5678로 전화 주세요", "010 1234 5678"},
		{"seoul landline", "사무실 전화는 02-312-4567", "02-312-4567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(context.Background(), tt.text)
			e, ok := findByKind(got, entity.KindPhone)
			require.True(t, ok, "got %v", got)
			assert.Equal(t, tt.want, e.Value)
		})
	}
}

func TestDetect_RRN(t *testing.T) {
	d, _ := newTestDetector(t)

	got := d.Detect(context.Background(), "주민등록번호 900101-1234567 확인")
	e, ok := findByKind(got, entity.KindRRN)
	require.True(t, ok, "got %v", got)
	assert.Equal(t, "900101-1234567", e.Value)
}

func TestDetect_CreditCardLuhnGate(t *testing.T) {
	d, _ := newTestDetector(t)

	// 4111-1111-1111-1111 passes Luhn.
	got := d.Detect(context.Background(), "카드번호 4111-1111-1111-1111 결제")
	_, ok := findByKind(got, entity.KindCreditCard)
	assert.True(t, ok, "got %v", got)

	// Same shape, broken checksum.
	got = d.Detect(context.Background(), "카드번호 4111-1111-1111-1112 결제")
	_, ok = findByKind(got, entity.KindCreditCard)
	assert.False(t, ok, "got %v", got)
}

func TestDetect_Age(t *testing.T) {
	d, _ := newTestDetector(t)

	got := d.Detect(context.Background(), "저는 25살입니다")
	e, ok := findByKind(got, entity.KindAge)
	require.True(t, ok, "got %v", got)
	assert.Equal(t, "25", e.Value)
	assert.Equal(t, "25", "저는 25살입니다"[e.Start:e.End])
}

func TestDetect_AgeBounds(t *testing.T) {
	d, _ := newTestDetector(t)

	got := d.Detect(context.Background(), "무게는 500살이 아니라 500그램")
	_, ok := findByKind(got, entity.KindAge)
	assert.False(t, ok, "ages above 120 are rejected, got %v", got)
}

func TestDetect_ContextBoostLiftsWeakScore(t *testing.T) {
	custom := []RecognizerConfig{{
		Name:            "OrderIDRecognizer",
		SupportedEntity: "ORDER_ID",
		Patterns:        []PatternConfig{{Name: "order", Regex: `ORD-[0-9]{6}`, Score: 0.3}},
		SupportedLanguages: []LanguageContext{
			{Language: "ko", Context: []string{"주문번호"}},
		},
	}}
	d, _ := newTestDetector(t, WithCustomRecognizers(custom))

	boosted := d.Detect(context.Background(), "주문번호 ORD-123456 건입니다")
	e, ok := findByKind(boosted, entity.KindOther)
	require.True(t, ok, "0.3 + 0.35 boost clears the threshold, got %v", boosted)
	assert.InDelta(t, 0.65, e.Confidence, 0.001)

	plain := d.Detect(context.Background(), "ORD-123456 건입니다")
	_, ok = findByKind(plain, entity.KindOther)
	assert.False(t, ok, "0.3 without context stays below the threshold")
}

func TestDetect_MinScoreOption(t *testing.T) {
	d, _ := newTestDetector(t, WithMinScore(0.99))

	// Email base score is 0.95; only the context boost clears 0.99.
	got := d.Detect(context.Background(), "hong@example.com 으로 보내세요")
	_, ok := findByKind(got, entity.KindEmail)
	assert.False(t, ok, "got %v", got)

	got = d.Detect(context.Background(), "이메일 hong@example.com 으로 보내세요")
	e, ok := findByKind(got, entity.KindEmail)
	require.True(t, ok, "got %v", got)
	assert.InDelta(t, 1.0, e.Confidence, 0.001, "boosted score is capped at 1")
}

func TestDetect_DisabledEntities(t *testing.T) {
	d, _ := newTestDetector(t, WithDisabledEntities([]string{"EMAIL_ADDRESS"}))

	got := d.Detect(context.Background(), "이메일 hong@example.com")
	_, ok := findByKind(got, entity.KindEmail)
	assert.False(t, ok)
}

func TestDetect_CombinesRecognizers(t *testing.T) {
	d, _ := newTestDetector(t)

	text := "홍길동님 연락처는 010-1234-5678, 서울특별시 강남구에 삽니다"
	got := d.Detect(context.Background(), text)

	_, hasName := findByKind(got, entity.KindName)
	_, hasPhone := findByKind(got, entity.KindPhone)
	_, hasAddr := findByKind(got, entity.KindAddress)
	assert.True(t, hasName, "got %v", got)
	assert.True(t, hasPhone, "got %v", got)
	assert.True(t, hasAddr, "got %v", got)
}

func TestSourcePriority(t *testing.T) {
	assert.Equal(t, PrioritySupplemental, SourcePriority(entity.SourceSupplemental))
	assert.Equal(t, PriorityLookup, SourcePriority("lookup-names"))
	assert.Equal(t, PriorityLookup, SourcePriority("lookup-address"))
	assert.Equal(t, PriorityRegex, SourcePriority("EmailRecognizer"))
	assert.Equal(t, PriorityRegex, SourcePriority("name-template"))
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, luhnValid("4111111111111111"))
	assert.False(t, luhnValid("4111111111111112"))
	assert.False(t, luhnValid("1"))
	assert.False(t, luhnValid("41x1"))
}

func TestEnhanceScoreWithContext(t *testing.T) {
	text := "이메일 주소는 a@b.com 입니다"
	boosted := enhanceScoreWithContext(text, 20, 0.5, []string{"이메일"})
	assert.InDelta(t, 0.85, boosted, 0.001)

	unboosted := enhanceScoreWithContext(text, 20, 0.5, []string{"전화"})
	assert.InDelta(t, 0.5, unboosted, 0.001)

	noWords := enhanceScoreWithContext(text, 20, 0.5, nil)
	assert.InDelta(t, 0.5, noWords, 0.001)
}
