package ner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AenganZ/pseudo/internal/entity"
)

var testLabels = []string{"O", "B-PS", "I-PS", "B-LC", "I-LC"}

// tokenLogits builds one seqLen x labels logits block with the given label
// index spiked per token.
func tokenLogits(seqLen int, spikes map[int]int) []float32 {
	n := len(testLabels)
	logits := make([]float32, seqLen*n)
	for token, label := range spikes {
		logits[token*n+label] = 10
	}
	return logits
}

func TestDecode_SingleTokenSpans(t *testing.T) {
	p := &ONNXProvider{labels: testLabels, seqLen: 6, minScore: 0.5}

	text := "김민준 서울"
	attn := []int64{1, 1, 1, 1, 0, 0}
	offsets := []tokenOffset{
		{-1, -1},  // CLS
		{0, 9},    // 김민준
		{10, 16},  // 서울
		{-1, -1},  // SEP
		{-1, -1},
		{-1, -1},
	}
	logits := tokenLogits(6, map[int]int{1: 1, 2: 3}) // B-PS, B-LC

	got := p.decode(text, logits, attn, offsets)
	require.Len(t, got, 2)

	assert.Equal(t, entity.KindName, got[0].Kind)
	assert.Equal(t, "김민준", got[0].Value)
	assert.Equal(t, entity.SourceSupplemental, got[0].Source)
	assert.Greater(t, got[0].Confidence, 0.9)

	assert.Equal(t, entity.KindAddress, got[1].Kind)
	assert.Equal(t, "서울", got[1].Value)
}

func TestDecode_ContinuationMergesSpan(t *testing.T) {
	p := &ONNXProvider{labels: testLabels, seqLen: 5, minScore: 0.5}

	text := "김민준님"
	attn := []int64{1, 1, 1, 1, 0}
	offsets := []tokenOffset{
		{-1, -1},
		{0, 9},  // 김민준
		{9, 12}, // ##님
		{-1, -1},
		{-1, -1},
	}
	logits := tokenLogits(5, map[int]int{1: 1, 2: 2}) // B-PS, I-PS

	got := p.decode(text, logits, attn, offsets)
	require.Len(t, got, 1)
	assert.Equal(t, "김민준님", got[0].Value)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 12, got[0].End)
}

func TestDecode_LowConfidenceFiltered(t *testing.T) {
	p := &ONNXProvider{labels: testLabels, seqLen: 3, minScore: 0.5}

	text := "김민준"
	attn := []int64{1, 1, 1}
	offsets := []tokenOffset{{-1, -1}, {0, 9}, {-1, -1}}
	// Near-uniform logits: argmax lands on B-PS with a weak softmax.
	n := len(testLabels)
	logits := make([]float32, 3*n)
	logits[1*n+1] = 0.1

	got := p.decode(text, logits, attn, offsets)
	assert.Empty(t, got)
}

func TestDecode_UnmappedStemDropped(t *testing.T) {
	labels := []string{"O", "B-OG", "I-OG"}
	p := &ONNXProvider{labels: labels, seqLen: 3, minScore: 0.5}

	text := "회사명"
	attn := []int64{1, 1, 1}
	offsets := []tokenOffset{{-1, -1}, {0, 9}, {-1, -1}}
	n := len(labels)
	logits := make([]float32, 3*n)
	logits[1*n+1] = 10 // B-OG

	got := p.decode(text, logits, attn, offsets)
	assert.Empty(t, got, "organization labels are not PII kinds here")
}

func TestClassify(t *testing.T) {
	p := &ONNXProvider{labels: testLabels}

	lbl := p.classify([]float32{0, 10, 0, 0, 0})
	assert.Equal(t, "PS", lbl.stem)
	assert.True(t, lbl.begin)
	assert.Greater(t, lbl.score, 0.99)

	lbl = p.classify([]float32{0, 0, 10, 0, 0})
	assert.Equal(t, "PS", lbl.stem)
	assert.False(t, lbl.begin)

	lbl = p.classify([]float32{10, 0, 0, 0, 0})
	assert.Empty(t, lbl.stem, "O yields no stem")
}

func TestLoadLabels_Array(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_map.json")
	require.NoError(t, os.WriteFile(path, []byte(`["O","B-PS","I-PS"]`), 0o600))

	labels, err := loadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "B-PS", "I-PS"}, labels)
}

func TestLoadLabels_IndexKeyedMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_map.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"0":"O","2":"I-PS","1":"B-PS"}`), 0o600))

	labels, err := loadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "B-PS", "I-PS"}, labels)
}

func TestLoadLabels_BadIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_map.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"zero":"O"}`), 0o600))

	_, err := loadLabels(path)
	assert.Error(t, err)
}

func TestNoopProvider(t *testing.T) {
	got, err := Noop{}.Detect(context.Background(), "김민준")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "none", Noop{}.Name())
}

func TestONNXProviderName(t *testing.T) {
	p := &ONNXProvider{}
	assert.Equal(t, "onnx-ner", p.Name())
}

func TestLoadONNX_EmptyBundleDir(t *testing.T) {
	_, err := LoadONNX("", 0, 0)
	assert.Error(t, err)
}
