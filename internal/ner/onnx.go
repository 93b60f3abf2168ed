package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/AenganZ/pseudo/internal/entity"
)

const defaultSeqLen = 256

// labelKinds maps BIO label stems emitted by Korean NER models to PII
// kinds. Unmapped stems (OG, DT, TI, QT) are dropped.
var labelKinds = map[string]entity.Kind{
	"PS": entity.KindName,
	"LC": entity.KindAddress,
}

// ONNXProvider runs a token-classification model through onnxruntime. The
// session holds fixed input/output tensors, so inference is serialized
// behind a mutex.
type ONNXProvider struct {
	session   *ort.AdvancedSession
	tokenizer *wordPieceTokenizer
	labels    []string
	seqLen    int
	minScore  float64

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadONNX initializes the provider from a model bundle directory holding
// model.onnx, label_map.json, and tokenizer/vocab.txt.
func LoadONNX(bundleDir string, seqLen int, minScore float64) (*ONNXProvider, error) {
	if bundleDir == "" {
		return nil, errors.New("bundle dir is empty")
	}
	if seqLen <= 0 {
		seqLen = defaultSeqLen
	}
	if minScore <= 0 {
		minScore = 0.5
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	labels, err := loadLabels(filepath.Join(bundleDir, "label_map.json"))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	tokenizer, err := loadWordPieceTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(len(labels))))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	log.Info().Str("bundle", bundleDir).Int("seq_len", seqLen).Int("labels", len(labels)).Msg("loaded supplemental recognizer model")

	return &ONNXProvider{
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		seqLen:        seqLen,
		minScore:      minScore,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

func (p *ONNXProvider) Name() string { return "onnx-ner" }

// Close releases the session and its tensors.
func (p *ONNXProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{p.inputIDs, p.attentionMask} {
		if t != nil {
			t.Destroy()
		}
	}
	if p.output != nil {
		p.output.Destroy()
	}
	return nil
}

// Detect tokenizes the text, runs inference, and decodes BIO token labels
// into byte-offset entity spans.
func (p *ONNXProvider) Detect(ctx context.Context, text string) ([]entity.Entity, error) {
	if p == nil || p.tokenizer == nil {
		return nil, errors.New("onnx provider not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, attn, offsets := p.tokenizer.encodeWithOffsets(text, p.seqLen)

	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return nil, errors.New("onnx provider closed")
	}
	copy(p.inputIDs.GetData(), ids)
	copy(p.attentionMask.GetData(), attn)
	if err := p.session.Run(); err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	logits := make([]float32, len(p.output.GetData()))
	copy(logits, p.output.GetData())
	p.mu.Unlock()

	return p.decode(text, logits, attn, offsets), nil
}

type tokenLabel struct {
	stem  string
	begin bool
	score float64
}

// decode applies per-token argmax over the label dimension and folds B-/I-
// runs of the same stem into one span. Span confidence is the mean token
// probability.
func (p *ONNXProvider) decode(text string, logits []float32, attn []int64, offsets []tokenOffset) []entity.Entity {
	n := len(p.labels)
	var out []entity.Entity

	spanStart, spanEnd := -1, -1
	spanStem := ""
	var spanScores []float64

	flush := func() {
		if spanStart < 0 || spanEnd <= spanStart {
			spanStart, spanEnd, spanStem, spanScores = -1, -1, "", nil
			return
		}
		kind, ok := labelKinds[spanStem]
		if !ok {
			spanStart, spanEnd, spanStem, spanScores = -1, -1, "", nil
			return
		}
		score := mean(spanScores)
		if score >= p.minScore && spanEnd <= len(text) {
			out = append(out, entity.Entity{
				Kind:       kind,
				Value:      text[spanStart:spanEnd],
				Start:      spanStart,
				End:        spanEnd,
				Confidence: score,
				Source:     entity.SourceSupplemental,
			})
		}
		spanStart, spanEnd, spanStem, spanScores = -1, -1, "", nil
	}

	for i := 0; i < p.seqLen; i++ {
		if attn[i] == 0 || offsets[i].Start < 0 {
			flush()
			continue
		}
		lbl := p.classify(logits[i*n : (i+1)*n])
		if lbl.stem == "" {
			flush()
			continue
		}
		if lbl.begin || lbl.stem != spanStem || spanStart < 0 {
			flush()
			spanStart, spanEnd = offsets[i].Start, offsets[i].End
			spanStem = lbl.stem
			spanScores = []float64{lbl.score}
			continue
		}
		spanEnd = offsets[i].End
		spanScores = append(spanScores, lbl.score)
	}
	flush()
	return out
}

// classify returns the argmax label for one token's logits as a BIO stem
// with its softmax probability. The O label yields an empty stem.
func (p *ONNXProvider) classify(logits []float32) tokenLabel {
	best, bestIdx := float32(math.Inf(-1)), 0
	var sum float64
	for i, l := range logits {
		if l > best {
			best, bestIdx = l, i
		}
	}
	for _, l := range logits {
		sum += math.Exp(float64(l - best))
	}
	prob := 1.0 / sum

	label := p.labels[bestIdx]
	switch {
	case strings.HasPrefix(label, "B-"):
		return tokenLabel{stem: label[2:], begin: true, score: prob}
	case strings.HasPrefix(label, "I-"):
		return tokenLabel{stem: label[2:], begin: false, score: prob}
	default:
		return tokenLabel{}
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// loadLabels reads label_map.json as either an array or an index-keyed map.
func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	out := make([]string, len(m))
	for k, v := range m {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			return nil, fmt.Errorf("invalid label index %q: %w", k, convErr)
		}
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = v
	}
	return out, nil
}

// resolveSharedLibraryPath locates the onnxruntime shared library. The
// ONNXRUNTIME_SHARED_LIBRARY_PATH environment variable wins; otherwise
// common names and locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}
	names := []string{"libonnxruntime.so", "libonnxruntime.dylib", "onnxruntime.dll"}
	dirs := []string{bundleDir, filepath.Join(bundleDir, "lib"), "/usr/local/lib", "/usr/lib", "/opt/homebrew/lib"}
	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
