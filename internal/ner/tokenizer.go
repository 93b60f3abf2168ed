package ner

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// wordPieceTokenizer is a minimal BERT-compatible tokenizer that tracks the
// byte span of every emitted piece, which lets BIO label spans map back to
// the original text. Korean vocabularies are cased, so no lowercasing.
type wordPieceTokenizer struct {
	vocab        map[string]int64
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// tokenOffset is the byte span a token covers, or {-1,-1} for special and
// padding tokens.
type tokenOffset struct {
	Start int
	End   int
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return &wordPieceTokenizer{
		vocab:        vocab,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}, nil
}

// encodeWithOffsets converts text into token IDs, an attention mask, and
// per-token byte offsets, all of length seqLen.
func (t *wordPieceTokenizer) encodeWithOffsets(text string, seqLen int) ([]int64, []int64, []tokenOffset) {
	if seqLen <= 0 {
		return nil, nil, nil
	}

	tokens := []int64{t.clsID}
	offsets := []tokenOffset{{Start: -1, End: -1}}

	for _, w := range splitWords(text) {
		for _, p := range t.pieces(w.text) {
			tokens = append(tokens, p.id)
			offsets = append(offsets, tokenOffset{Start: w.start + p.start, End: w.start + p.end})
			if len(tokens) >= seqLen-1 {
				break
			}
		}
		if len(tokens) >= seqLen-1 {
			break
		}
	}

	tokens = append(tokens, t.sepID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})

	attn := make([]int64, seqLen)
	for i := 0; i < len(tokens) && i < seqLen; i++ {
		attn[i] = 1
	}
	for len(tokens) < seqLen {
		tokens = append(tokens, t.padID)
		offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	}
	return tokens[:seqLen], attn, offsets[:seqLen]
}

type piece struct {
	id         int64
	start, end int
}

// pieces applies greedy longest-match wordpiece segmentation, keeping byte
// offsets relative to the word.
func (t *wordPieceTokenizer) pieces(word string) []piece {
	if id, ok := t.vocab[word]; ok {
		return []piece{{id: id, start: 0, end: len(word)}}
	}

	var out []piece
	start := 0
	for start < len(word) {
		matched := false
		for end := len(word); end > start; end-- {
			sub := word[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				out = append(out, piece{id: id, start: start, end: end})
				start = end
				matched = true
				break
			}
		}
		if !matched {
			return []piece{{id: t.unkID, start: 0, end: len(word)}}
		}
	}
	if len(out) == 0 {
		return []piece{{id: t.unkID, start: 0, end: len(word)}}
	}
	return out
}

type word struct {
	text       string
	start, end int
}

func splitWords(text string) []word {
	var words []word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{text: text[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{text: text[start:], start: start, end: len(text)})
	}
	return words
}
