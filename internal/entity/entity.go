// Package entity defines the shared data model for detected PII: kinds,
// spans, and the detection report exchanged between detector, resolver,
// engine, and server.
package entity

import "fmt"

// Kind classifies a detected PII occurrence.
type Kind string

// Supported PII kinds. RRN is the Korean resident registration number.
const (
	KindName       Kind = "name"
	KindEmail      Kind = "email"
	KindPhone      Kind = "phone"
	KindAge        Kind = "age"
	KindAddress    Kind = "address"
	KindRRN        Kind = "rrn"
	KindCreditCard Kind = "credit_card"
	KindOther      Kind = "other"
)

// Source tags for the two detection stages. Pattern recognizers use their
// pattern id as the source; the supplemental provider uses SourceSupplemental.
const SourceSupplemental = "supplemental"

// Entity is one detected PII occurrence. Start/End are byte offsets into
// the original UTF-8 text forming a half-open span [Start, End). After any
// declared cleanup (e.g. a stripped trailing particle) the invariant
// Value == text[Start:End] holds.
type Entity struct {
	Kind       Kind    `json:"kind"`
	Value      string  `json:"value"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	// Honorific holds a detected suffix (님/씨/군/양) for name entities.
	// It is included in Value when present.
	Honorific string `json:"honorific,omitempty"`
}

// Valid reports whether the span is well-formed against the given text.
func (e Entity) Valid(text string) bool {
	if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
		return false
	}
	return text[e.Start:e.End] == e.Value
}

// Overlaps reports whether two half-open spans intersect.
func (e Entity) Overlaps(other Entity) bool {
	return e.Start < other.End && e.End > other.Start
}

// Len returns the span length in bytes.
func (e Entity) Len() int { return e.End - e.Start }

// BaseValue returns the value without a trailing honorific suffix. Used for
// value-level deduplication of names.
func (e Entity) BaseValue() string {
	if e.Honorific != "" && len(e.Value) > len(e.Honorific) {
		return e.Value[:len(e.Value)-len(e.Honorific)]
	}
	return e.Value
}

func (e Entity) String() string {
	return fmt.Sprintf("%s %q [%d,%d) conf=%.2f src=%s", e.Kind, e.Value, e.Start, e.End, e.Confidence, e.Source)
}

// WithReplacement pairs a resolved entity with its assigned synthetic value
// for external consumption.
type WithReplacement struct {
	Entity
	Replacement string `json:"replacement"`
}

// Report is the read-only detection projection returned to callers.
// Degraded marks the documented fail-closed fallback: the pipeline hit an
// unexpected internal error and returned the original text unmasked, which
// must be distinguishable from "no PII found".
type Report struct {
	ContainsPII    bool              `json:"contains_pii"`
	Items          []WithReplacement `json:"items"`
	ModelUsed      string            `json:"model_used"`
	Degraded       bool              `json:"degraded,omitempty"`
	DegradedReason string            `json:"degraded_reason,omitempty"`
}
