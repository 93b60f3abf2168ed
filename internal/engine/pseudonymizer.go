package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AenganZ/pseudo/internal/detector"
	"github.com/AenganZ/pseudo/internal/entity"
	"github.com/AenganZ/pseudo/internal/ner"
	pseudootel "github.com/AenganZ/pseudo/internal/otel"
	"github.com/AenganZ/pseudo/internal/pools"
	"github.com/AenganZ/pseudo/internal/resolver"
)

var tracer = pseudootel.Tracer("github.com/AenganZ/pseudo/internal/engine")

const modelPatternsOnly = "patterns-only"

// Pseudonymizer is the end-to-end pipeline: detect, resolve, allocate,
// rewrite. Safe for concurrent use; the pool manager serializes its own
// cursor state.
type Pseudonymizer struct {
	detector *detector.Detector
	pool     *pools.Manager
	provider ner.Provider
}

// Result is the outcome of one pseudonymization pass. SubstitutionMap maps
// each original value to its synthetic replacement; ReverseMap is its
// inverse, keyed by replacement. When several addresses collapsed onto one
// region label the reverse map holds the first original.
type Result struct {
	MaskedText      string            `json:"masked_text"`
	Detection       entity.Report     `json:"detection"`
	SubstitutionMap map[string]string `json:"substitution_map"`
	ReverseMap      map[string]string `json:"reverse_map"`
}

// New creates a pipeline. A nil provider disables the supplemental stage.
func New(det *detector.Detector, pool *pools.Manager, provider ner.Provider) *Pseudonymizer {
	if provider == nil {
		provider = ner.Noop{}
	}
	return &Pseudonymizer{detector: det, pool: pool, provider: provider}
}

// Pseudonymize runs the full pass over text. It never returns an error:
// on an internal failure it degrades to the original text with the report
// flagged, so callers can always distinguish "clean" from "gave up".
func (p *Pseudonymizer) Pseudonymize(ctx context.Context, text string) (res Result) {
	ctx, span := tracer.Start(ctx, "engine.pseudonymize")
	defer span.End()

	res = Result{
		MaskedText:      text,
		SubstitutionMap: map[string]string{},
		ReverseMap:      map[string]string{},
		Detection:       entity.Report{ModelUsed: modelPatternsOnly},
	}
	if strings.TrimSpace(text) == "" {
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("pseudonymization pass panicked, returning original text")
			res = degraded(text, "internal error")
		}
	}()

	candidates := p.detector.Detect(ctx, text)

	if _, disabled := p.provider.(ner.Noop); !disabled {
		supplemental, err := p.provider.Detect(ctx, text)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.provider.Name()).Msg("supplemental recognizer failed, continuing with patterns only")
		} else {
			res.Detection.ModelUsed = p.provider.Name()
			for _, e := range supplemental {
				e.Source = entity.SourceSupplemental
				if e.Valid(text) {
					candidates = append(candidates, e)
				}
			}
		}
	}

	resolution := resolver.Resolve(candidates, detector.SourcePriority)
	for _, e := range resolution.Entities {
		if !e.Valid(text) {
			log.Error().Stringer("entity", e).Msg("resolved entity has malformed span, returning original text")
			return degraded(text, "malformed entity span")
		}
	}

	mapping := buildMapping(resolution, p.pool)
	res.MaskedText = Rewrite(text, mapping.Forward)
	res.SubstitutionMap = mapping.Forward
	res.ReverseMap = mapping.Reverse
	res.Detection.ContainsPII = len(mapping.Items) > 0
	res.Detection.Items = mapping.Items

	span.SetAttributes(
		attribute.Int("pii.entity_count", len(resolution.Entities)),
		attribute.Bool("pii.contains_pii", res.Detection.ContainsPII),
		attribute.String("pii.model_used", res.Detection.ModelUsed),
	)
	return res
}

// Restore reverses a prior pass using its reverse map.
func (p *Pseudonymizer) Restore(ctx context.Context, masked string, reverse map[string]string) string {
	_, span := tracer.Start(ctx, "engine.restore")
	defer span.End()
	span.SetAttributes(attribute.Int("pii.reverse_entries", len(reverse)))
	return Restore(masked, reverse)
}

func degraded(text, reason string) Result {
	return Result{
		MaskedText:      text,
		SubstitutionMap: map[string]string{},
		ReverseMap:      map[string]string{},
		Detection: entity.Report{
			ModelUsed:      modelPatternsOnly,
			Degraded:       true,
			DegradedReason: reason,
		},
	}
}
