// Package ner provides the optional supplemental recognizer stage: a
// token-classification model that finds person and location mentions the
// pattern recognizers miss. The engine treats any Provider as best-effort;
// detection degrades to pattern-only output when the provider errors.
package ner

import (
	"context"

	"github.com/AenganZ/pseudo/internal/entity"
)

// Provider is a supplemental entity recognizer. Implementations must tag
// returned entities with entity.SourceSupplemental and are expected to be
// safe for concurrent use.
type Provider interface {
	// Detect returns candidate entities with byte-offset spans into text.
	Detect(ctx context.Context, text string) ([]entity.Entity, error)
	// Name identifies the provider in reports and logs.
	Name() string
}

// Noop is the disabled provider: it finds nothing and never fails.
type Noop struct{}

func (Noop) Detect(context.Context, string) ([]entity.Entity, error) { return nil, nil }

func (Noop) Name() string { return "none" }
