package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AenganZ/pseudo/internal/audit"
	"github.com/AenganZ/pseudo/internal/entity"
)

func TestRenderLogsList(t *testing.T) {
	records := []audit.Record{
		{
			ID:          "rec-1",
			Timestamp:   time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
			ContainsPII: true,
			ModelUsed:   "patterns-only",
			Items: []entity.WithReplacement{
				{Entity: entity.Entity{Kind: entity.KindName, Value: "김민준"}, Replacement: "김가명"},
			},
		},
		{
			ID:        "rec-2",
			Timestamp: time.Date(2026, 8, 1, 9, 31, 0, 0, time.UTC),
			ModelUsed: "patterns-only",
		},
	}

	var sb strings.Builder
	renderLogsList(&sb, records)
	out := sb.String()

	assert.Contains(t, out, "Log Records (showing 2):")
	assert.Contains(t, out, "✓ rec-1 | 2026-08-01 09:30:00 | patterns-only | 1 items")
	assert.Contains(t, out, "- rec-2 | 2026-08-01 09:31:00 | patterns-only | 0 items")
}
