// Package testutil provides shared fixtures for package tests: an
// embedded-defaults reference store, a ready pipeline, and a temp-dir
// audit store.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/AenganZ/pseudo/internal/audit"
	"github.com/AenganZ/pseudo/internal/detector"
	"github.com/AenganZ/pseudo/internal/engine"
	"github.com/AenganZ/pseudo/internal/pools"
	"github.com/AenganZ/pseudo/internal/refdata"
)

// NewRefStore creates a reference store backed only by the embedded
// Korean defaults.
func NewRefStore(t *testing.T) *refdata.Store {
	t.Helper()
	store, err := refdata.NewStore(refdata.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// NewDetector creates a detector over the embedded defaults.
func NewDetector(t *testing.T, opts ...detector.Option) *detector.Detector {
	t.Helper()
	det, err := detector.New(NewRefStore(t), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return det
}

// NewEngine creates a full pipeline with a fresh pool manager and no
// supplemental recognizer.
func NewEngine(t *testing.T) *engine.Pseudonymizer {
	t.Helper()
	return engine.New(NewDetector(t), pools.NewManager(), nil)
}

// NewAuditStore creates an audit store in a temp dir and registers
// t.Cleanup to close it.
func NewAuditStore(t *testing.T) *audit.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := audit.NewStore(filepath.Join(dir, "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
