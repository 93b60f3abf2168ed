// Package audit persists a bounded log of pseudonymization passes in
// SQLite. Records hold the original and masked text plus the detection
// summary; a cron janitor prunes the table down to the configured
// retention cap.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AenganZ/pseudo/internal/entity"
	pseudootel "github.com/AenganZ/pseudo/internal/otel"
)

var tracer = pseudootel.Tracer("github.com/AenganZ/pseudo/internal/audit")

// DefaultKeep is the number of recent records retained by Prune when no
// cap is configured.
const DefaultKeep = 50

// Record is one stored pseudonymization pass.
type Record struct {
	ID          string                   `json:"id"`
	Timestamp   time.Time                `json:"timestamp"`
	Caller      string                   `json:"caller,omitempty"`
	Original    string                   `json:"original"`
	Masked      string                   `json:"masked"`
	ContainsPII bool                     `json:"contains_pii"`
	ModelUsed   string                   `json:"model_used"`
	Items       []entity.WithReplacement `json:"items,omitempty"`
}

// Store persists records in SQLite. Safe for concurrent use via the
// database handle's pooling.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the log database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS prompt_log (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		caller TEXT NOT NULL,
		contains_pii INTEGER NOT NULL,
		record_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prompt_log_timestamp ON prompt_log(timestamp);
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores one record, assigning an ID and timestamp when unset.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	ctx, span := tracer.Start(ctx, "audit.append",
		trace.WithAttributes(attribute.Bool("pii.contains_pii", rec.ContainsPII)))
	defer span.End()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling audit record: %w", err)
	}

	query := `INSERT INTO prompt_log (id, timestamp, caller, contains_pii, record_json)
	          VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Timestamp, rec.Caller, boolToInt(rec.ContainsPII), string(recordJSON),
	); err != nil {
		return fmt.Errorf("storing audit record: %w", err)
	}
	return nil
}

// Get retrieves one record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx, span := tracer.Start(ctx, "audit.get",
		trace.WithAttributes(attribute.String("audit.id", id)))
	defer span.End()

	var recordJSON string
	err := s.db.QueryRowContext(ctx, `SELECT record_json FROM prompt_log WHERE id = ?`, id).Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("audit record %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying audit record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling audit record: %w", err)
	}
	return &rec, nil
}

// List returns the most recent records, newest first. A non-positive limit
// falls back to DefaultKeep.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "audit.list")
	defer span.End()

	if limit <= 0 {
		limit = DefaultKeep
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_json FROM prompt_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			continue
		}
		results = append(results, rec)
	}

	span.SetAttributes(attribute.Int("audit.count", len(results)))
	return results, nil
}

// Prune deletes all but the newest keep records and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	ctx, span := tracer.Start(ctx, "audit.prune",
		trace.WithAttributes(attribute.Int("audit.keep", keep)))
	defer span.End()

	if keep <= 0 {
		keep = DefaultKeep
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM prompt_log WHERE id NOT IN (
			SELECT id FROM prompt_log ORDER BY timestamp DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning audit records: %w", err)
	}

	removed, _ := res.RowsAffected()
	span.SetAttributes(attribute.Int64("audit.removed", removed))
	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
