package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Janitor prunes the log on a cron schedule so the table stays at the
// retention cap between requests.
type Janitor struct {
	cron  *cron.Cron
	store *Store
	keep  int
}

// NewJanitor creates a janitor for the given store. Cron expressions use
// the standard 5-field format: minute hour day-of-month month day-of-week.
func NewJanitor(store *Store, keep int) *Janitor {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Janitor{
		cron:  cron.New(),
		store: store,
		keep:  keep,
	}
}

// Register adds a prune entry for the given cron expression.
func (j *Janitor) Register(spec string) error {
	_, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := j.store.Prune(ctx, j.keep)
		if err != nil {
			log.Error().Err(err).Msg("audit_prune_failed")
			return
		}
		if removed > 0 {
			log.Info().Int64("removed", removed).Int("keep", j.keep).Msg("audit_prune_completed")
		}
	})
	if err != nil {
		return fmt.Errorf("registering prune cron %q: %w", spec, err)
	}
	return nil
}

// Start begins executing registered prune jobs.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the janitor and waits for a running prune to complete.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
