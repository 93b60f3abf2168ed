package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AenganZ/pseudo/internal/audit"
	"github.com/AenganZ/pseudo/internal/config"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query and prune the pseudonymization log",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent pseudonymization passes",
	RunE:  logsList,
}

var logsShowCmd = &cobra.Command{
	Use:   "show [log-id]",
	Short: "Show one log record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  logsShow,
}

var logsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune the log down to the retention cap",
	RunE:  logsPrune,
}

func init() {
	logsListCmd.Flags().IntVar(&logsLimit, "limit", 20, "Maximum records to show")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsShowCmd)
	logsCmd.AddCommand(logsPruneCmd)
	rootCmd.AddCommand(logsCmd)
}

func openAuditStore() (*audit.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := audit.NewStore(cfg.AuditDBPath())
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func logsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, _, err := openAuditStore()
	if err != nil {
		return fmt.Errorf("initializing audit store: %w", err)
	}
	defer store.Close()

	records, err := store.List(ctx, logsLimit)
	if err != nil {
		return fmt.Errorf("querying log: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No log records found.")
		return nil
	}
	renderLogsList(os.Stdout, records)
	return nil
}

func logsShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, _, err := openAuditStore()
	if err != nil {
		return fmt.Errorf("initializing audit store: %w", err)
	}
	defer store.Close()

	rec, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

func logsPrune(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, cfg, err := openAuditStore()
	if err != nil {
		return fmt.Errorf("initializing audit store: %w", err)
	}
	defer store.Close()

	removed, err := store.Prune(ctx, cfg.AuditKeep)
	if err != nil {
		return fmt.Errorf("pruning log: %w", err)
	}
	fmt.Printf("Removed %d records, kept the newest %d.\n", removed, cfg.AuditKeep)
	return nil
}

// renderLogsList writes one summary line per record to w.
func renderLogsList(w io.Writer, records []audit.Record) {
	fmt.Fprintf(w, "Log Records (showing %d):\n\n", len(records))
	for i := range records {
		rec := &records[i]
		mark := "-"
		if rec.ContainsPII {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s | %s | %s | %d items\n",
			mark,
			rec.ID,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.ModelUsed,
			len(rec.Items),
		)
	}
}
