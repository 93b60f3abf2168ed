package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/AenganZ/pseudo/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pseudo configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, span := tracer.Start(cmd.Context(), "config.show")
		defer span.End()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// The API key stays out of the dump.
		view := map[string]interface{}{
			"data_dir":         cfg.DataDir,
			"port":             cfg.Port,
			"api_key_set":      cfg.APIKey != "",
			"name_csv":         cfg.NameCSV,
			"address_csv":      cfg.AddressCSV,
			"watch_csv":        cfg.WatchCSV,
			"pattern_file":     cfg.PatternFile,
			"min_score":        cfg.MinScore,
			"address_window":   cfg.AddressWindow,
			"address_keywords": cfg.AddressKeywords,
			"ner_bundle_dir":   cfg.NERBundleDir,
			"ner_seq_len":      cfg.NERSeqLen,
			"ner_min_score":    cfg.NERMinScore,
			"audit_keep":       cfg.AuditKeep,
			"audit_prune_cron": cfg.AuditPruneCron,
			"rate_limit_rps":   cfg.RateLimitRPS,
			"rate_limit_burst": cfg.RateLimitBurst,
			"cors_origins":     cfg.CORSOrigins,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
