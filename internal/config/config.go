// Package config holds operator-level configuration for a pseudo
// installation: data directory, reference data CSV paths, model bundle
// location, detection tuning, and server settings. Values are set via env
// vars (PSEUDO_*) or a config file (pseudo.config.yaml); request payloads
// never carry configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the PSEUDO_ prefix
// (e.g. "audit_keep" -> PSEUDO_AUDIT_KEEP) and to a YAML field in
// pseudo.config.yaml.
const (
	KeyDataDir         = "data_dir"
	KeyPort            = "port"
	KeyAPIKey          = "api_key"
	KeyNameCSV         = "name_csv"
	KeyAddressCSV      = "address_csv"
	KeyWatchCSV        = "watch_csv"
	KeyPatternFile     = "pattern_file"
	KeyMinScore        = "min_score"
	KeyAddressWindow   = "address_window"
	KeyAddressKeywords = "address_keywords"
	KeyNERBundleDir    = "ner_bundle_dir"
	KeyNERSeqLen       = "ner_seq_len"
	KeyNERMinScore     = "ner_min_score"
	KeyAuditKeep       = "audit_keep"
	KeyAuditPruneCron  = "audit_prune_cron"
	KeyRateLimitRPS    = "rate_limit_rps"
	KeyRateLimitBurst  = "rate_limit_burst"
	KeyCORSOrigins     = "cors_origins"
)

const (
	DefaultPort           = 8000
	DefaultAuditKeep      = 50
	DefaultAuditPruneCron = "*/10 * * * *"
	DefaultNERSeqLen      = 256
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20
)

// Config is the resolved operator configuration for a pseudo process.
type Config struct {
	DataDir         string   // Base directory for all state (~/.pseudo)
	Port            int      // HTTP listen port
	APIKey          string   // Optional API key; empty disables auth
	NameCSV         string   // Path to the Korean names CSV, optional
	AddressCSV      string   // Path to the Korean addresses CSV, optional
	WatchCSV        bool     // Reload reference data when the CSVs change
	PatternFile     string   // Extra recognizer YAML merged over the defaults
	MinScore        float64  // Minimum regex-match confidence, 0 keeps the default
	AddressWindow   int      // Context window for bare province mentions
	AddressKeywords []string // Context keywords for bare province mentions
	NERBundleDir    string   // Supplemental model bundle dir; empty disables NER
	NERSeqLen       int      // Model sequence length
	NERMinScore     float64  // Minimum supplemental span confidence
	AuditKeep       int      // Records retained by the audit janitor
	AuditPruneCron  string   // Cron expression for the audit janitor
	RateLimitRPS    float64  // Per-caller request rate
	RateLimitBurst  int      // Per-caller burst size
	CORSOrigins     []string // Allowed CORS origins; empty allows any
}

// AuditDBPath returns the full path to the audit SQLite database.
func (c *Config) AuditDBPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

func init() {
	viper.SetEnvPrefix("PSEUDO")
	viper.AutomaticEnv()
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyAuditKeep, DefaultAuditKeep)
	viper.SetDefault(KeyAuditPruneCron, DefaultAuditPruneCron)
	viper.SetDefault(KeyNERSeqLen, DefaultNERSeqLen)
	viper.SetDefault(KeyRateLimitRPS, DefaultRateLimitRPS)
	viper.SetDefault(KeyRateLimitBurst, DefaultRateLimitBurst)
	viper.SetDefault(KeyWatchCSV, true)
}

// Load reads configuration from Viper (which merges env vars, config file,
// and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:         resolveDataDir(),
		Port:            viper.GetInt(KeyPort),
		APIKey:          viper.GetString(KeyAPIKey),
		NameCSV:         viper.GetString(KeyNameCSV),
		AddressCSV:      viper.GetString(KeyAddressCSV),
		WatchCSV:        viper.GetBool(KeyWatchCSV),
		PatternFile:     viper.GetString(KeyPatternFile),
		MinScore:        viper.GetFloat64(KeyMinScore),
		AddressWindow:   viper.GetInt(KeyAddressWindow),
		AddressKeywords: splitList(viper.GetString(KeyAddressKeywords)),
		NERBundleDir:    viper.GetString(KeyNERBundleDir),
		NERSeqLen:       viper.GetInt(KeyNERSeqLen),
		NERMinScore:     viper.GetFloat64(KeyNERMinScore),
		AuditKeep:       viper.GetInt(KeyAuditKeep),
		AuditPruneCron:  viper.GetString(KeyAuditPruneCron),
		RateLimitRPS:    viper.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst:  viper.GetInt(KeyRateLimitBurst),
		CORSOrigins:     splitList(viper.GetString(KeyCORSOrigins)),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pseudo"
	}
	return filepath.Join(home, ".pseudo")
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in [1,65535], got %d", c.Port)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score must be in [0,1], got %g", c.MinScore)
	}
	if c.NERMinScore < 0 || c.NERMinScore > 1 {
		return fmt.Errorf("ner_min_score must be in [0,1], got %g", c.NERMinScore)
	}
	if c.AuditKeep < 0 {
		return fmt.Errorf("audit_keep must not be negative, got %d", c.AuditKeep)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must not be negative, got %g", c.RateLimitRPS)
	}
	return nil
}
