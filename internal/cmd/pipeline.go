package cmd

import (
	"github.com/rs/zerolog/log"

	"github.com/AenganZ/pseudo/internal/config"
	"github.com/AenganZ/pseudo/internal/detector"
	"github.com/AenganZ/pseudo/internal/engine"
	"github.com/AenganZ/pseudo/internal/ner"
	"github.com/AenganZ/pseudo/internal/pools"
	"github.com/AenganZ/pseudo/internal/refdata"
)

// buildPipeline assembles the detection pipeline from resolved config.
// The returned cleanup releases the CSV watcher and model session and is
// never nil.
func buildPipeline(cfg *config.Config) (*engine.Pseudonymizer, func(), error) {
	ref, err := refdata.NewStore(refdata.Options{
		NameCSV:    cfg.NameCSV,
		AddressCSV: cfg.AddressCSV,
	})
	if err != nil {
		return nil, nil, err
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.WatchCSV && (cfg.NameCSV != "" || cfg.AddressCSV != "") {
		stop, err := ref.Watch()
		if err != nil {
			log.Warn().Err(err).Msg("reference data watch unavailable")
		} else {
			cleanups = append(cleanups, stop)
		}
	}

	var detOpts []detector.Option
	if cfg.PatternFile != "" {
		detOpts = append(detOpts, detector.WithPatternFile(cfg.PatternFile))
	}
	if cfg.MinScore > 0 {
		detOpts = append(detOpts, detector.WithMinScore(cfg.MinScore))
	}
	if cfg.AddressWindow > 0 || len(cfg.AddressKeywords) > 0 {
		detOpts = append(detOpts, detector.WithAddressContext(cfg.AddressWindow, cfg.AddressKeywords))
	}
	det, err := detector.New(ref, detOpts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var provider ner.Provider = ner.Noop{}
	if cfg.NERBundleDir != "" {
		onnx, err := ner.LoadONNX(cfg.NERBundleDir, cfg.NERSeqLen, cfg.NERMinScore)
		if err != nil {
			log.Warn().Err(err).Str("bundle", cfg.NERBundleDir).Msg("supplemental recognizer unavailable, continuing with patterns only")
		} else {
			provider = onnx
			cleanups = append(cleanups, func() { _ = onnx.Close() })
		}
	}

	return engine.New(det, pools.NewManager(), provider), cleanup, nil
}
