package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AenganZ/pseudo/internal/config"
)

var (
	detectMaskOnly bool
	detectRestore  string
)

var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Pseudonymize text from an argument or stdin",
	Long: `Runs one pseudonymization pass and prints the result as JSON to
stdout. With --mask-only, prints just the masked text. With --restore,
reads a reverse map JSON file and restores the input instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectMaskOnly, "mask-only", false, "print only the masked text")
	detectCmd.Flags().StringVar(&detectRestore, "restore", "", "path to a reverse map JSON file; restores instead of masking")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "detect")
	defer span.End()

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	eng, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer cleanup()

	if detectRestore != "" {
		data, err := os.ReadFile(detectRestore)
		if err != nil {
			return fmt.Errorf("reading reverse map: %w", err)
		}
		var reverse map[string]string
		if err := json.Unmarshal(data, &reverse); err != nil {
			return fmt.Errorf("parsing reverse map: %w", err)
		}
		fmt.Println(eng.Restore(ctx, text, reverse))
		return nil
	}

	result := eng.Pseudonymize(ctx, text)
	if detectMaskOnly {
		fmt.Println(result.MaskedText)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
