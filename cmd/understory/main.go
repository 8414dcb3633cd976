package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDB     string
	flagFormat string
)

// errIssuesFound signals a successful run that found warning-or-worse
// diagnostics; main exits nonzero without printing it as an error.
var errIssuesFound = errors.New("issues found")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errIssuesFound) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Incremental, rule-based static analysis",
	Long:          "Understory parses source files with tree-sitter and runs Risor rule scripts over them, streaming diagnostics as analysis proceeds.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "understory.toml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "profile database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json|msgpack")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
}

func validateFormat(format string) error {
	switch format {
	case "text", "json", "msgpack":
		return nil
	default:
		return fmt.Errorf("invalid format %q (expected text, json, or msgpack)", format)
	}
}
