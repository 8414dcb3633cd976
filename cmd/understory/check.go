package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/config"
	"github.com/jward/understory/internal/profile"
	"github.com/jward/understory/internal/script"
	"github.com/jward/understory/internal/sitter"
)

var (
	flagRulesDir         string
	flagPriority         string
	flagIgnoreSuppressed bool
	flagRestricted       bool
	flagWorkers          int
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Run the rule set over source files",
	Long:  "Parses each file with tree-sitter and runs every applicable Risor rule over it. With --priority, that range is analyzed and reported first.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagRulesDir, "rules-dir", "", "rule scripts directory (default from config)")
	checkCmd.Flags().StringVar(&flagPriority, "priority", "", "byte range analyzed first, as start:end")
	checkCmd.Flags().BoolVar(&flagIgnoreSuppressed, "ignore-suppressed", true, "honor suppressions and noinspect markers")
	checkCmd.Flags().BoolVar(&flagRestricted, "restricted-indexing", false, "run only rules that are safe without full indexes")
	checkCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size override (0: from config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	logger := config.InitLogger(cfg.Log.Format, cfg.Log.Level)

	rulesDir := flagRulesDir
	if rulesDir == "" {
		rulesDir = cfg.RulesDir
	}
	rules, err := script.NewLoader(logger).LoadDir(rulesDir)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rule scripts in %s", rulesDir)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := registerRules(store, rules); err != nil {
		return err
	}
	prof, err := profile.Load(store)
	if err != nil {
		return err
	}

	priority, err := parsePriority(flagPriority)
	if err != nil {
		return err
	}

	workers := flagWorkers
	if workers == 0 {
		workers = int(cfg.Workers)
	}
	opts := []understory.Option{
		understory.WithWorkers(workers),
		understory.WithRestrictedIndexing(flagRestricted),
		understory.WithLogger(logger),
	}
	if cfg.QueueCapacity > 0 {
		opts = append(opts, understory.WithQueueCapacity(int(cfg.QueueCapacity)))
	}
	// With a priority range, findings inside it stream to stderr as they
	// are discovered; the full list still goes to stdout at the end.
	if flagPriority != "" {
		opts = append(opts, understory.WithSink(newStreamingSink(os.Stderr)))
	}
	pass := understory.NewPass(rules, prof, opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var out []CLIDiagnostic
	failing := false
	for _, path := range args {
		unit, err := sitter.ParseFile(ctx, path)
		if err != nil {
			return err
		}
		total := understory.NewSpan(0, unit.TextLen)
		diags, err := pass.Run(ctx, unit, total, priority, flagIgnoreSuppressed)
		if err != nil {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		understory.SortDiagnostics(diags)
		for _, d := range diags {
			out = append(out, toCLIDiagnostic(path, d))
			if d.Severity >= understory.SevWarning {
				failing = true
			}
		}
	}

	if err := writeDiagnostics(os.Stdout, flagFormat, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Checked %d file(s), %d finding(s) in %s\n",
		len(args), len(out), time.Since(start).Round(time.Millisecond))

	if failing {
		return errIssuesFound
	}
	return nil
}

// openStore opens (and migrates) the profile database, creating its
// directory if needed.
func openStore(cfg config.Config) (*profile.Store, error) {
	dbPath := flagDB
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	store, err := profile.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// registerRules makes every loaded rule known to the profile store without
// touching existing enabled/severity settings.
func registerRules(store *profile.Store, rules []understory.Rule) error {
	for _, r := range rules {
		meta := r.Meta()
		rec := profile.RuleRecord{
			ID:          meta.ID,
			DisplayName: meta.Name,
			Enabled:     true,
			Severity:    understory.SevWarning.String(),
		}
		if err := store.UpsertRule(rec); err != nil {
			return err
		}
	}
	return nil
}

// parsePriority parses a "start:end" byte range. Empty means no priority
// range: the returned span lies outside any total range, so nothing is
// prioritized.
func parsePriority(s string) (understory.Span, error) {
	if s == "" {
		return understory.Span{Start: -1, End: -1}, nil
	}
	startStr, endStr, found := strings.Cut(s, ":")
	if !found {
		return understory.Span{}, fmt.Errorf("invalid --priority %q (expected start:end)", s)
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return understory.Span{}, fmt.Errorf("invalid --priority start: %w", err)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return understory.Span{}, fmt.Errorf("invalid --priority end: %w", err)
	}
	if start < 0 || end < start {
		return understory.Span{}, fmt.Errorf("invalid --priority range %q", s)
	}
	return understory.NewSpan(start, end), nil
}
