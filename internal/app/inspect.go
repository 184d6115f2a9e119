package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"horse.fit/agrolingo/internal/cli"
	"horse.fit/agrolingo/internal/translation"
)

func runLanguages(args []string) int {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable, outputFormatTable, outputFormatJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	rt, err := loadRuntime(context.Background(), envLoader, runtimeOptions{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	options := rt.service.SupportedLanguages()
	if outputFormat == outputFormatJSON {
		if err := printJSON(options); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(options))
	for _, option := range options {
		rows = append(rows, []string{option.Code, option.Name})
	}
	if err := writeTable([]string{"code", "name"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render languages: %v\n", err)
		return 1
	}
	return 0
}

func runCache(args []string) int {
	if len(args) == 0 {
		printCacheUsage()
		return 2
	}

	action := strings.ToLower(strings.TrimSpace(args[0]))
	switch action {
	case "stats", "clear":
	default:
		fmt.Fprintf(os.Stderr, "Unknown cache action: %s\n\n", args[0])
		printCacheUsage()
		return 2
	}

	fs := flag.NewFlagSet("cache "+action, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "cache %s does not accept positional arguments\n", action)
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable, outputFormatTable, outputFormatJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := loadRuntime(ctx, envLoader, runtimeOptions{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	if action == "clear" {
		entries := rt.service.Stats().CacheEntries
		if err := rt.service.ClearCache(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear cache failed: %v\n", err)
			return 1
		}
		fmt.Printf("cache clear backend=%s removed=%d\n", rt.cfg.CacheBackendName(), entries)
		return 0
	}

	stats := rt.service.Stats()
	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"backend": rt.cfg.CacheBackendName(),
			"stats":   stats,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeTable([]string{"metric", "value"}, cacheStatsRows(rt.cfg.CacheBackendName(), stats)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render cache stats: %v\n", err)
		return 1
	}
	return 0
}

func cacheStatsRows(backend string, stats translation.ServiceStats) [][]string {
	rows := [][]string{
		{"backend", backend},
		{"entries", fmt.Sprintf("%d", stats.CacheEntries)},
		{"templates", fmt.Sprintf("%d", stats.Templates)},
		{"phrases", fmt.Sprintf("%d", stats.Phrases)},
		{"labels", fmt.Sprintf("%d", stats.Labels)},
		{"provider", stats.Provider},
		{"remote_available", fmt.Sprintf("%t", stats.RemoteAvailable)},
	}

	tiers := make([]string, 0, len(stats.Tiers.Tiers))
	for tier := range stats.Tiers.Tiers {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		rows = append(rows, []string{"tier_" + tier, fmt.Sprintf("%d", stats.Tiers.Tiers[tier].Hits)})
	}
	return rows
}

func runProbe(args []string) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 15*time.Second, "Probe timeout")
	provider := fs.String("provider", "", "Remote provider name (ghananlp, local)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := loadRuntime(ctx, envLoader, runtimeOptions{Provider: *provider})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	started := time.Now()
	if err := rt.service.Probe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		return 1
	}
	fmt.Printf("probe provider=%s ok latency=%s\n", rt.service.Stats().Provider, time.Since(started).Round(time.Millisecond))
	return 0
}

func printCacheUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  agrolingo cache stats [--format table|json] [--env .env]")
	fmt.Fprintln(os.Stderr, "  agrolingo cache clear [--env .env]")
}
