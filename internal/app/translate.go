package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"horse.fit/agrolingo/internal/cli"
	"horse.fit/agrolingo/internal/language"
	"horse.fit/agrolingo/internal/translation"
)

const maxInputLine = 1 << 20

type translateFlags struct {
	envLoader *cli.EnvLoader
	timeout   *time.Duration
	to        *string
	from      *string
	profile   *string
	provider  *string
	format    *string
}

func addTranslateFlags(fs *flag.FlagSet, withSource bool) translateFlags {
	flags := translateFlags{
		envLoader: cli.AddEnvFlag(fs, ".env", "Path to the .env file"),
		timeout:   fs.Duration("timeout", 2*time.Minute, "Command timeout"),
		to:        fs.String("to", "", "Target language (for example: tw, ee, gaa)"),
		profile:   fs.String("profile", "", "Translation profile: instant, optimized, hybrid, enhanced"),
		provider:  fs.String("provider", "", "Remote provider name (ghananlp, local)"),
		format:    fs.String("format", outputFormatText, "Output format: text or json"),
	}
	if withSource {
		flags.from = fs.String("from", "", "Source language; \"auto\" detects it (default en)")
	}
	return flags
}

func (f translateFlags) source() string {
	if f.from == nil {
		return ""
	}
	return strings.TrimSpace(*f.from)
}

func (f translateFlags) validate() (string, string, error) {
	target := language.NormalizeCode(*f.to)
	if target == "" || !language.Supported(target) {
		return "", "", fmt.Errorf("--to is required and must be a supported language code")
	}
	if src := f.source(); src != "" && !strings.EqualFold(src, language.Auto) && !language.Supported(src) {
		return "", "", fmt.Errorf("--from must be a supported language code or auto")
	}
	format, err := parseOutputFormat(*f.format, outputFormatText, outputFormatText, outputFormatJSON)
	if err != nil {
		return "", "", err
	}
	return target, format, nil
}

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addTranslateFlags(fs, true)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "translate requires the text to translate")
		printTranslateUsage()
		return 2
	}
	target, format, err := flags.validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flags.timeout)
	defer cancel()

	rt, err := loadRuntime(ctx, flags.envLoader, runtimeOptions{Profile: *flags.profile, Provider: *flags.provider})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	out := rt.service.Translate(ctx, translation.Request{
		Text:       text,
		SourceLang: flags.source(),
		TargetLang: target,
	})

	if format == outputFormatJSON {
		if err := printJSON(map[string]any{
			"text":        out.Text,
			"tier":        out.Tier,
			"target_lang": target,
			"duration_ms": float64(out.Duration) / float64(time.Millisecond),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Println(out.Text)
	return 0
}

func runBatch(args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addTranslateFlags(fs, true)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "batch requires one input file (use - for stdin)")
		printTranslateUsage()
		return 2
	}
	target, format, err := flags.validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	texts, err := readInputLines(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flags.timeout)
	defer cancel()

	rt, err := loadRuntime(ctx, flags.envLoader, runtimeOptions{Profile: *flags.profile, Provider: *flags.provider})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	items := rt.service.BatchTranslate(ctx, texts, target, flags.source())

	if format == outputFormatJSON {
		if err := printJSON(map[string]any{"items": items, "target_lang": target}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}
	for _, item := range items {
		fmt.Println(item)
	}
	return 0
}

func runDiagnose(args []string) int {
	fs := flag.NewFlagSet("diagnose", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addTranslateFlags(fs, false)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "diagnose requires one result JSON file (use - for stdin)")
		printTranslateUsage()
		return 2
	}
	target, _, err := flags.validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	result, err := readDiagnosisResult(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read diagnosis result: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flags.timeout)
	defer cancel()

	rt, err := loadRuntime(ctx, flags.envLoader, runtimeOptions{Profile: *flags.profile, Provider: *flags.provider})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	if err := printJSON(rt.service.TranslateDiagnosisResult(ctx, result, target)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}

func openInput(path string) (io.ReadCloser, error) {
	if strings.TrimSpace(path) == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// readInputLines returns the non-blank lines of path, in order.
func readInputLines(path string) ([]string, error) {
	input, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	return readLines(input)
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("input contains no text")
	}
	return lines, nil
}

func readDiagnosisResult(path string) (translation.DiagnosisResult, error) {
	input, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	var result translation.DiagnosisResult
	if err := json.NewDecoder(input).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("result must be a JSON object")
	}
	return result, nil
}

func printTranslateUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  agrolingo translate --to <lang> [--from en|auto] [--profile hybrid] [--format text|json] <text>")
	fmt.Fprintln(os.Stderr, "  agrolingo batch --to <lang> [--from en|auto] [--profile hybrid] [--format text|json] <file|->")
	fmt.Fprintln(os.Stderr, "  agrolingo diagnose --to <lang> [--profile hybrid] <result.json|->")
}
