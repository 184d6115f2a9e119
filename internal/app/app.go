package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "serve":
		return runServe(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "batch":
		return runBatch(args[1:])
	case "diagnose":
		return runDiagnose(args[1:])
	case "languages":
		return runLanguages(args[1:])
	case "cache":
		return runCache(args[1:])
	case "probe":
		return runProbe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "agrolingo CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  agrolingo <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve      Start the translation API server")
	fmt.Fprintln(os.Stderr, "  translate  Translate one text")
	fmt.Fprintln(os.Stderr, "  batch      Translate a file of texts, one per line")
	fmt.Fprintln(os.Stderr, "  diagnose   Translate a disease-detection result JSON file")
	fmt.Fprintln(os.Stderr, "  languages  List supported languages")
	fmt.Fprintln(os.Stderr, "  cache      Inspect or clear the translation cache (stats, clear)")
	fmt.Fprintln(os.Stderr, "  probe      Check connectivity to the remote translation API")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"agrolingo <command> -h\" for command-specific flags.")
}
