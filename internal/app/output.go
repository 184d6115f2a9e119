package app

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
	outputFormatText  = "text"
)

// parseOutputFormat normalizes raw, falling back to defaultFormat, and checks it
// against allowed.
func parseOutputFormat(raw, defaultFormat string, allowed ...string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	if slices.Contains(allowed, format) {
		return format, nil
	}
	return "", fmt.Errorf("--format must be %s", strings.Join(allowed, " or "))
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}
