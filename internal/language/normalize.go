package language

import "strings"

// aliases maps names and legacy codes seen from the UI to the codes used by the
// translation API.
var aliases = map[string]string{
	"english": "en",
	"twi":     "tw",
	"akan":    "tw",
	"ak":      "tw",
	"asante":  "tw",
	"ga":      "gaa",
	"ewe":     "ee",
	"fante":   "fat",
	"fanti":   "fat",
	"dagbani": "dag",
	"gurene":  "gur",
	"frafra":  "gur",
	"yoruba":  "yo",
	"kikuyu":  "ki",
	"gikuyu":  "ki",
	"dholuo":  "luo",
	"kimeru":  "mer",
	"kusaal":  "kus",
}

// NormalizeTag normalizes a language tag to lowercase and "-" separators.
// Returns an empty string when the value is blank or contains invalid characters.
func NormalizeTag(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	parts := make([]string, 0, 2)
	for _, part := range strings.Split(trimmed, "-") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !isAlphaLower(part) {
			return ""
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "-")
}

// NormalizeCode returns the canonical code for raw: the primary subtag of a tag
// ("en" from "en-GH") with names and aliases resolved ("Twi" => "tw").
func NormalizeCode(raw string) string {
	tag := NormalizeTag(raw)
	if tag == "" {
		return ""
	}
	if alias, ok := aliases[tag]; ok {
		return alias
	}
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		tag = tag[:dash]
	}
	if alias, ok := aliases[tag]; ok {
		return alias
	}
	return tag
}

func isAlphaLower(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
