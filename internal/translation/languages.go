package translation

import (
	"sort"

	"horse.fit/agrolingo/internal/language"
)

// LanguageOptions lists the languages a provider can produce, English first.
// A nil provider, or one that reports no languages, yields the full table.
func LanguageOptions(provider Provider) []language.Option {
	all := language.Options()
	if provider == nil {
		return all
	}

	supported := map[string]struct{}{}
	for _, code := range provider.SupportedLanguages() {
		if normalized := language.NormalizeCode(code); normalized != "" {
			supported[normalized] = struct{}{}
		}
	}
	if len(supported) == 0 {
		return all
	}

	options := make([]language.Option, 0, len(all))
	for _, option := range all {
		if _, ok := supported[option.Code]; ok || option.Code == language.English {
			options = append(options, option)
		}
	}
	return options
}

// supportedLanguageCodes returns every code in the language table, sorted.
func supportedLanguageCodes() []string {
	options := language.Options()
	codes := make([]string, 0, len(options))
	for _, option := range options {
		codes = append(codes, option.Code)
	}
	sort.Strings(codes)
	return codes
}
