package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"horse.fit/agrolingo/internal/language"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Orthography lingua has no model for. A single letter from these sets is a
// strong signal on its own.
var (
	eweLetters = "ɖƒʋɣ"
	twiLetters = "ɛɔ"
)

// Detect returns the language code of text, or "" when it cannot tell.
func Detect(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 3 {
		return ""
	}

	lower := strings.ToLower(sample)
	if strings.ContainsAny(lower, eweLetters) {
		return "ee"
	}
	if strings.ContainsAny(lower, twiLetters) {
		return "tw"
	}
	if letterCount < 6 {
		return ""
	}

	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := language.NormalizeCode(detected.IsoCode639_1().String())
	if !language.Supported(code) {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Yoruba, lingua.French, lingua.Swahili).
			WithMinimumRelativeDistance(0.1).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
