// Package termstore holds the static agricultural vocabulary: whole-text
// templates for crop and disease names, phrase tables for in-text substitution,
// and UI labels. The store is immutable once loaded.
package termstore

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

//go:embed terms.json
var defaultTermsJSON []byte

// Template translates a whole text that matches Pattern.
type Template struct {
	ID           string
	Pattern      *regexp.Regexp
	Translations map[string]string
}

// Phrase is an English phrase with per-language replacements.
type Phrase struct {
	English      string
	Translations map[string]string
}

// Store is the immutable static vocabulary.
type Store struct {
	templates []Template
	phrases   []Phrase
	labels    map[string]map[string]string
	indexes   map[string]*phraseIndex
}

// phraseIndex is one alternation over every phrase that has a translation in a
// language, longest phrase first so that "late blight" wins over "blight".
type phraseIndex struct {
	pattern      *regexp.Regexp
	replacements map[string]string
}

type rawStore struct {
	Version   int `json:"version"`
	Templates []struct {
		ID           string            `json:"id"`
		Pattern      string            `json:"pattern"`
		Translations map[string]string `json:"translations"`
	} `json:"templates"`
	Phrases []struct {
		English      string            `json:"en"`
		Translations map[string]string `json:"translations"`
	} `json:"phrases"`
	Labels map[string]map[string]string `json:"labels"`
}

// LoadDefault parses the embedded vocabulary.
func LoadDefault() (*Store, error) {
	return Parse(defaultTermsJSON)
}

// LoadFile parses a vocabulary file; an empty path selects the embedded one.
func LoadFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return LoadDefault()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terms file: %w", err)
	}
	store, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return store, nil
}

// Parse validates raw against the terms schema and compiles its matchers.
func Parse(raw []byte) (*Store, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	var parsed rawStore
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal terms: %w", err)
	}

	store := &Store{
		templates: make([]Template, 0, len(parsed.Templates)),
		phrases:   make([]Phrase, 0, len(parsed.Phrases)),
		labels:    make(map[string]map[string]string, len(parsed.Labels)),
	}

	seen := make(map[string]struct{}, len(parsed.Templates))
	for i, tpl := range parsed.Templates {
		if _, dup := seen[tpl.ID]; dup {
			return nil, fmt.Errorf("templates[%d]: duplicate id %q", i, tpl.ID)
		}
		seen[tpl.ID] = struct{}{}

		pattern, err := regexp.Compile(`(?i)^\s*(?:` + tpl.Pattern + `)\s*$`)
		if err != nil {
			return nil, fmt.Errorf("templates[%d] %s: compile pattern: %w", i, tpl.ID, err)
		}
		store.templates = append(store.templates, Template{
			ID:           tpl.ID,
			Pattern:      pattern,
			Translations: tpl.Translations,
		})
	}

	for _, phrase := range parsed.Phrases {
		store.phrases = append(store.phrases, Phrase{
			English:      collapse(phrase.English),
			Translations: phrase.Translations,
		})
	}

	for label, translations := range parsed.Labels {
		store.labels[label] = translations
	}

	indexes, err := buildPhraseIndexes(store.phrases)
	if err != nil {
		return nil, err
	}
	store.indexes = indexes

	return store, nil
}

// MatchTemplate returns the translation of the first template matching the
// whole of text that has an entry for target. Capture groups may be referenced
// from the translation as $1, $2, ...
func (s *Store) MatchTemplate(text, target string) (string, string, bool) {
	if s == nil {
		return "", "", false
	}
	for _, tpl := range s.templates {
		translation, ok := tpl.Translations[target]
		if !ok {
			continue
		}
		match := tpl.Pattern.FindStringSubmatchIndex(text)
		if match == nil {
			continue
		}
		out := tpl.Pattern.ExpandString(nil, translation, text, match)
		return strings.TrimSpace(string(out)), tpl.ID, true
	}
	return "", "", false
}

// SubstitutePhrases replaces whole-word, case-insensitive occurrences of known
// phrases with their target translation. The boolean reports whether the text
// changed.
func (s *Store) SubstitutePhrases(text, target string) (string, bool) {
	if s == nil {
		return text, false
	}
	index, ok := s.indexes[target]
	if !ok {
		return text, false
	}
	out := index.pattern.ReplaceAllStringFunc(text, func(match string) string {
		if replacement, ok := index.replacements[collapse(strings.ToLower(match))]; ok {
			return replacement
		}
		return match
	})
	return out, out != text
}

// Label returns the static translation of a UI label.
func (s *Store) Label(label, target string) (string, bool) {
	if s == nil {
		return "", false
	}
	translations, ok := s.labels[strings.TrimSpace(label)]
	if !ok {
		return "", false
	}
	value, ok := translations[target]
	return value, ok
}

// Counts reports how many templates, phrases and labels are loaded.
func (s *Store) Counts() (templates, phrases, labels int) {
	if s == nil {
		return 0, 0, 0
	}
	return len(s.templates), len(s.phrases), len(s.labels)
}

func buildPhraseIndexes(phrases []Phrase) (map[string]*phraseIndex, error) {
	byLang := make(map[string][]Phrase)
	for _, phrase := range phrases {
		for lang := range phrase.Translations {
			byLang[lang] = append(byLang[lang], phrase)
		}
	}

	indexes := make(map[string]*phraseIndex, len(byLang))
	for lang, list := range byLang {
		sort.SliceStable(list, func(i, j int) bool {
			return len(list[i].English) > len(list[j].English)
		})

		alternatives := make([]string, 0, len(list))
		replacements := make(map[string]string, len(list))
		for _, phrase := range list {
			key := strings.ToLower(phrase.English)
			if _, dup := replacements[key]; dup {
				continue
			}
			replacements[key] = phrase.Translations[lang]

			words := strings.Fields(phrase.English)
			for i, word := range words {
				words[i] = regexp.QuoteMeta(word)
			}
			alternatives = append(alternatives, strings.Join(words, `\s+`))
		}

		pattern, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compile %s phrase index: %w", lang, err)
		}
		indexes[lang] = &phraseIndex{pattern: pattern, replacements: replacements}
	}
	return indexes, nil
}

func collapse(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
