package language

import "sort"

const (
	// English is the source language of all static content and the pivot for
	// pairs the remote API does not serve directly.
	English = "en"
	// Auto asks the service to detect the source language.
	Auto = "auto"
)

// Option is one entry of the language selector.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var names = map[string]string{
	"en":  "English",
	"tw":  "Twi",
	"gaa": "Ga",
	"ee":  "Ewe",
	"fat": "Fante",
	"dag": "Dagbani",
	"gur": "Gurene",
	"yo":  "Yoruba",
	"ki":  "Kikuyu",
	"luo": "Luo",
	"mer": "Kimeru",
	"kus": "Kusaal",
}

// Supported reports whether code is a language the service can produce.
func Supported(code string) bool {
	_, ok := names[NormalizeCode(code)]
	return ok
}

// Name returns the display name of code, or the code itself when unknown.
func Name(code string) string {
	normalized := NormalizeCode(code)
	if name, ok := names[normalized]; ok {
		return name
	}
	return normalized
}

// Options lists the supported languages, English first, the rest by name.
func Options() []Option {
	options := make([]Option, 0, len(names))
	for code, name := range names {
		if code == English {
			continue
		}
		options = append(options, Option{Code: code, Name: name})
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Name < options[j].Name
	})
	return append([]Option{{Code: English, Name: names[English]}}, options...)
}

// Pair is a source-target combination in the "src-tgt" form the remote API expects.
type Pair struct {
	Source string
	Target string
}

func (p Pair) String() string {
	return p.Source + "-" + p.Target
}

// PairSet is the set of directly translatable pairs.
type PairSet map[Pair]struct{}

// DefaultPairs returns every English<->X pair for the supported languages.
func DefaultPairs() PairSet {
	pairs := make(PairSet, 2*len(names))
	for code := range names {
		if code == English {
			continue
		}
		pairs[Pair{Source: English, Target: code}] = struct{}{}
		pairs[Pair{Source: code, Target: English}] = struct{}{}
	}
	return pairs
}

// Has reports whether p is directly supported.
func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Route returns the hops needed to translate src into tgt: one hop for a direct
// pair, two hops through pivot when both ends pair with it, nil otherwise.
func (s PairSet) Route(src, tgt, pivot string) []Pair {
	direct := Pair{Source: src, Target: tgt}
	if s.Has(direct) {
		return []Pair{direct}
	}
	if pivot == "" || src == pivot || tgt == pivot {
		return nil
	}
	first := Pair{Source: src, Target: pivot}
	second := Pair{Source: pivot, Target: tgt}
	if s.Has(first) && s.Has(second) {
		return []Pair{first, second}
	}
	return nil
}
