package ghananlp

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DecodeKind tells a recognized translation apart from a body of unknown shape.
type DecodeKind int

const (
	DecodeUnrecognized DecodeKind = iota
	DecodeOK
)

// Decoded is the result of reading a translate response body.
type Decoded struct {
	Kind DecodeKind
	Text string
	Raw  []byte
}

var candidateFields = []string{
	"translation",
	"translatedText",
	"translated_text",
	"output",
	"result",
	"text",
	"out",
}

// Decode accepts a bare JSON string, an object carrying one of the known
// translation fields (directly or under "data"), or a plain-text body. HTML or
// XML bodies, such as gateway error pages, are unrecognized.
func Decode(body []byte) Decoded {
	trimmed := bytes.TrimSpace(body)
	unrecognized := Decoded{Kind: DecodeUnrecognized, Raw: body}
	if len(trimmed) == 0 {
		return unrecognized
	}

	if !json.Valid(trimmed) {
		if looksLikeMarkup(trimmed) {
			return unrecognized
		}
		return Decoded{Kind: DecodeOK, Text: string(trimmed), Raw: body}
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return unrecognized
	}
	if text, ok := extractText(value, true); ok {
		return Decoded{Kind: DecodeOK, Text: text, Raw: body}
	}
	return unrecognized
}

func extractText(value any, descend bool) (string, bool) {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		return text, text != ""
	case map[string]any:
		for _, field := range candidateFields {
			if raw, ok := v[field]; ok {
				if text, ok := raw.(string); ok && strings.TrimSpace(text) != "" {
					return strings.TrimSpace(text), true
				}
			}
		}
		if descend {
			if nested, ok := v["data"]; ok {
				return extractText(nested, false)
			}
		}
	}
	return "", false
}

func looksLikeMarkup(body []byte) bool {
	return body[0] == '<' && bytes.IndexByte(body, '>') > 0
}
