package translation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTranslateBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	delays := map[string]time.Duration{
		"A": 150 * time.Millisecond,
		"B": 0,
		"C": 50 * time.Millisecond,
	}
	remote := &stubRemote{
		delay:     func(text string) time.Duration { return delays[text] },
		translate: func(text string) string { return text + "-tw" },
	}
	resolver, _ := newTestResolver(t, remote, Options{})

	got := resolver.TranslateBatch(context.Background(), []string{"A", "B", "C"}, "en", "tw")
	want := []string{"A-tw", "B-tw", "C-tw"}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %q want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTranslateBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{translate: func(text string) string { return text + "-tw" }}
	resolver, _ := newTestResolver(t, remote, Options{})

	got := resolver.TranslateBatch(context.Background(), []string{"Tomato", "", "How do I plant yams", "42"}, "en", "tw")
	want := []string{"Ntoosi", "", "How do I plant yams-tw", "42"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %q want %q", i, got[i], want[i])
		}
	}

	failing := &stubRemote{err: errors.New("down")}
	resolver, _ = newTestResolver(t, failing, Options{})
	got = resolver.TranslateBatch(context.Background(), []string{"Tomato", "How do I plant yams"}, "en", "tw")
	if got[0] != "Ntoosi" || got[1] != "How do I plant yams" {
		t.Fatalf("expected static hit and pass-through, got %v", got)
	}
}

func TestTranslateDiagnosis(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{translate: func(text string) string { return strings.ToUpper(text) }}
	resolver, _ := newTestResolver(t, remote, Options{})

	input := DiagnosisResult{
		"plant":      "Tomato",
		"disease":    "Tomato___Late_blight",
		"remedy":     "Spray a copper fungicide weekly",
		"confidence": 0.93,
		"image_id":   "abc123",
	}
	got := resolver.TranslateDiagnosis(context.Background(), input, "tw")

	if got["plant"] != "Ntoosi" {
		t.Fatalf("unexpected plant: %v", got["plant"])
	}
	if got["disease"] != "Ntoosi nhaban porɔ yadeɛ (late blight)" {
		t.Fatalf("unexpected disease: %v", got["disease"])
	}
	if got["remedy"] != "SPRAY A COPPER FUNGICIDE WEEKLY" {
		t.Fatalf("unexpected remedy: %v", got["remedy"])
	}
	if got["confidence"] != 0.93 || got["image_id"] != "abc123" {
		t.Fatalf("expected other fields to pass through, got %v", got)
	}
	if input["plant"] != "Tomato" {
		t.Fatalf("input must not be mutated")
	}
}

func TestTranslateDiagnosisSkipsNonStringFields(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	resolver, _ := newTestResolver(t, remote, Options{})

	input := DiagnosisResult{"plant": 7, "remedy": nil}
	got := resolver.TranslateDiagnosis(context.Background(), input, "tw")
	if got["plant"] != 7 || got["remedy"] != nil {
		t.Fatalf("expected non-string fields untouched, got %v", got)
	}
	if _, ok := got["disease"]; ok {
		t.Fatalf("absent fields must stay absent")
	}
	if remote.calls.Load() != 0 {
		t.Fatalf("expected no remote calls")
	}
	if resolver.TranslateDiagnosis(context.Background(), nil, "tw") != nil {
		t.Fatalf("expected nil result for nil input")
	}
}

func TestTranslateLabels(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{translate: func(text string) string { return "tw:" + text }}
	resolver, _ := newTestResolver(t, remote, Options{})

	got := resolver.TranslateLabels(context.Background(), map[string]string{
		"remedy_title": "Remedy",
		"plant_title":  "Plant",
		"share":        "Share with a neighbour",
	}, "twi")

	if got["remedy_title"] != "Aduro" || got["plant_title"] != "Afifideɛ" {
		t.Fatalf("expected static labels, got %v", got)
	}
	if got["share"] != "tw:Share with a neighbour" {
		t.Fatalf("expected resolver for unknown label, got %v", got)
	}
	if remote.calls.Load() != 1 {
		t.Fatalf("expected one remote call, got %d", remote.calls.Load())
	}

	english := resolver.TranslateLabels(context.Background(), map[string]string{"a": "Remedy"}, "en")
	if english["a"] != "Remedy" {
		t.Fatalf("expected English labels unchanged, got %v", english)
	}
}
