package translation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

var longTextSentences = []string{
	"Tomato",
	"Signs of late blight on my tomato",
	"Remove the affected leaves and burn them far away from the field so the spores cannot spread to healthy plants",
	"Spray a copper fungicide in the early morning when there is little wind and repeat the treatment after rain",
	"Keep a written record of every spray so that you can show the extension officer what worked on your farm",
}

func longText() string {
	return strings.Join(longTextSentences, ". ") + "."
}

func TestSplitAndJoinSentences(t *testing.T) {
	t.Parallel()

	got := splitSentences("Water early.  Weed often!Harvest when ripe?? ")
	want := []string{"Water early", "Weed often", "Harvest when ripe"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected split: %q", got)
	}
	if joined := joinSentences([]string{"A.", "", "B", "C!"}); joined != "A. B. C." {
		t.Fatalf("unexpected join: %q", joined)
	}
	if joinSentences(nil) != "" {
		t.Fatalf("expected empty join")
	}
}

func TestResolveLongTextSendsOneJoinedRemoteCall(t *testing.T) {
	t.Parallel()

	text := longText()
	if len(text) <= DefaultLongTextThreshold {
		t.Fatalf("fixture must exceed the long-text threshold, got %d chars", len(text))
	}

	remote := &stubRemote{translate: strings.ToUpper}
	resolver, c := newTestResolver(t, remote, Options{})

	out := resolver.ResolveRequest(context.Background(), Request{Text: text, SourceLang: "en", TargetLang: "tw"})
	if out.Tier != TierRemote {
		t.Fatalf("expected remote tier, got %+v", out)
	}

	seen := remote.seenTexts()
	wantRemote := strings.Join(longTextSentences[2:], ". ")
	if len(seen) != 1 || seen[0] != wantRemote {
		t.Fatalf("expected one joined remote call %q, got %q", wantRemote, seen)
	}

	want := joinSentences([]string{
		"Ntoosi",
		"Signs of nhaban porɔ yadeɛ (late blight) on my ntoosi",
		strings.ToUpper(longTextSentences[2]),
		strings.ToUpper(longTextSentences[3]),
		strings.ToUpper(longTextSentences[4]),
	})
	if out.Text != want {
		t.Fatalf("unexpected reassembly:\n got %q\nwant %q", out.Text, want)
	}

	if cached, ok := c.Get("en", "tw", text); !ok || cached != want {
		t.Fatalf("expected whole long text to be cached")
	}
	if cached, ok := c.Get("en", "tw", longTextSentences[3]); !ok || cached != strings.ToUpper(longTextSentences[3]) {
		t.Fatalf("expected per-sentence cache entry, got %q ok=%t", cached, ok)
	}
}

func TestResolveLongTextReusesCachedSentences(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{translate: strings.ToUpper}
	resolver, c := newTestResolver(t, remote, Options{})
	for _, sentence := range longTextSentences[2:4] {
		c.Set("en", "tw", sentence, "cached")
	}

	out := resolver.ResolveRequest(context.Background(), Request{Text: longText(), SourceLang: "en", TargetLang: "tw"})
	seen := remote.seenTexts()
	if len(seen) != 1 || seen[0] != longTextSentences[4] {
		t.Fatalf("expected only the uncached sentence to be sent, got %q", seen)
	}
	if !strings.Contains(out.Text, "cached. cached. "+strings.ToUpper(longTextSentences[4])) {
		t.Fatalf("unexpected reassembly: %q", out.Text)
	}
}

func TestResolveLongTextMismatchedSentenceCount(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{translate: func(string) string { return "One merged sentence" }}
	resolver, _ := newTestResolver(t, remote, Options{})

	out := resolver.ResolveRequest(context.Background(), Request{Text: longText(), SourceLang: "en", TargetLang: "tw"})
	want := "Ntoosi. Signs of nhaban porɔ yadeɛ (late blight) on my ntoosi. One merged sentence."
	if out.Text != want {
		t.Fatalf("unexpected reassembly:\n got %q\nwant %q", out.Text, want)
	}

	// Pending sentences separated by a local one keep their place.
	split, c := newTestResolver(t, remote, Options{LongTextThreshold: 20})
	text := "Water the plants at dawn. Tomato. Check the roots for rot weekly."
	out = split.ResolveRequest(context.Background(), Request{Text: text, SourceLang: "en", TargetLang: "tw"})
	want = "Water the plants at dawn. Ntoosi. Check the roots for rot weekly."
	if out.Text != want {
		t.Fatalf("unexpected reassembly around a local sentence:\n got %q\nwant %q", out.Text, want)
	}
	if _, ok := c.Get("en", "tw", text); ok {
		t.Fatalf("unplaced remote result must not cache the whole text")
	}
}

func TestResolveLongTextRemoteFailureKeepsOriginalSentences(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{err: errors.New("down")}
	resolver, c := newTestResolver(t, remote, Options{})
	text := longText()

	out := resolver.ResolveRequest(context.Background(), Request{Text: text, SourceLang: "en", TargetLang: "tw"})
	if !strings.HasPrefix(out.Text, "Ntoosi. ") || !strings.Contains(out.Text, longTextSentences[4]) {
		t.Fatalf("expected local translations plus original sentences, got %q", out.Text)
	}
	if _, ok := c.Get("en", "tw", text); ok {
		t.Fatalf("partial long-text results must not be cached")
	}
}

func TestResolveLongTextInstantProfile(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	resolver, _ := newTestResolver(t, remote, Options{Profile: ProfileInstant, LongTextThreshold: 20})

	out := resolver.ResolveRequest(context.Background(), Request{Text: "Why are my leaves turning yellow. What should I do", SourceLang: "en", TargetLang: "tw"})
	if out.Tier != TierPassthrough || out.Text != "Why are my leaves turning yellow. What should I do" {
		t.Fatalf("expected untouched text, got %+v", out)
	}
	if remote.calls.Load() != 0 {
		t.Fatalf("instant profile must not call remote")
	}
}
