package langdetect

import "testing"

func TestDetect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "ok", want: ""},
		{input: "Wo ho te sɛn?", want: "tw"},
		{input: "Meɖe kuku, na tsi nam", want: "ee"},
		{input: "The leaves have brown spots and the stems are wilting", want: "en"},
	}
	for _, tc := range cases {
		if got := Detect(tc.input); got != tc.want {
			t.Fatalf("Detect(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDetectIgnoresUnsupportedLanguages(t *testing.T) {
	t.Parallel()

	if got := Detect("Les feuilles ont des taches brunes et les tiges flétrissent"); got != "" {
		t.Fatalf("expected unsupported language to yield empty code, got %q", got)
	}
}
