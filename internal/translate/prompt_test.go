package translate

import "testing"

func TestNumberedBlock(t *testing.T) {
	got := numberedBlock([]string{"one", "two"})
	want := "1. one\n2. two\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseNumberedLines(t *testing.T) {
	raw := "1. first\n2. second\n3. third\n"
	got := parseNumberedLines(raw, 3)
	for i, want := range []string{"first", "second", "third"} {
		if got[i] == nil || *got[i] != want {
			t.Errorf("result %d = %v, want %q", i, got[i], want)
		}
	}
}

func TestParseNumberedLinesSkipsMissing(t *testing.T) {
	got := parseNumberedLines("1. first\n3. third\n", 3)
	if got[0] == nil || *got[0] != "first" {
		t.Errorf("result 0 = %v, want first", got[0])
	}
	if got[1] != nil {
		t.Error("result 1 should be nil when the model skips it")
	}
	if got[2] == nil || *got[2] != "third" {
		t.Errorf("result 2 = %v, want third", got[2])
	}
}

func TestParseNumberedLinesIgnoresJunk(t *testing.T) {
	raw := "Here are the translations:\n1. first\nnot numbered\n7. out of range\n0. zero\n"
	got := parseNumberedLines(raw, 2)
	if got[0] == nil || *got[0] != "first" {
		t.Errorf("result 0 = %v, want first", got[0])
	}
	if got[1] != nil {
		t.Error("result 1 should be nil")
	}
}

func TestParseNumberedLinesKeepsDotsInText(t *testing.T) {
	got := parseNumberedLines("1. Mr. Smith went home.\n", 1)
	if got[0] == nil || *got[0] != "Mr. Smith went home." {
		t.Errorf("got %v, want full sentence", got[0])
	}
}

func TestParseNumberedLinesTrimsWhitespace(t *testing.T) {
	got := parseNumberedLines("  1.  padded  \n", 1)
	if got[0] == nil || *got[0] != "padded" {
		t.Errorf("got %v, want padded", got[0])
	}
}

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"EN", "English"},
		{"ja", "Japanese"},
		{"xx", "xx"},
	}
	for _, tt := range tests {
		if got := languageName(tt.code); got != tt.want {
			t.Errorf("languageName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
