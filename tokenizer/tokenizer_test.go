package tokenizer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCountTokensEmpty(t *testing.T) {
	if n := CountTokens(""); n != 0 {
		t.Fatalf("CountTokens(\"\") = %d, want 0", n)
	}
}

func TestCountTokensASCIIWords(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"hi", 1},           // 2 runes, one piece
		{"hello", 2},        // 5 runes, two pieces
		{"one two", 2},      // two short words
		{"don't", 3},        // don + ' + t
		{"x.y", 3},          // punctuation splits and counts
		{"supercalifragilistic", 5}, // 20 runes, five pieces
	}
	for _, c := range cases {
		if n := CountTokens(c.text); n != c.want {
			t.Fatalf("CountTokens(%q) = %d, want %d", c.text, n, c.want)
		}
	}
}

func TestCountTokensWideRunes(t *testing.T) {
	// Each CJK rune costs one token.
	if n := CountTokens("模型调用"); n != 4 {
		t.Fatalf("CountTokens = %d, want 4", n)
	}
	if n := CountTokens("调用 runtime"); n != 4 {
		t.Fatalf("CountTokens = %d, want 4", n)
	}
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("supercalifragilistic\n\nhello\n"), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}

	est, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Vocabulary words collapse to a single token.
	if n := est.CountTokens("supercalifragilistic"); n != 1 {
		t.Fatalf("vocab word = %d tokens, want 1", n)
	}
	if n := est.CountTokens("hello world"); n != 3 {
		t.Fatalf("CountTokens = %d, want 3", n)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default returned distinct estimators")
	}
}
