// Package tokenizer provides offline, approximate token counting for
// backends whose vendor API exposes no token-counting endpoint.
//
// The estimate is language-agnostic word-piece counting: it lands in the
// same ballpark as real vocabularies without shipping one. Exactness is
// neither guaranteed nor required.
package tokenizer

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"unicode"
)

// asciiPieceLen approximates the average byte length of a word piece in
// GPT-style vocabularies.
const asciiPieceLen = 4

// Estimator counts tokens against an optional vocabulary of common words
// that encode as a single token.
type Estimator struct {
	vocab map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultEst  *Estimator
)

// Default returns the shared vocabulary-less estimator, constructed once.
func Default() *Estimator {
	defaultOnce.Do(func() {
		defaultEst = &Estimator{}
	})
	return defaultEst
}

// Load builds an estimator from a newline-separated vocabulary file. Words
// in the vocabulary count as one token regardless of length.
func Load(path string) (*Estimator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		word := strings.TrimSpace(sc.Text())
		if word != "" {
			vocab[word] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &Estimator{vocab: vocab}, nil
}

// CountTokens estimates the token count of text using the default estimator.
func CountTokens(text string) int {
	return Default().CountTokens(text)
}

// CountTokens estimates how many tokens text encodes to. Words found in the
// vocabulary cost one token; other ASCII words cost one token per
// asciiPieceLen runes; wide (e.g. CJK) runes and punctuation cost one each.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	tokens := 0
	var word []rune

	flush := func() {
		if len(word) == 0 {
			return
		}
		if _, ok := e.vocab[string(word)]; ok {
			tokens++
		} else {
			tokens += (len(word) + asciiPieceLen - 1) / asciiPieceLen
		}
		word = word[:0]
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r > unicode.MaxLatin1:
			// Non-Latin scripts rarely merge into multi-rune pieces.
			flush()
			tokens++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		default:
			flush()
			tokens++
		}
	}
	flush()

	return tokens
}
