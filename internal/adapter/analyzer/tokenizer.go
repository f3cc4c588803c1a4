package analyzer

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalizer lowercases text, splits it into word and punctuation tokens,
// drops stopwords and rejoins the rest with single spaces.
// It is applied to every text before it is embedded, on both the write and read paths.
type Normalizer struct {
	language  string
	stopwords map[string]struct{}
}

// NewNormalizer creates a Normalizer for the given stopword language.
// "none" disables stopword removal.
func NewNormalizer(language string) (*Normalizer, error) {
	stops, ok := stopwordSets[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("unsupported normalizer language: %q", language)
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return &Normalizer{language: strings.ToLower(language), stopwords: m}, nil
}

// Language returns the stopword language.
func (n *Normalizer) Language() string {
	return n.language
}

// Normalize returns the normalized form of text.
func (n *Normalizer) Normalize(text string) string {
	tokens := Tokenize(strings.ToLower(text))
	kept := tokens[:0]
	for _, token := range tokens {
		if _, isStop := n.stopwords[token]; isStop {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

// Tokenize splits text on word boundaries. Punctuation becomes its own token;
// hyphens, dots and apostrophes between word characters stay inside the word,
// so "e-mail" and "www.example.com" survive as single tokens.
func Tokenize(text string) []string {
	runes := []rune(text)
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i, r := range runes {
		switch {
		case isWordRune(r):
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case isConnector(r) && current.Len() > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			current.WriteRune(r)
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

func isConnector(r rune) bool {
	switch r {
	case '-', '.', '\'', '’':
		return true
	}
	return false
}
