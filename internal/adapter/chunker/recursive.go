package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word, character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter splits text into chunks of at most chunkSize runes.
// It splits on the coarsest separator present, recursing into finer ones
// for pieces that are still too long, then merges neighbouring pieces back
// up to chunkSize while carrying up to chunkOverlap runes into the next chunk.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// Split returns the chunks of text in document order. Blank input yields no
// chunks; input that already fits is returned unchanged as a single chunk.
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := ""
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			separator = candidate
			finer = separators[i+1:]
			break
		}
	}

	var chunks []string
	var fitting []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if utf8.RuneCountInString(piece) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}

		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting)...)
			fitting = nil
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting)...)
	}

	return chunks
}

// merge packs pieces into chunks, keeping a tail of the previous chunk no
// longer than chunkOverlap at the start of the next one.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		size := utf8.RuneCountInString(piece)

		if total+size > s.chunkSize && len(current) > 0 {
			emit()
			previous := current
			for len(current) > 0 && (total > s.chunkOverlap || total+size > s.chunkSize) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
			// The last piece alone was longer than the overlap: carry a
			// word-aligned tail of it instead of nothing.
			if len(current) == 0 {
				if tail := s.tail(strings.Join(previous, ""), min(s.chunkOverlap, s.chunkSize-size)); tail != "" {
					current = []string{tail}
					total = utf8.RuneCountInString(tail)
				}
			}
		}

		current = append(current, piece)
		total += size
	}
	emit()

	return chunks
}

// tail returns at most limit runes from the end of text. Text with words is
// cut at a word boundary; text without whitespace is cut at a rune. It
// returns "" when no whole word fits or only whitespace would be carried.
func (s *RecursiveSplitter) tail(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) > limit {
		cut := len(runes) - limit
		t := string(runes[cut:])
		if !unicode.IsSpace(runes[cut-1]) {
			i := strings.IndexFunc(t, unicode.IsSpace)
			switch {
			case i >= 0 && strings.TrimSpace(t[i:]) != "":
				t = strings.TrimLeftFunc(t[i:], unicode.IsSpace)
			case strings.IndexFunc(text, unicode.IsSpace) >= 0:
				// Only part of a word would fit.
				return ""
			}
		}
		text = t
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return text
}

// splitKeepSeparator splits text after each separator so that joining the
// pieces restores the input. An empty separator splits into runes.
func splitKeepSeparator(text, separator string) []string {
	if separator == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.SplitAfter(text, separator)
	pieces := parts[:0]
	for _, part := range parts {
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}
