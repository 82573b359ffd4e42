// Package chunk splits raw document text into sentences and groups those
// sentences into token-budgeted windows for embedding.
package chunk

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// defaultStrict are abbreviations that never end a sentence.
var defaultStrict = []string{
	"vol", "jr", "dr", "tex", "prof", "rev", "revd", "hon", "v.s", "ie",
	"eg", "et al", "st", "ph.d", "capt", "mr", "mrs", "ms", "jan", "feb",
	"mar", "apr", "jun", "jul", "aug", "sept", "nov", "dec", "sun", "mon",
	"tue", "thur", "fri", "sat",
}

// defaultTerminal are abbreviations that may also close a sentence when the
// following word is capitalized ("... at 10 a.m. The visit ...").
var defaultTerminal = []string{
	"a.m", "p.m", "etc", "inc", "co", "e.o.d",
}

// Segmenter splits text into sentences. It is aware of abbreviations that
// contain sentence-terminating punctuation. The zero value is not usable,
// use NewSegmenter.
type Segmenter struct {
	mu       sync.RWMutex
	strict   map[string]struct{}
	terminal map[string]struct{}
}

// NewSegmenter creates a Segmenter with the built-in abbreviation set plus any
// extra abbreviations provided.
func NewSegmenter(extra ...string) *Segmenter {
	s := &Segmenter{
		strict:   make(map[string]struct{}, len(defaultStrict)+len(extra)),
		terminal: make(map[string]struct{}, len(defaultTerminal)),
	}
	for _, a := range defaultStrict {
		s.strict[a] = struct{}{}
	}
	for _, a := range defaultTerminal {
		s.terminal[a] = struct{}{}
	}
	for _, a := range extra {
		s.AddAbbreviation(a)
	}
	return s
}

// AddAbbreviation registers an abbreviation that never ends a sentence.
// Matching is case-insensitive; surrounding whitespace and trailing periods
// are ignored.
func (s *Segmenter) AddAbbreviation(abbr string) {
	key := normalizeAbbreviation(abbr)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.terminal, key)
	s.strict[key] = struct{}{}
}

// HasAbbreviation reports whether abbr is a known abbreviation.
func (s *Segmenter) HasAbbreviation(abbr string) bool {
	key := normalizeAbbreviation(abbr)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, strict := s.strict[key]
	_, terminal := s.terminal[key]
	return strict || terminal
}

// Segment splits text into sentences in a single pass. Each sentence is
// trimmed and keeps its trailing punctuation. Empty input yields no sentences,
// and input without terminal punctuation yields the whole trimmed text.
func (s *Segmenter) Segment(text string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sentences := []string{}
	start := 0

	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i + utf8.RuneLen(r)
		next, _ := utf8.DecodeRuneInString(text[end:])
		atEnd := end >= len(text)
		if !atEnd && !isBoundaryFollower(next) {
			continue
		}

		if s.suppresses(text[start:end], text[end:]) {
			continue
		}

		if sentence := strings.TrimSpace(text[start:end]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = end
	}

	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

// suppresses reports whether the punctuation closing candidate is part of an
// abbreviation and therefore not a sentence boundary. rest is the text that
// follows the punctuation.
func (s *Segmenter) suppresses(candidate, rest string) bool {
	fields := strings.Fields(candidate)
	if len(fields) == 0 {
		return false
	}

	word := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], "\"'“‘([{"))
	keys := []string{word, trimLastRune(word)}
	if len(fields) > 1 {
		phrase := strings.ToLower(fields[len(fields)-2]) + " " + word
		keys = append(keys, phrase, trimLastRune(phrase))
	}

	for _, k := range keys {
		k = strings.TrimRight(k, ".")
		if k == "" {
			continue
		}
		if _, ok := s.terminal[k]; ok {
			return !startsCapitalized(rest)
		}
		if _, ok := s.strict[k]; ok {
			return true
		}
	}

	return isAcronym(word)
}

// isAcronym treats tokens such as "a.s.a.p." or "u.s" as abbreviations: the
// token has an internal period and at least one period-delimited segment of
// at most two characters.
func isAcronym(word string) bool {
	word = strings.TrimRight(word, ".!?")
	parts := strings.Split(word, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) <= 2 {
			return true
		}
	}
	return false
}

func isBoundaryFollower(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '"', '“', '”', '[', '(', '{':
		return true
	}
	return false
}

func startsCapitalized(rest string) bool {
	rest = strings.TrimLeftFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || isBoundaryFollower(r)
	})
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r)
}

func trimLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

func normalizeAbbreviation(abbr string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(abbr)), ".")
}
