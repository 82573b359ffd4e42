package chunk

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTokensPerWindow is the default token budget for a single window.
	DefaultTokensPerWindow = 500

	// DefaultSentenceOverlap is the default number of sentences repeated at the
	// start of each window after the first.
	DefaultSentenceOverlap = 2

	tokensPerChar = 0.25
)

// EstimateTokens approximates the number of tokens in s using the
// 4-characters-per-token heuristic.
func EstimateTokens(s string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(s)) * tokensPerChar))
}

// Window groups sentences into windows whose estimated token count stays
// within maxTokensPerWindow. After a window closes, the next one starts
// sentenceOverlap sentences earlier so consecutive windows share context.
// A sentence that alone exceeds the budget is emitted as its own window.
//
// Sentences are joined with a single space and the separator is charged to
// the budget, so EstimateTokens of every emitted window is bounded by the
// budget unless the window is a single oversized sentence.
func Window(sentences []string, maxTokensPerWindow, sentenceOverlap int) []string {
	if maxTokensPerWindow < 1 {
		maxTokensPerWindow = 1
	}
	if sentenceOverlap < 0 {
		sentenceOverlap = 0
	}

	windows := []string{}

	var (
		b       strings.Builder
		tokens  int
		start   int
		members int
	)

	flush := func() {
		windows = append(windows, b.String())
		b.Reset()
		tokens = 0
		members = 0
	}

	i := 0
	for i < len(sentences) {
		sentence := sentences[i]
		if sentence == "" {
			i++
			continue
		}

		cost := EstimateTokens(sentence)
		if members > 0 {
			cost = EstimateTokens(" " + sentence)
		}

		if members > 0 && tokens+cost > maxTokensPerWindow {
			flush()

			// Rewind for overlap, but always move past the start of the
			// window that was just emitted.
			next := i - sentenceOverlap
			if next <= start {
				next = start + 1
			}
			if EstimateTokens(sentence) > maxTokensPerWindow {
				next = i
			}
			i = next
			start = i
			continue
		}

		if members > 0 {
			b.WriteByte(' ')
		} else {
			start = i
		}
		b.WriteString(sentence)
		tokens += cost
		members++
		i++

		if members == 1 && tokens > maxTokensPerWindow {
			flush()
			start = i
		}
	}

	if members > 0 {
		flush()
	}

	return windows
}
