package chunk_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/chunk"
)

var _ = Describe("EstimateTokens", func() {
	It("charges one token per four characters, rounding up", func() {
		Expect(chunk.EstimateTokens("")).To(Equal(0))
		Expect(chunk.EstimateTokens("abc")).To(Equal(1))
		Expect(chunk.EstimateTokens("abcd")).To(Equal(1))
		Expect(chunk.EstimateTokens("abcde")).To(Equal(2))
	})

	It("counts runes rather than bytes", func() {
		Expect(chunk.EstimateTokens("éééé")).To(Equal(1))
	})
})

var _ = Describe("Window", func() {
	It("returns no windows for no sentences", func() {
		Expect(chunk.Window(nil, 10, 1)).To(BeEmpty())
		Expect(chunk.Window([]string{}, 10, 1)).To(BeEmpty())
	})

	It("packs sentences into a single window when they fit", func() {
		Expect(chunk.Window([]string{"One.", "Two.", "Three."}, 100, 2)).To(Equal([]string{
			"One. Two. Three.",
		}))
	})

	It("charges the joining space to the budget", func() {
		windows := chunk.Window([]string{"aaaa", "bbbb", "cccc"}, 3, 0)
		Expect(windows).To(Equal([]string{"aaaa bbbb", "cccc"}))
	})

	It("repeats overlapping sentences at the start of the next window", func() {
		windows := chunk.Window([]string{"aaaa", "bbbb", "cccc", "dddd"}, 3, 1)
		Expect(windows).To(Equal([]string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}))
	})

	It("always makes progress when the overlap covers the whole window", func() {
		windows := chunk.Window([]string{"aaaa", "bbbb", "cccc"}, 3, 10)
		Expect(windows).To(Equal([]string{"aaaa bbbb", "bbbb cccc"}))
	})

	It("emits an oversized sentence as its own window", func() {
		long := strings.Repeat("x", 40)
		windows := chunk.Window([]string{"ab", long, "cd"}, 5, 1)
		Expect(windows).To(Equal([]string{"ab", long, "cd"}))
	})

	It("keeps every window within the token budget", func() {
		var sentences []string
		for i := 0; i < 40; i++ {
			sentences = append(sentences, strings.Repeat("w", 5+(i*7)%31)+".")
		}

		for _, w := range chunk.Window(sentences, 24, 2) {
			Expect(chunk.EstimateTokens(w)).To(BeNumerically("<=", 24))
		}
	})

	It("produces eleven overlapping windows for twelve long sentences", func() {
		sentences := make([]string, 12)
		for i := range sentences {
			prefix := fmt.Sprintf("s%02d ", i)
			sentences[i] = prefix + strings.Repeat("z", 199-len(prefix)) + "."
			Expect(sentences[i]).To(HaveLen(200))
		}

		windows := chunk.Window(sentences, 120, 1)
		Expect(windows).To(HaveLen(11))
		for k, w := range windows {
			Expect(w).To(Equal(sentences[k] + " " + sentences[k+1]))
		}
	})

	It("is deterministic over segmented text", func() {
		seg := chunk.NewSegmenter()
		text := strings.Repeat("Dr. Smith arrived at 10 a.m. The visit went well. Everyone left happy! ", 20)

		first := chunk.Window(seg.Segment(text), 40, 2)
		second := chunk.Window(seg.Segment(text), 40, 2)
		Expect(first).NotTo(BeEmpty())
		Expect(second).To(Equal(first))
	})
})
