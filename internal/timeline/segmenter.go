package timeline

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidDuration marks a narration duration the segmenter cannot distribute.
var ErrInvalidDuration = errors.New("invalid narration duration")

// Chunk is one subtitle-display unit: a span of text bound to a time interval
// within the narration.
type Chunk struct {
	Text  string
	Start float64
	End   float64
}

// Duration returns the display time of the chunk in seconds.
func (c Chunk) Duration() float64 {
	return c.End - c.Start
}

const (
	// maxWordsPerChunk caps chunk length for on-screen readability.
	maxWordsPerChunk = 9
	// breakAfterWords is the earliest point at which sentence punctuation
	// closes a chunk.
	breakAfterWords = 4
)

// Segment splits script text into display chunks and distributes the narration
// duration across them proportionally to each chunk's word count. Chunks cover
// [0, narrationDuration] contiguously in order, and the final chunk ends at
// exactly narrationDuration.
func Segment(script string, narrationDuration float64) ([]Chunk, error) {
	if narrationDuration <= 0 {
		return nil, errors.Wrapf(ErrInvalidDuration, "%f seconds", narrationDuration)
	}

	words := strings.Fields(script)
	if len(words) == 0 {
		return nil, nil
	}

	groups := groupWords(words)

	chunks := make([]Chunk, 0, len(groups))
	total := float64(len(words))
	cursor := 0.0
	counted := 0
	for i, group := range groups {
		counted += len(group)
		end := narrationDuration * float64(counted) / total
		if i == len(groups)-1 {
			// Clamp instead of trusting accumulated float arithmetic.
			end = narrationDuration
		}
		chunks = append(chunks, Chunk{
			Text:  strings.Join(group, " "),
			Start: cursor,
			End:   end,
		})
		cursor = end
	}

	return chunks, nil
}

// groupWords packs words into chunks, preferring breaks at sentence
// punctuation once a chunk is readable on its own.
func groupWords(words []string) [][]string {
	var groups [][]string
	var current []string

	for _, word := range words {
		current = append(current, word)

		if len(current) >= maxWordsPerChunk {
			groups = append(groups, current)
			current = nil
		} else if len(current) >= breakAfterWords && endsSentence(word) {
			groups = append(groups, current)
			current = nil
		}
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") ||
		strings.HasSuffix(word, "!") ||
		strings.HasSuffix(word, "?") ||
		strings.HasSuffix(word, ",")
}
