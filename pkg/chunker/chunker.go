package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the chunk budget used when callers pass a non-positive size.
const DefaultMaxChunkSize = 1000

const sentenceSeparator = ". "

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// Sentences splits text on runs of sentence terminators and drops blank units.
func Sentences(text string) []string {
	parts := sentenceTerminators.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sentences = append(sentences, part)
	}
	return sentences
}

// Split groups the sentences of text into chunks of at most maxChunkSize runes.
// Boundaries always fall between sentences. A sentence that alone exceeds the
// budget is emitted as its own oversized chunk rather than being cut.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	var (
		chunks  []string
		buffer  strings.Builder
		bufLen  int
		pending bool
	)

	flush := func() {
		chunks = append(chunks, strings.TrimSpace(buffer.String()))
		buffer.Reset()
		bufLen = 0
		pending = false
	}

	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		// bufLen+n+1 is the trimmed length once this sentence and its terminator land.
		if pending && bufLen+n+1 > maxChunkSize {
			flush()
		}
		buffer.WriteString(sentence)
		buffer.WriteString(sentenceSeparator)
		bufLen += n + len(sentenceSeparator)
		pending = true
	}

	if pending {
		flush()
	}

	return chunks
}
