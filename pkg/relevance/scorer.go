package relevance

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Scorer ranks document chunks against a question with a lexical heuristic.
// It holds no per-request state and is safe for concurrent use.
type Scorer struct {
	weights        Weights
	topK           int
	fallbackSize   int
	minTokenLength int
	symbols        []string
	hardware       []string
	concepts       [][]string
}

func NewScorer(cfg Config) *Scorer {
	concepts := make([][]string, 0, len(cfg.Concepts))
	for _, concept := range cfg.Concepts {
		concepts = append(concepts, lowerAll(concept.Variants))
	}

	return &Scorer{
		weights:        cfg.Weights,
		topK:           cfg.TopK,
		fallbackSize:   cfg.FallbackSize,
		minTokenLength: cfg.MinTokenLength,
		symbols:        append([]string(nil), cfg.Symbols...),
		hardware:       lowerAll(cfg.Hardware),
		concepts:       concepts,
	}
}

// Score returns the relevance of a single chunk to question.
func (s *Scorer) Score(chunk, question string) int {
	return s.score(chunk, s.questionTokens(question))
}

// Rank returns at most TopK chunks with a positive score, best first. Chunks
// with equal scores keep their document order. An empty result means nothing
// matched and the caller should fall back to Fallback.
func (s *Scorer) Rank(chunks []string, question string) []string {
	tokens := s.questionTokens(question)

	type scored struct {
		text  string
		score int
	}

	candidates := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		if score := s.score(chunk, tokens); score > 0 {
			candidates = append(candidates, scored{text: chunk, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > s.topK {
		candidates = candidates[:s.topK]
	}

	ranked := make([]string, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.text
	}
	return ranked
}

// Fallback returns the leading chunks in document order.
func (s *Scorer) Fallback(chunks []string) []string {
	if len(chunks) > s.fallbackSize {
		return chunks[:s.fallbackSize]
	}
	return chunks
}

func (s *Scorer) score(chunk string, tokens []string) int {
	lower := strings.ToLower(chunk)
	total := 0

	for _, variants := range s.concepts {
		if containsAny(lower, variants) {
			total += s.weights.Concept
		}
	}

	for _, token := range tokens {
		if strings.Contains(lower, token) {
			total += s.weights.Overlap
		}
	}

	// Symbols are matched on the original text: lower-casing folds Δ into δ.
	if containsAny(chunk, s.symbols) {
		total += s.weights.Symbol
	}

	if containsAny(lower, s.hardware) {
		total += s.weights.Hardware
	}

	return total
}

func (s *Scorer) questionTokens(question string) []string {
	fields := strings.Fields(strings.ToLower(question))
	tokens := fields[:0]
	for _, field := range fields {
		if utf8.RuneCountInString(field) >= s.minTokenLength {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
