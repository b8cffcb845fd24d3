package intent

import (
	"botlab.dev/assistant-bot/internal/nlp"
)

// ScoreThreshold is the minimum example overlap score a candidate must
// exceed to be accepted.
const ScoreThreshold = 0.3

type Classifier struct {
	index      *Index
	normalizer *nlp.Normalizer
}

func NewClassifier(index *Index, normalizer *nlp.Normalizer) *Classifier {
	return &Classifier{index: index, normalizer: normalizer}
}

// Recognize scores text against every example phrase in the corpus and
// returns the intent with the globally highest score, or nil when no score
// exceeds the threshold or the normalized input is empty.
//
// score = |text ∩ example| / max(|text|, 1) over stemmed token sets.
// Ties keep the first highest-scoring intent in corpus load order; the
// order is arbitrary but deterministic, which the callers rely on.
// Stateless apart from the read-only index, so concurrent calls are safe.
func (c *Classifier) Recognize(text string) *Intent {
	textTokens := c.normalizer.Normalize(text)
	if len(textTokens) == 0 {
		return nil
	}

	var best *Intent
	bestScore := 0.0
	for i := range c.index.Intents {
		in := &c.index.Intents[i]
		for _, example := range in.Examples {
			exampleTokens := c.normalizer.Normalize(example)
			overlap := 0
			for tok := range textTokens {
				if _, ok := exampleTokens[tok]; ok {
					overlap++
				}
			}
			score := float64(overlap) / float64(len(textTokens))
			if score > bestScore {
				bestScore = score
				best = in
			}
		}
	}

	if bestScore <= ScoreThreshold {
		return nil
	}
	return best
}
