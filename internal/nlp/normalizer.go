// Package nlp provides the lexical normalization pipeline used by the
// intent classifier: tokenize, lowercase, drop non-alphabetic tokens,
// remove stopwords, stem.
package nlp

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/russian"
)

// Stemmer reduces a single lowercase token to its stem.
type Stemmer interface {
	Stem(token string) string
}

// SnowballStemmer stems Cyrillic tokens with the Russian snowball rules
// and everything else with the English ones.
type SnowballStemmer struct{}

func (SnowballStemmer) Stem(token string) string {
	for _, r := range token {
		if unicode.Is(unicode.Cyrillic, r) {
			return russian.Stem(token, false)
		}
	}
	return english.Stem(token, false)
}

type Normalizer struct {
	stemmer   Stemmer
	stopwords map[string]struct{}
}

func NewNormalizer(stemmer Stemmer) *Normalizer {
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[w] = struct{}{}
	}
	return &Normalizer{stemmer: stemmer, stopwords: stop}
}

// Normalize returns the deduplicated set of stemmed tokens for text.
// Pure function of its input; safe for concurrent use.
func (n *Normalizer) Normalize(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) })
		if tok == "" || !isAlphabetic(tok) {
			continue
		}
		if _, skip := n.stopwords[tok]; skip {
			continue
		}
		tokens[n.stemmer.Stem(tok)] = struct{}{}
	}
	return tokens
}

func isAlphabetic(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

var stopwords = []string{
	// Russian
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а",
	"то", "все", "она", "так", "его", "но", "да", "ты", "к", "у", "же",
	"вы", "за", "бы", "по", "ее", "мне", "было", "вот", "от", "меня",
	"еще", "нет", "о", "из", "ему", "или", "ни", "быть", "был", "него",
	"до", "вас", "чем", "мы", "тебя", "их", "было", "вам", "очень", "это",
	// English
	"a", "an", "the", "i", "me", "my", "you", "your", "he", "she", "it",
	"we", "they", "is", "are", "was", "were", "be", "to", "of", "in",
	"on", "at", "for", "and", "or", "not", "do", "does", "what", "how",
	"can", "will", "would", "please",
}
