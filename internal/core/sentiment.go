package core

import "strings"

var positiveWords = map[string]struct{}{}
var negativeWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"хорошо", "отлично", "супер", "спасибо", "класс", "здорово", "рад",
		"рада", "люблю", "нравится", "прекрасно", "замечательно",
		"good", "great", "thanks", "love", "nice", "awesome", "happy",
	} {
		positiveWords[w] = struct{}{}
	}
	for _, w := range []string{
		"плохо", "ужасно", "грустно", "ненавижу", "устал", "устала",
		"злюсь", "отстой", "кошмар", "бесит",
		"bad", "terrible", "sad", "hate", "awful", "angry", "tired",
	} {
		negativeWords[w] = struct{}{}
	}
}

// sentimentOf assigns a coarse label to a free-text exchange by word
// counting. It exists only so history entries can be filtered later; no
// accuracy is promised.
func sentimentOf(text string) string {
	pos, neg := 0, 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?…:;\"'()")
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}
