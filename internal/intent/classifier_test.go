package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botlab.dev/assistant-bot/internal/nlp"
)

// identityStemmer keeps tokens as-is so tests do not depend on snowball
// rule details.
type identityStemmer struct{}

func (identityStemmer) Stem(token string) string { return token }

func newTestClassifier(intents []Intent) *Classifier {
	return NewClassifier(&Index{Intents: intents}, nlp.NewNormalizer(identityStemmer{}))
}

func TestRecognizeMatchesBestExample(t *testing.T) {
	c := newTestClassifier([]Intent{
		{Name: "greeting", Examples: []string{"привет бот"}, Responses: []string{"привет"}},
		{Name: "weather", Examples: []string{"погода сегодня"}, Responses: []string{"смотрю"}},
	})

	got := c.Recognize("привет")
	require.NotNil(t, got)
	assert.Equal(t, "greeting", got.Name)
}

func TestRecognizeBelowThresholdReturnsNil(t *testing.T) {
	c := newTestClassifier([]Intent{
		{Name: "alpha", Examples: []string{"альфа"}, Responses: []string{"ok"}},
	})

	// One of four tokens overlaps: score 0.25, under the 0.3 threshold.
	assert.Nil(t, c.Recognize("альфа бета гамма дельта"))
}

func TestRecognizeExactThresholdRejected(t *testing.T) {
	c := newTestClassifier([]Intent{
		{Name: "alpha", Examples: []string{"альфа слово"}, Responses: []string{"ok"}},
	})

	// The threshold is strict: 0.25 is rejected, 0.5 accepted.
	assert.Nil(t, c.Recognize("альфа бета гамма дельта"))
	assert.NotNil(t, c.Recognize("альфа бета"))
}

func TestRecognizeEmptyInput(t *testing.T) {
	c := newTestClassifier([]Intent{
		{Name: "alpha", Examples: []string{"альфа"}, Responses: []string{"ok"}},
	})

	assert.Nil(t, c.Recognize(""))
	assert.Nil(t, c.Recognize("123 456"))
}

func TestRecognizeTieKeepsCorpusOrder(t *testing.T) {
	c := newTestClassifier([]Intent{
		{Name: "first", Examples: []string{"зебра"}, Responses: []string{"a"}},
		{Name: "second", Examples: []string{"зебра"}, Responses: []string{"b"}},
	})

	got := c.Recognize("зебра")
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Name)
}

func TestRecognizeIsDeterministic(t *testing.T) {
	c := newTestClassifier([]Intent{
		{Name: "greeting", Examples: []string{"привет бот", "здравствуй"}, Responses: []string{"привет"}},
		{Name: "farewell", Examples: []string{"пока бот"}, Responses: []string{"пока"}},
	})

	first := c.Recognize("привет бот пока")
	require.NotNil(t, first)
	for i := 0; i < 100; i++ {
		got := c.Recognize("привет бот пока")
		require.NotNil(t, got)
		assert.Equal(t, first.Name, got.Name)
	}
}

func TestParseIndexMalformed(t *testing.T) {
	_, err := ParseIndex([]byte("intents: [not: valid"))
	assert.Error(t, err)
}

func TestParseIndexValid(t *testing.T) {
	idx, err := ParseIndex([]byte(`
intents:
  - name: greeting
    examples: ["привет"]
    responses: ["Привет!"]
`))
	require.NoError(t, err)
	require.Len(t, idx.Intents, 1)
	assert.Equal(t, "greeting", idx.Intents[0].Name)
}
