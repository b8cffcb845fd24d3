// Package intent holds the static intent corpus and the bag-of-words
// classifier that maps free text onto it.
package intent

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Intent is one named cluster of example phrases with its canned responses.
// Immutable after load.
type Intent struct {
	Name      string   `yaml:"name"`
	Examples  []string `yaml:"examples"`
	Responses []string `yaml:"responses"`
}

// Index is the in-memory corpus, in document order. Read-only after load,
// so it is safe to share across concurrent classifications.
type Index struct {
	Intents []Intent
}

// LoadIndex reads the YAML corpus at path. A missing or malformed corpus
// yields an empty index (the classifier then always declines) rather than
// a startup failure.
func LoadIndex(path string) *Index {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: intent corpus %s not readable (%v), classifier disabled", path, err)
		return &Index{}
	}
	idx, err := ParseIndex(data)
	if err != nil {
		log.Printf("Warning: intent corpus %s malformed (%v), classifier disabled", path, err)
		return &Index{}
	}
	log.Printf("Loaded %d intents from %s", len(idx.Intents), path)
	return idx
}

func ParseIndex(data []byte) (*Index, error) {
	var doc struct {
		Intents []Intent `yaml:"intents"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse intent corpus: %w", err)
	}
	return &Index{Intents: doc.Intents}, nil
}
