package ferret

import (
	"encoding/json"
	"fmt"
	"os"
)

// CorpusDocument is one entry of the input corpus JSON (spec.md §6):
// `{playId, sceneId, sceneNum, text}`. doc_id is its 0-based position in
// the corpus array, assigned by Indexer.Build, not stored here.
type CorpusDocument struct {
	PlayID   string `json:"playId"`
	SceneID  string `json:"sceneId"`
	SceneNum string `json:"sceneNum"`
	Text     string `json:"text"`
}

// Corpus is the parsed input file: `{corpus: [...]}`.
type Corpus struct {
	Corpus []CorpusDocument `json:"corpus"`
}

// LoadCorpus reads and parses the corpus JSON file at path. Corpus
// loading is named out of scope by spec.md §1 as an external
// collaborator producing "(doc_id, metadata, token list) tuples from a
// JSON file" - this is the minimal reader that shape requires, so Build
// has a concrete corpus to iterate.
func LoadCorpus(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("%w: %v", ErrCorpusUnreadable, err)
	}
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return Corpus{}, fmt.Errorf("%w: %v", ErrCorpusUnreadable, err)
	}
	return c, nil
}
