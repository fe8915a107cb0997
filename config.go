package ferret

// Config carries the on-disk layout and retrieval defaults for one index.
// Grounded on original_source/src/Config.py: the same fields, the same
// get_params() contract (here Params()), just Go-shaped.
type Config struct {
	IndexDir string // root directory holding all persisted artifacts
	DataDir  string // directory the raw corpus JSON lives in

	Compressed bool // true: read/write the compressed posting-list format
	InMemory   bool // true: keep the term->InvertedList map resident after build

	RetrievalModel string // one of "raw_counts", "bm25", "jelinek_mercer", "dirichlet"

	CollectionStatsFileName string
	DocsMetaFileName        string
	InvertedListsFileName   string
	LookupTableFileName     string
	ConfigFileName          string
	CompressedDir           string
	UncompressedDir         string

	K1     float64
	K2     float64
	B      float64
	AlphaD float64
	Mu     float64
}

// DefaultConfig returns the file names and retrieval defaults spec.md §4.4
// and §4.5 fix: the five artifact names, the compressed/uncompressed
// subdirectory names, and the BM25/Jelinek-Mercer/Dirichlet parameter
// defaults (k1=1.2, k2=100, b=0.75, alphaD=0.1, mu=1500).
func DefaultConfig() Config {
	return Config{
		IndexDir:                "index",
		DataDir:                 "data",
		Compressed:              false,
		InMemory:                true,
		RetrievalModel:          "bm25",
		CollectionStatsFileName: "collection_stats",
		DocsMetaFileName:        "docs_meta",
		InvertedListsFileName:   "inverted_lists",
		LookupTableFileName:     "lookup_table",
		ConfigFileName:          "config",
		CompressedDir:           "compressed",
		UncompressedDir:         "uncompressed",
		K1:                      1.2,
		K2:                      100,
		B:                       0.75,
		AlphaD:                  0.1,
		Mu:                      1500,
	}
}

// Params mirrors the Python Config.get_params() contract: a flat map
// suitable for JSON-serializing as the "config" artifact (spec.md §4.4/§6).
func (c Config) Params() map[string]any {
	return map[string]any{
		"index_dir":       c.IndexDir,
		"data_dir":        c.DataDir,
		"compressed":      c.Compressed,
		"in_memory":       c.InMemory,
		"retrieval_model": c.RetrievalModel,
		"k1":              c.K1,
		"k2":              c.K2,
		"b":               c.B,
		"alphaD":          c.AlphaD,
		"mu":              c.Mu,
	}
}

// subDir returns the compressed or uncompressed artifact directory name
// for the index's current compression mode.
func (c Config) subDir() string {
	if c.Compressed {
		return c.CompressedDir
	}
	return c.UncompressedDir
}
