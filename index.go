// Package ferret implements a positional inverted-index search engine:
// a term -> postings index with full positional information, a
// delta+varbyte binary persistence layer, four retrieval scoring models,
// and a structured query operator tree ("inference network") over the
// same postings.
package ferret

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INVERTEDINDEX FACADE
// ═══════════════════════════════════════════════════════════════════════════════
// InvertedIndex owns every piece of index state: the lookup table, the
// per-document metadata store, the collection statistics, the derived
// vocabulary, and (when InMemory) the term -> InvertedList map itself.
//
// Two storage tiers coexist, matching the hybrid layout the teacher index
// used for BM25 search, generalized to this domain:
//
//   docBitmaps  map[string]*roaring.Bitmap  - DOCUMENT-LEVEL, a derived
//               accelerator: fast existence/union checks across query
//               terms before positional scoring. Never persisted; rebuilt
//               from the decoded inverted lists on load.
//
//   invertedMap map[string]InvertedList     - POSITION-LEVEL, the source
//               of truth. When InMemory is false it is nil after Persist
//               and GetInvertedList reads straight from disk instead.
// ═══════════════════════════════════════════════════════════════════════════════
type InvertedIndex struct {
	mu sync.Mutex // guards mutation during build; query-time reads take no lock

	config Config

	lookup LookupTable
	docs   map[int]DocMeta
	stats  CollectionStats
	vocab  []string

	invertedMap map[string]InvertedList // resident only when config.InMemory
	docBitmaps  map[string]*roaring.Bitmap

	listFile *os.File // cached read-only handle for on-disk lookups, see spec.md §9

	positionLists map[string]*PositionSkipList // lazy, freetext.go only (SUPPLEMENT §4.12)
}

// NewInvertedIndex returns an empty index configured per cfg.
func NewInvertedIndex(cfg Config) *InvertedIndex {
	return &InvertedIndex{
		config:      cfg,
		lookup:      make(LookupTable),
		docs:        make(map[int]DocMeta),
		invertedMap: make(map[string]InvertedList),
		docBitmaps:  make(map[string]*roaring.Bitmap),

		positionLists: make(map[string]*PositionSkipList),
	}
}

// UpdateMap implements spec.md §4.3's update_map: obtain or create the
// InvertedList for term, append position to its tail posting (starting a
// new one when the tail doesn't already belong to docID), then recompute
// df and bump the lookup table's ctf by one - every call represents one
// token occurrence.
func (idx *InvertedIndex) UpdateMap(term string, docID, position int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	list := idx.invertedMap[term]
	list.AddPosting(docID, position)
	idx.invertedMap[term] = list

	idx.lookup.AddOrUpdate(term, list.DF())

	bitmap, ok := idx.docBitmaps[term]
	if !ok {
		bitmap = roaring.NewBitmap()
		idx.docBitmaps[term] = bitmap
	}
	bitmap.Add(uint32(docID))
}

// CandidateDocs returns the union of the document-id bitmaps for terms
// (DOMAIN STACK accelerator, SPEC_FULL.md §4.3): a cheap existence check
// query drivers can consult before paying for positional iteration. A
// term absent from the index contributes an empty bitmap.
func (idx *InvertedIndex) CandidateDocs(terms ...string) *roaring.Bitmap {
	out := roaring.NewBitmap()
	for _, term := range terms {
		if bm, ok := idx.docBitmaps[term]; ok {
			out.Or(bm)
		}
	}
	return out
}

// GetCTF returns the collection term frequency for term, or 0 if unknown.
func (idx *InvertedIndex) GetCTF(term string) int {
	if e, ok := idx.lookup[term]; ok {
		return e.CTF
	}
	return 0
}

// GetDF returns the document frequency for term, or 0 if unknown.
func (idx *InvertedIndex) GetDF(term string) int {
	if e, ok := idx.lookup[term]; ok {
		return e.DF
	}
	return 0
}

// HasTerm reports whether term has a lookup-table entry (spec.md §7:
// unknown terms are detected and dropped before reaching a retrieval
// model).
func (idx *InvertedIndex) HasTerm(term string) bool {
	_, ok := idx.lookup[term]
	return ok
}

// GetTotalDocs returns the number of documents in the collection.
func (idx *InvertedIndex) GetTotalDocs() int {
	return idx.stats.NumberOfDocs
}

// GetCollectionLength returns the total token count across all documents.
func (idx *InvertedIndex) GetCollectionLength() int {
	return idx.stats.TotalLength
}

// GetAverageDocLength returns the mean document length.
func (idx *InvertedIndex) GetAverageDocLength() float64 {
	return idx.stats.AverageLength
}

// GetDocLength returns sceneLength for docID. Out-of-range doc_ids are a
// fatal programmer error per spec.md §7.
func (idx *InvertedIndex) GetDocLength(docID int) int {
	meta, ok := idx.docs[docID]
	if !ok {
		panic(fmt.Errorf("%w: doc_id %d", ErrDocIDOutOfRange, docID))
	}
	return meta.SceneLength
}

// GetDocMeta returns the metadata record for docID. Out-of-range doc_ids
// are a fatal programmer error per spec.md §7.
func (idx *InvertedIndex) GetDocMeta(docID int) DocMeta {
	meta, ok := idx.docs[docID]
	if !ok {
		panic(fmt.Errorf("%w: doc_id %d", ErrDocIDOutOfRange, docID))
	}
	return meta
}

// GetVocabulary returns the sorted ascending list of terms in the index.
func (idx *InvertedIndex) GetVocabulary() []string {
	return idx.vocab
}

// GetInvertedList returns the InvertedList for term. When InMemory it is
// served straight from the resident map; otherwise it is read from the
// inverted-lists file at the term's recorded (offset, size) and decoded
// per the index's compression mode - the hot path spec.md §4.3 calls out,
// kept cheap on repeated calls by caching one read-only file handle
// (spec.md §9's "on-disk lookup trade-off").
func (idx *InvertedIndex) GetInvertedList(term string) (InvertedList, error) {
	entry, ok := idx.lookup[term]
	if !ok {
		return InvertedList{}, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}

	if idx.config.InMemory {
		if list, ok := idx.invertedMap[term]; ok {
			return list, nil
		}
		return InvertedList{}, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}

	f, err := idx.listFileHandle()
	if err != nil {
		return InvertedList{}, err
	}
	buf := make([]byte, entry.Size)
	if _, err := f.ReadAt(buf, entry.Offset); err != nil {
		slog.Error("reading posting list from disk", slog.String("term", term), slog.Any("error", err))
		return InvertedList{}, fmt.Errorf("%w: %v", ErrCorruptPostingList, err)
	}
	return Decode(buf, entry.DF, idx.config.Compressed)
}

// listFileHandle lazily opens (and caches) the inverted_lists file for the
// index's current compression mode.
func (idx *InvertedIndex) listFileHandle() (*os.File, error) {
	if idx.listFile != nil {
		return idx.listFile, nil
	}
	path := filepath.Join(idx.config.IndexDir, idx.config.subDir(), idx.config.InvertedListsFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	idx.listFile = f
	return f, nil
}

// Close releases the cached file handle, if any. Safe to call on an
// index that never opened one.
func (idx *InvertedIndex) Close() error {
	if idx.listFile == nil {
		return nil
	}
	err := idx.listFile.Close()
	idx.listFile = nil
	return err
}

// dropResidentPostings discards the in-memory term->InvertedList map
// after persistence, per spec.md §3/§5: "the posting map may be
// explicitly dropped after persistence to free memory; subsequent
// queries then hit disk." It does not touch docBitmaps, which stays
// resident as a derived accelerator regardless of InMemory mode.
func (idx *InvertedIndex) dropResidentPostings() {
	idx.invertedMap = nil
}

// marshalJSONFile is a tiny helper shared by Persist/Load for the four
// JSON artifacts (collection_stats, docs_meta, lookup_table, config).
func marshalJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func unmarshalJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	return json.Unmarshal(data, v)
}
