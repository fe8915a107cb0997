package ferret

// DocMeta is the per-document metadata record (spec.md §3): the playId,
// sceneId and sceneNum carried over from the corpus, plus the document
// length used as the authoritative value in every scoring formula. The
// vector fields are carried through JSON but nothing in this package sets
// them; BuildDocumentVector records no position or size.
type DocMeta struct {
	PlayID      string `json:"playId"`
	SceneID     string `json:"sceneId"`
	SceneNum    string `json:"sceneNum"`
	SceneLength int    `json:"sceneLength"`

	VectorPosition int64 `json:"document_vector_position,omitempty"`
	VectorSize     int64 `json:"document_vector_size,omitempty"`
}

// CollectionStats carries the corpus-wide totals (spec.md §3): total
// token count, document count, and their ratio.
type CollectionStats struct {
	TotalLength   int     `json:"totalLength"`
	NumberOfDocs  int     `json:"numberOfDocs"`
	AverageLength float64 `json:"averageLength"`
}

// Update accumulates one document's length into the running totals. It
// does not touch AverageLength; callers must call Finalize once every
// document has been ingested (spec.md §3: "averageLength is recomputed
// after all documents have been ingested and before the index is
// finalised").
func (c *CollectionStats) Update(docLength int) {
	c.TotalLength += docLength
	c.NumberOfDocs++
}

// Finalize recomputes AverageLength from the accumulated totals.
func (c *CollectionStats) Finalize() {
	if c.NumberOfDocs == 0 {
		c.AverageLength = 0
		return
	}
	c.AverageLength = float64(c.TotalLength) / float64(c.NumberOfDocs)
}
