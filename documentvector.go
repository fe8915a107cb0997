package ferret

// DocumentVector is a sparse term -> weight map for one document,
// grounded on original_source/src/DocumentVector.py's _sparse_vector. It
// exists purely as the leaf consumer DocMeta's VectorPosition/VectorSize
// fields are specified for (spec.md §3, SUPPLEMENT §4.9); it plays no
// part in the core's own scoring path.
type DocumentVector struct {
	Weights map[string]float64
}

// BuildDocumentVector computes the sparse Dirichlet-weighted vector for
// docID from the already-finalized index: one entry per vocabulary term
// that actually occurs in the document, weighted by the same Dirichlet
// formula the QueryNode tree's base score() uses (mu=1500), matching the
// Python docstring's "default is using the scoring function - dirichlet".
func BuildDocumentVector(index *InvertedIndex, docID int) (DocumentVector, error) {
	vec := DocumentVector{Weights: make(map[string]float64)}
	dl := index.GetDocLength(docID)
	cl := index.GetCollectionLength()

	for _, term := range index.GetVocabulary() {
		list, err := index.GetInvertedList(term)
		if err != nil {
			return DocumentVector{}, err
		}
		dtf := 0
		for _, p := range list.Postings {
			if p.DocID == docID {
				dtf = p.DTF()
				break
			}
			if p.DocID > docID {
				break
			}
		}
		if dtf == 0 {
			continue
		}
		vec.Weights[term] = dirichletNodeScore(dtf, index.GetCTF(term), dl, cl)
	}
	return vec, nil
}
