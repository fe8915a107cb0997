package ferret

import "sort"

// TermScore pairs a vocabulary term with a similarity score, the shape
// DiceCoefficients returns for query-expansion suggestions.
type TermScore struct {
	Term  string
	Score float64
}

// DiceCoefficients suggests the count vocabulary terms most similar to
// term by co-occurrence, grounded on original_source/pa_1_indexer/src/
// DiceCoefficient.py's calculate_dice_coefficients - adapted from that
// file's positional bigram-adjacency count (n_ab = consecutive
// occurrences of a then b) to a plain document-co-occurrence Dice
// coefficient, since the DOMAIN STACK's docBitmaps already maintain each
// term's doc-id set and re-deriving adjacency would mean walking
// postings anyway (see DESIGN.md). Formula:
//
//	2 * |docs(a) ∩ docs(b)| / (|docs(a)| + |docs(b)|)
//
// This only ever suggests terms; it never expands a query on its own,
// keeping it out of spec.md's query-time relevance feedback non-goal.
func (idx *InvertedIndex) DiceCoefficients(term string, count int) []TermScore {
	docsA := idx.CandidateDocs(term)
	nA := docsA.GetCardinality()
	if nA == 0 {
		return nil
	}

	var results []TermScore
	for _, other := range idx.vocab {
		if other == term {
			continue
		}
		docsB := idx.CandidateDocs(other)
		nB := docsB.GetCardinality()
		if nB == 0 {
			continue
		}
		intersection := docsA.Clone()
		intersection.And(docsB)
		nAB := intersection.GetCardinality()

		coefficient := 2 * float64(nAB) / float64(nA+nB)
		results = append(results, TermScore{Term: other, Score: coefficient})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	return results
}
