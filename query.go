package ferret

import (
	"fmt"
	"sort"
	"strings"
)

// QueryMode selects the retrieval driver spec.md §4.6 describes. Only
// TermAtATime and DocumentAtATime are normative; the conjunctive modes
// are reserved but unimplemented, matching original_source/pa_1_indexer/
// src/Query.py's conjunctive_* methods, which are `pass`.
type QueryMode int

const (
	TermAtATime QueryMode = iota
	DocumentAtATime
	ConjunctiveTerm
	ConjunctiveDoc
)

// ErrConjunctiveModeUnimplemented is returned by GetDocuments for the two
// reserved modes.
var ErrConjunctiveModeUnimplemented = fmt.Errorf("ferret: conjunctive query modes are reserved but unimplemented")

// ScoredDoc is one ranked result: a document's metadata plus its
// accumulated score under the chosen retrieval model.
type ScoredDoc struct {
	DocID int
	Meta  DocMeta
	Score float64
}

// Query is the flat bag-of-words driver: it scores every document
// against a query string under one retrieval model, without any
// structured operator tree (that's InferenceNetwork's job, §4.8).
type Query struct {
	index  *InvertedIndex
	mode   QueryMode
	model  RetrievalModel
	count  int
	params RetrievalParams
}

// NewQuery returns a Query driver over index, configured per spec.md
// §4.6/§6's Query(config, index, mode, retrieval_model, count, k1, k2, b,
// alphaD, mu) constructor contract.
func NewQuery(index *InvertedIndex, mode QueryMode, model RetrievalModel, count int, params RetrievalParams) *Query {
	return &Query{index: index, mode: mode, model: model, count: count, params: params}
}

// GetDocuments scores queryString against the index and returns the top
// Query.count documents, sorted descending by (score, doc_id). An empty
// query string yields an empty, non-error result (spec.md §7).
func (q *Query) GetDocuments(queryString string) ([]ScoredDoc, error) {
	terms := strings.Fields(queryString)
	if len(terms) == 0 {
		return nil, nil
	}

	switch q.mode {
	case TermAtATime:
		return q.termAtATime(terms), nil
	case DocumentAtATime:
		return q.documentAtATime(terms), nil
	default:
		return nil, ErrConjunctiveModeUnimplemented
	}
}

// queryTermCounts returns the unique query terms in first-occurrence
// order, each paired with its qf_i (count within the query string).
func queryTermCounts(terms []string) ([]string, map[string]int) {
	counts := make(map[string]int, len(terms))
	order := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}
	return order, counts
}

// termAtATime implements spec.md §4.6: initialise scores to zero, then
// for each unique query term (in query order) fetch its inverted list
// and add this term's contribution to every document it appears in.
// Unknown terms are dropped (spec.md §7) before they ever reach the
// retrieval model.
func (q *Query) termAtATime(terms []string) []ScoredDoc {
	order, qf := queryTermCounts(terms)
	scores := make(map[int]float64)

	avdl := q.index.GetAverageDocLength()
	N := q.index.GetTotalDocs()
	cl := q.index.GetCollectionLength()

	for _, term := range order {
		if !q.index.HasTerm(term) {
			continue
		}
		list, err := q.index.GetInvertedList(term)
		if err != nil {
			continue
		}
		ni := q.index.GetDF(term)
		cqi := q.index.GetCTF(term)

		for _, posting := range list.Postings {
			in := ScoreInput{
				Fi: posting.DTF(), QFi: qf[term], Ni: ni, N: N,
				DL: q.index.GetDocLength(posting.DocID), AvDL: avdl,
				CQi: cqi, CL: cl,
			}
			scores[posting.DocID] += Score(q.model, in, q.params)
		}
	}

	return q.rankTop(scores)
}

// documentAtATime implements spec.md §4.6: fetch all query-term inverted
// lists once, then sweep doc_id over [0, N) externally, scoring each
// document against every unique query term (f_i=0 for terms absent from
// that document via a zero-dtf posting). Lists are walked with an
// advancing pointer per term rather than a linear scan per document,
// since doc_id increases monotonically across the sweep (spec.md §9
// permits either a multi-way merge or a linear scan).
func (q *Query) documentAtATime(terms []string) []ScoredDoc {
	order, qf := queryTermCounts(terms)

	type cursor struct {
		postings []Posting
		pos      int
		ni       int
		cqi      int
	}
	cursors := make(map[string]*cursor, len(order))
	for _, term := range order {
		if !q.index.HasTerm(term) {
			continue
		}
		list, err := q.index.GetInvertedList(term)
		if err != nil {
			continue
		}
		cursors[term] = &cursor{postings: list.Postings, ni: q.index.GetDF(term), cqi: q.index.GetCTF(term)}
	}

	avdl := q.index.GetAverageDocLength()
	N := q.index.GetTotalDocs()
	cl := q.index.GetCollectionLength()

	scores := make(map[int]float64)
	for docID := 0; docID < N; docID++ {
		var total float64
		for _, term := range order {
			c, ok := cursors[term]
			if !ok {
				continue
			}
			for c.pos < len(c.postings) && c.postings[c.pos].DocID < docID {
				c.pos++
			}
			fi := 0
			if c.pos < len(c.postings) && c.postings[c.pos].DocID == docID {
				fi = c.postings[c.pos].DTF()
			}
			in := ScoreInput{
				Fi: fi, QFi: qf[term], Ni: c.ni, N: N,
				DL: q.index.GetDocLength(docID), AvDL: avdl,
				CQi: c.cqi, CL: cl,
			}
			total += Score(q.model, in, q.params)
		}
		if total != 0 {
			scores[docID] = total
		}
	}

	return q.rankTop(scores)
}

// rankTop sorts accumulated scores descending by (score, doc_id) and
// returns the top q.count results with metadata attached.
func (q *Query) rankTop(scores map[int]float64) []ScoredDoc {
	out := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		out = append(out, ScoredDoc{DocID: docID, Meta: q.index.GetDocMeta(docID), Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID > out[j].DocID
	})
	if q.count > 0 && len(out) > q.count {
		out = out[:q.count]
	}
	return out
}
