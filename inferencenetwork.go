package ferret

import (
	"fmt"
	"sort"
	"strings"
)

// InferenceNetwork is a thin factory over the QueryNode tree (spec.md
// §4.8): it parses an operator name and a query string into a root node
// built from TermNodes, then drives scoring over that root.
type InferenceNetwork struct {
	index *InvertedIndex
	root  QueryNode
}

// NewInferenceNetwork returns an InferenceNetwork over index with no
// operator built yet; call GetOperator before GetDocuments.
func NewInferenceNetwork(index *InvertedIndex) *InferenceNetwork {
	return &InferenceNetwork{index: index}
}

// ErrUnknownOperator is returned by GetOperator for an unrecognized
// operator name.
var ErrUnknownOperator = fmt.Errorf("ferret: unknown inference network operator")

// GetOperator builds the root node for opName over the whitespace-split
// tokens of queryString. windowSize is only meaningful for the two
// window operators. Tokens with no lookup-table entry are dropped,
// matching spec.md §7's unknown-term policy.
func (n *InferenceNetwork) GetOperator(queryString, opName string, windowSize int) error {
	tokens := strings.Fields(queryString)

	var termNodes []*TermNode
	for _, token := range tokens {
		tn, err := NewTermNode(n.index, token)
		if err != nil {
			continue
		}
		termNodes = append(termNodes, tn)
	}

	proximityChildren := make([]proximityChild, len(termNodes))
	queryChildren := make([]QueryNode, len(termNodes))
	for i, tn := range termNodes {
		proximityChildren[i] = tn
		queryChildren[i] = tn
	}

	switch opName {
	case "OrderedWindow":
		n.root = NewOrderedWindowNode(n.index, proximityChildren, windowSize)
	case "UnorderedWindow":
		n.root = NewUnorderedWindowNode(n.index, proximityChildren, windowSize)
	case "BooleanAnd":
		n.root = NewBooleanAndNode(n.index, proximityChildren)
	case "And":
		n.root = NewAndNode(queryChildren)
	case "Or":
		n.root = NewOrNode(queryChildren)
	case "Sum":
		n.root = NewSumNode(queryChildren)
	case "Max":
		n.root = NewMaxNode(queryChildren)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperator, opName)
	}
	return nil
}

// GetDocuments walks the root node built by GetOperator: repeatedly take
// has_more/next_candidate, score the candidate, then skip_to(doc_id+1);
// accumulate (doc_id, score) pairs, sort descending by (score, doc_id),
// and return the top `count` with metadata attached (spec.md §4.8).
func (n *InferenceNetwork) GetDocuments(count int) []ScoredDoc {
	if n.root == nil {
		return nil
	}

	var results []ScoredDoc
	for n.root.HasMore() {
		docID := n.root.NextCandidate().DocID
		score := n.root.Score(docID)
		results = append(results, ScoredDoc{DocID: docID, Meta: n.index.GetDocMeta(docID), Score: score})
		n.root.SkipTo(docID + 1)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID > results[j].DocID
	})
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	return results
}
