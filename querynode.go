package ferret

import (
	"math"
	"sort"
)

// ═══════════════════════════════════════════════════════════════════════════════
// QUERYNODE TREE
// ═══════════════════════════════════════════════════════════════════════════════
// spec.md §4.7/§9 calls for reshaping the source's deep class hierarchy
// (Node -> Belief -> {And, Or, Not, ...}; Node -> Proximity -> {Term,
// OrderedWindow, UnorderedWindow, BooleanAnd}; Node -> Filter -> {Require,
// Reject}) into a tagged sum type of node variants sharing one capability
// set. Go's idiom for that is an interface implemented by distinct
// structs rather than a literal tagged union - each variant below carries
// exactly the data it needs and satisfies QueryNode.
// ═══════════════════════════════════════════════════════════════════════════════

// QueryNode is the uniform four-operation interface every node in the
// tree exposes over a document-id stream (spec.md §4.7).
type QueryNode interface {
	// HasMore reports whether at least one more candidate doc exists.
	HasMore() bool
	// NextCandidate returns the current Posting, or a sentinel Posting
	// with DocID == -1 once the stream is exhausted.
	NextCandidate() Posting
	// SkipTo advances the internal pointer past every doc_id strictly
	// less than docID.
	SkipTo(docID int)
	// Score returns this node's scoring contribution for docID.
	Score(docID int) float64
}

// proximityChild is the narrower interface ProximityNode's term slots
// require: a QueryNode that can also report the positions backing its
// current posting. TermNode and every ProximityNode variant satisfy it,
// so windows can nest over other windows as well as over raw terms.
type proximityChild interface {
	QueryNode
	CurrentPositions() []int
}

// dirichletMu is the fixed smoothing constant the base QueryNode.score
// formula in original_source/src/QueryNode.py and spec.md §4.5/§4.7 both
// use (mu=1500), independent of whatever retrieval model a flat Query
// driver is separately configured with.
const dirichletMu = 1500

// dirichletNodeScore implements the QueryNode base class's score(doc)
// formula: log((fqiD + mu*(cqi/cl)) / (dl + mu)).
func dirichletNodeScore(dtf, ctf, docLength, collectionLength int) float64 {
	cl := float64(collectionLength)
	return math.Log((float64(dtf)+dirichletMu*(float64(ctf)/cl))/(float64(docLength)+dirichletMu))
}

// postingStream is the shared positional-iteration state every leaf/proximity
// node carries: an ordered posting slice plus a monotonically-advancing
// cursor, matching TermNode/ProximityNode's shared has_more/next_candidate/
// skip_to behavior in original_source/src/QueryNode.py's QueryNode base class.
type postingStream struct {
	postings []Posting
	cursor   int
	ctf      int
}

func (s *postingStream) HasMore() bool {
	return s.cursor < len(s.postings)
}

func (s *postingStream) NextCandidate() Posting {
	if s.cursor < len(s.postings) {
		return s.postings[s.cursor]
	}
	return exhaustedPosting()
}

func (s *postingStream) SkipTo(docID int) {
	for s.cursor < len(s.postings) && s.postings[s.cursor].DocID < docID {
		s.cursor++
	}
}

func (s *postingStream) currentPosting() Posting {
	if s.cursor < len(s.postings) {
		return s.postings[s.cursor]
	}
	return exhaustedPosting()
}

func (s *postingStream) CurrentPositions() []int {
	if s.cursor < len(s.postings) {
		return s.postings[s.cursor].Positions
	}
	return nil
}

// positionalNode bundles a postingStream with the index handle its score
// formula needs, giving TermNode and every ProximityNode variant the
// identical Score implementation the Python QueryNode base class gives
// TermNode and ProximityNode via inheritance.
type positionalNode struct {
	postingStream
	index *InvertedIndex
}

func (n *positionalNode) Score(docID int) float64 {
	p := n.currentPosting()
	dtf := 0
	if p.DocID == docID {
		dtf = p.DTF()
	}
	return dirichletNodeScore(dtf, n.ctf, n.index.GetDocLength(docID), n.index.GetCollectionLength())
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.1 TermNode
// ═══════════════════════════════════════════════════════════════════════════════

// TermNode wraps one inverted list and maintains the term's ctf for
// Dirichlet scoring.
type TermNode struct {
	positionalNode
	Term string
}

// NewTermNode builds a TermNode from the index's posting list for term.
func NewTermNode(index *InvertedIndex, term string) (*TermNode, error) {
	list, err := index.GetInvertedList(term)
	if err != nil {
		return nil, err
	}
	return &TermNode{
		positionalNode: positionalNode{
			postingStream: postingStream{postings: list.Postings, ctf: index.GetCTF(term)},
			index:         index,
		},
		Term: term,
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.2 ProximityNode (base for windows)
// ═══════════════════════════════════════════════════════════════════════════════

// windowStartFunc computes the window start positions for one document,
// given each query term's positions in that document (in query order).
// OrderedWindowNode, UnorderedWindowNode, and BooleanAndNode each supply
// a different one.
type windowStartFunc func(termPositions [][]int, windowSize int) []int

// ProximityNode computes, at construction time, a synthetic InvertedList
// whose postings are (doc_id, [window_start_positions]) - built by
// walking every child term node in lockstep (spec.md §4.7.2).
type ProximityNode struct {
	positionalNode
	termNodes  []proximityChild
	windowSize int
	startFn    windowStartFunc
}

func newProximityNode(index *InvertedIndex, termNodes []proximityChild, windowSize int, startFn windowStartFunc) *ProximityNode {
	pn := &ProximityNode{termNodes: termNodes, windowSize: windowSize, startFn: startFn}
	postings, ctf := pn.buildWindows()
	pn.positionalNode = positionalNode{
		postingStream: postingStream{postings: postings, ctf: ctf},
		index:         index,
	}
	return pn
}

func (pn *ProximityNode) allTermsHaveMore() bool {
	for _, t := range pn.termNodes {
		if !t.HasMore() {
			return false
		}
	}
	return true
}

func (pn *ProximityNode) allTermsOnSameDoc(docID int) bool {
	for _, t := range pn.termNodes {
		c := t.NextCandidate()
		if c.DocID == sentinelDocID || c.DocID != docID {
			return false
		}
	}
	return true
}

// buildWindows implements get_window_positions: while every term node
// has more, align all of them on the max of their current candidate
// doc_ids, and if they all land on that doc, extract window starts from
// their current positions. Because max_doc_id only ever grows across
// iterations, postings come out already sorted ascending by doc_id - no
// separate sort/collect pass is needed the way the Python's
// doc_window_positions dict required.
func (pn *ProximityNode) buildWindows() ([]Posting, int) {
	var postings []Posting
	ctf := 0

	for pn.allTermsHaveMore() {
		maxDoc := -1
		for _, t := range pn.termNodes {
			if d := t.NextCandidate().DocID; d > maxDoc {
				maxDoc = d
			}
		}
		for _, t := range pn.termNodes {
			t.SkipTo(maxDoc)
		}

		if pn.allTermsOnSameDoc(maxDoc) {
			termPositions := make([][]int, len(pn.termNodes))
			for i, t := range pn.termNodes {
				termPositions[i] = append([]int(nil), t.CurrentPositions()...)
			}
			starts := pn.startFn(termPositions, pn.windowSize)
			if len(starts) > 0 {
				postings = append(postings, Posting{DocID: maxDoc, Positions: starts})
				ctf += len(starts)
			}
		}

		for _, t := range pn.termNodes {
			t.SkipTo(maxDoc + 1)
		}
	}

	return postings, ctf
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.3 OrderedWindowNode
// ═══════════════════════════════════════════════════════════════════════════════

// NewOrderedWindowNode builds an ordered-proximity node: a window starts
// at a position of the first term iff each subsequent term has a
// position within windowSize of the previous one, in query order.
func NewOrderedWindowNode(index *InvertedIndex, termNodes []proximityChild, windowSize int) *ProximityNode {
	return newProximityNode(index, termNodes, windowSize, orderedWindowStarts)
}

// orderedWindowStarts ports original_source/src/QueryNode.py's
// OrderedWindowNode.get_window_start_positions line for line: per-term
// pointers advance monotonically and only ever backtrack into the
// zeroth term when no window closes, which is what makes this a classic
// multi-list merge rather than a quadratic scan.
func orderedWindowStarts(termPositions [][]int, windowSize int) []int {
	numTerms := len(termPositions)
	if numTerms == 1 {
		return append([]int(nil), termPositions[0]...)
	}

	var starts []int
	pointers := make([]int, numTerms)
	currentTerm := 0

	for _, windowStart := range termPositions[0] {
		prevTermPosition := windowStart
		pointers[currentTerm]++
		currentTerm = 1

		for currentTerm < numTerms && pointers[currentTerm] < len(termPositions[currentTerm]) {
			currentTermPointer := pointers[currentTerm]
			for currentTermPointer < len(termPositions[currentTerm]) && termPositions[currentTerm][currentTermPointer] <= prevTermPosition {
				currentTermPointer++
			}

			if currentTermPointer < len(termPositions[currentTerm]) {
				pointers[currentTerm] = currentTermPointer
				if termPositions[currentTerm][currentTermPointer]-prevTermPosition > windowSize {
					currentTerm--
					if currentTerm != 0 {
						currentTermPointer = pointers[currentTerm]
						prevTermPosition = termPositions[currentTerm][currentTermPointer]
					} else {
						break
					}
				} else if currentTerm == numTerms-1 {
					starts = append(starts, windowStart)
					currentTerm = 0
					break
				} else {
					prevTermPosition = termPositions[currentTerm][currentTermPointer]
					currentTerm++
				}
			} else {
				currentTerm = 0
				break
			}
		}
	}
	return starts
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.4 UnorderedWindowNode
// ═══════════════════════════════════════════════════════════════════════════════

// NewUnorderedWindowNode builds an unordered-proximity node: a window
// starts at the smallest head position iff every other term has a
// position within windowSize of it, in any order.
func NewUnorderedWindowNode(index *InvertedIndex, termNodes []proximityChild, windowSize int) *ProximityNode {
	return newProximityNode(index, termNodes, windowSize, unorderedWindowStarts)
}

// unorderedWindowStarts ports original_source/src/QueryNode.py's
// UnorderedWindowNode.get_window_start_positions, including the
// duplicate-term distribution fix-up: when two or more of the term
// positions lists share the same head (a query term repeated, e.g. "to
// be or not to be"), naively popping the smallest head would drain one
// occurrence's positions before the other occurrence ever gets a window.
// Striding the shared positions slice across the duplicate lists lets
// every occurrence contribute windows of its own.
func unorderedWindowStarts(termPositions [][]int, windowSize int) []int {
	numTerms := len(termPositions)
	if numTerms == 1 {
		return append([]int(nil), termPositions[0]...)
	}

	lists := make([][]int, numTerms)
	for i, p := range termPositions {
		lists[i] = append([]int(nil), p...)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i][0] < lists[j][0] })

	var distributed [][]int
	currentTerm := 0
	for currentTerm < numTerms {
		currentPositions := lists[currentTerm]
		nextTerm := currentTerm + 1
		duplicateCount := 0
		for nextTerm < numTerms && lists[nextTerm][0] == currentPositions[0] {
			duplicateCount++
			nextTerm++
		}
		if duplicateCount > 0 {
			step := duplicateCount + 1
			for i := 0; i < step; i++ {
				var strided []int
				for j := i; j < len(currentPositions); j += step {
					strided = append(strided, currentPositions[j])
				}
				distributed = append(distributed, strided)
			}
		} else {
			distributed = append(distributed, currentPositions)
		}
		currentTerm = nextTerm
	}
	lists = distributed

	var starts []int
	for allNonEmpty(lists) {
		sort.Slice(lists, func(i, j int) bool { return lists[i][0] < lists[j][0] })
		windowStart := lists[0][0]
		lists[0] = lists[0][1:]

		prev := windowStart
		closed := true
		for _, l := range lists[1:] {
			if prev < l[0] && l[0]-windowStart < windowSize {
				prev = l[0]
				continue
			}
			closed = false
			break
		}
		if closed {
			starts = append(starts, windowStart)
		}
	}
	return starts
}

func allNonEmpty(lists [][]int) bool {
	for _, l := range lists {
		if len(l) == 0 {
			return false
		}
	}
	return true
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.5 BooleanAndNode
// ═══════════════════════════════════════════════════════════════════════════════

// NewBooleanAndNode is an UnorderedWindowNode with an unbounded window
// size (math.MaxInt): every document in which each distinct term occurs
// gets a posting. Its window starts are the heads unorderedWindowStarts
// pops while no term list is empty, so they can come from any of the terms.
func NewBooleanAndNode(index *InvertedIndex, termNodes []proximityChild) *ProximityNode {
	return newProximityNode(index, termNodes, math.MaxInt, unorderedWindowStarts)
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.6 BeliefNode family
// ═══════════════════════════════════════════════════════════════════════════════

// BeliefNode is the shared iteration state for every belief operator:
// has_more is true while any child has more, next_candidate returns the
// child with the smallest next doc_id, and skip_to forwards to every
// child. Scoring is left to each concrete variant.
type BeliefNode struct {
	termNodes []QueryNode
}

func (b *BeliefNode) HasMore() bool {
	for _, t := range b.termNodes {
		if t.HasMore() {
			return true
		}
	}
	return false
}

func (b *BeliefNode) NextCandidate() Posting {
	var candidate Posting
	found := false
	minDocID := math.MaxInt
	for _, t := range b.termNodes {
		if !t.HasMore() {
			continue
		}
		c := t.NextCandidate()
		if c.DocID < minDocID {
			minDocID = c.DocID
			candidate = c
			found = true
		}
	}
	if !found {
		return exhaustedPosting()
	}
	return candidate
}

func (b *BeliefNode) SkipTo(docID int) {
	for _, t := range b.termNodes {
		t.SkipTo(docID)
	}
}

// NotNode: log(1 - exp(child.score)).
type NotNode struct{ BeliefNode }

func NewNotNode(child QueryNode) *NotNode {
	return &NotNode{BeliefNode{termNodes: []QueryNode{child}}}
}

func (n *NotNode) Score(docID int) float64 {
	probability := math.Exp(n.termNodes[0].Score(docID))
	return math.Log(1 - probability)
}

// OrNode: log(1 - exp(sum_i log(1 - exp(child_i.score)))).
type OrNode struct{ BeliefNode }

func NewOrNode(children []QueryNode) *OrNode {
	return &OrNode{BeliefNode{termNodes: children}}
}

func (n *OrNode) Score(docID int) float64 {
	total := 0.0
	for _, t := range n.termNodes {
		total += math.Log(1 - math.Exp(t.Score(docID)))
	}
	return math.Log(1 - math.Exp(total))
}

// WeightedAndNode: sum_i w_i * child_i.score.
type WeightedAndNode struct {
	BeliefNode
	weights []float64
}

func NewWeightedAndNode(children []QueryNode, weights []float64) *WeightedAndNode {
	return &WeightedAndNode{BeliefNode{termNodes: children}, weights}
}

func (n *WeightedAndNode) Score(docID int) float64 {
	total := 0.0
	for i, t := range n.termNodes {
		total += n.weights[i] * t.Score(docID)
	}
	return total
}

// NewAndNode is WeightedAndNode with every weight 1.
func NewAndNode(children []QueryNode) *WeightedAndNode {
	return NewWeightedAndNode(children, unitWeights(len(children)))
}

// WeightedSumNode: log((sum_i w_i * exp(child_i.score)) / sum_i w_i).
type WeightedSumNode struct {
	BeliefNode
	weights []float64
}

func NewWeightedSumNode(children []QueryNode, weights []float64) *WeightedSumNode {
	return &WeightedSumNode{BeliefNode{termNodes: children}, weights}
}

func (n *WeightedSumNode) Score(docID int) float64 {
	totalProbability, totalWeight := 0.0, 0.0
	for i, t := range n.termNodes {
		w := n.weights[i]
		totalProbability += w * math.Exp(t.Score(docID))
		totalWeight += w
	}
	return math.Log(totalProbability / totalWeight)
}

// NewSumNode is WeightedSumNode with every weight 1.
func NewSumNode(children []QueryNode) *WeightedSumNode {
	return NewWeightedSumNode(children, unitWeights(len(children)))
}

// MaxNode: max_i child_i.score.
type MaxNode struct{ BeliefNode }

func NewMaxNode(children []QueryNode) *MaxNode {
	return &MaxNode{BeliefNode{termNodes: children}}
}

func (n *MaxNode) Score(docID int) float64 {
	best := math.Inf(-1)
	for _, t := range n.termNodes {
		if s := t.Score(docID); s > best {
			best = s
		}
	}
	return best
}

func unitWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// ═══════════════════════════════════════════════════════════════════════════════
// 4.7.7 FilterNode family
// ═══════════════════════════════════════════════════════════════════════════════

// FilterRequire composes a scoring node with a proximity-iterator
// predicate: a document only scores if the proximity node also lands on
// it, otherwise it scores 0.
type FilterRequire struct {
	queryNode QueryNode
	proximity QueryNode
}

// NewFilterRequire builds a FilterRequire over queryNode (scored) and
// proximity (required to also match).
func NewFilterRequire(queryNode, proximity QueryNode) *FilterRequire {
	return &FilterRequire{queryNode: queryNode, proximity: proximity}
}

func (f *FilterRequire) HasMore() bool {
	return f.queryNode.HasMore() && f.proximity.HasMore()
}

func (f *FilterRequire) NextCandidate() Posting {
	a, b := f.queryNode.NextCandidate(), f.proximity.NextCandidate()
	if a.DocID > b.DocID {
		return a
	}
	return b
}

func (f *FilterRequire) SkipTo(docID int) {
	f.queryNode.SkipTo(docID)
	f.proximity.SkipTo(docID)
}

func (f *FilterRequire) Score(docID int) float64 {
	f.proximity.SkipTo(docID)
	if f.proximity.NextCandidate().DocID == docID {
		return f.queryNode.Score(docID)
	}
	return 0
}

// FilterReject mirrors queryNode's iteration and zeroes out any document
// the proximity node matches.
type FilterReject struct {
	queryNode QueryNode
	proximity QueryNode
}

// NewFilterReject builds a FilterReject over queryNode (scored) and
// proximity (excluded when matched).
func NewFilterReject(queryNode, proximity QueryNode) *FilterReject {
	return &FilterReject{queryNode: queryNode, proximity: proximity}
}

func (f *FilterReject) HasMore() bool {
	return f.queryNode.HasMore()
}

func (f *FilterReject) NextCandidate() Posting {
	return f.queryNode.NextCandidate()
}

func (f *FilterReject) SkipTo(docID int) {
	f.queryNode.SkipTo(docID)
	f.proximity.SkipTo(docID)
}

func (f *FilterReject) Score(docID int) float64 {
	f.proximity.SkipTo(docID)
	if f.proximity.NextCandidate().DocID == docID {
		return 0
	}
	return f.queryNode.Score(docID)
}
