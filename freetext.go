package ferret

import (
	"sort"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// FREE-TEXT PHRASE & PROXIMITY SEARCH (SUPPLEMENT, spec.md §4.12)
// ═══════════════════════════════════════════════════════════════════════════════
// QueryNode's OrderedWindowNode/BooleanAndNode already subsume phrase and
// cover search structurally, but never expose it as a standalone,
// caller-facing mode the way the teacher's skiplist.go + search.go did.
// This file keeps that surface alive, ported onto PositionSkipList
// (skiplist.go) instead of the teacher's always-resident map: the same
// walk-forward-then-backward algorithms, same 1/(span+1) proximity
// scoring, built lazily per term from the index's own decoded postings.
// ═══════════════════════════════════════════════════════════════════════════════

// positionList returns (building and caching if necessary) the
// PositionSkipList for term, flattening its InvertedList's
// (docID, []offset) postings into one ordered (docID, offset) stream.
func (idx *InvertedIndex) positionList(term string) (*PositionSkipList, error) {
	if sl, ok := idx.positionLists[term]; ok {
		return sl, nil
	}

	list, err := idx.GetInvertedList(term)
	if err != nil {
		return nil, err
	}

	sl := NewPositionSkipList()
	for _, posting := range list.Postings {
		for _, offset := range posting.Positions {
			sl.Insert(Position{DocID: posting.DocID, Offset: offset})
		}
	}
	idx.positionLists[term] = sl
	return sl, nil
}

// next returns the smallest occurrence of term strictly after after, or
// false if term doesn't occur again.
func (idx *InvertedIndex) next(term string, after Position) (Position, bool) {
	sl, err := idx.positionList(term)
	if err != nil {
		return Position{}, false
	}
	return sl.FindGreaterThan(after)
}

// previous returns the largest occurrence of term strictly before
// before, or false if term has no earlier occurrence.
func (idx *InvertedIndex) previous(term string, before Position) (Position, bool) {
	sl, err := idx.positionList(term)
	if err != nil {
		return Position{}, false
	}
	return sl.FindLessThan(before)
}

// beginningOfIndex is a Position before any real occurrence (doc_ids are
// always >= 0), used as the search floor for the first NextPhrase/
// NextCover call.
var beginningOfIndex = Position{DocID: -1, Offset: -1}

// NextPhrase finds the next occurrence of the space-separated phrase in
// queryString whose first term lies strictly after start, walking forward to a candidate end and
// then backward to validate consecutiveness - ported from the teacher's
// search.go NextPhrase/findPhraseEnd/findPhraseStart/isValidPhrase.
func (idx *InvertedIndex) NextPhrase(queryString string, start Position) (Position, Position, bool) {
	terms := strings.Fields(queryString)
	if len(terms) == 0 {
		return Position{}, Position{}, false
	}

	end, ok := idx.findPhraseEnd(terms, start)
	if !ok {
		return Position{}, Position{}, false
	}

	phraseStart := idx.findPhraseStart(terms, end)
	if isConsecutivePhrase(phraseStart, end, len(terms)) {
		return phraseStart, end, true
	}
	return idx.NextPhrase(queryString, phraseStart)
}

func (idx *InvertedIndex) findPhraseEnd(terms []string, start Position) (Position, bool) {
	current := start
	for _, term := range terms {
		next, ok := idx.next(term, current)
		if !ok {
			return Position{}, false
		}
		current = next
	}
	return current, true
}

func (idx *InvertedIndex) findPhraseStart(terms []string, end Position) Position {
	current := end
	for i := len(terms) - 2; i >= 0; i-- {
		prev, ok := idx.previous(terms[i], current)
		if !ok {
			return current
		}
		current = prev
	}
	return current
}

func isConsecutivePhrase(start, end Position, termCount int) bool {
	return start.DocID == end.DocID && end.Offset-start.Offset == termCount-1
}

// FindAllPhrases returns every occurrence of queryString in the index, as
// [start, end] Position pairs, scanning forward from the beginning via
// repeated NextPhrase calls.
func (idx *InvertedIndex) FindAllPhrases(queryString string) [][2]Position {
	var matches [][2]Position
	cursor := beginningOfIndex

	for {
		start, end, ok := idx.NextPhrase(queryString, cursor)
		if !ok {
			return matches
		}
		matches = append(matches, [2]Position{start, end})
		cursor = start
	}
}

// NextCover finds the next minimal span strictly after start that contains
// an occurrence of every token, regardless of order - ported from the
// teacher's search.go NextCover/findCoverEnd/findCoverStart.
func (idx *InvertedIndex) NextCover(tokens []string, start Position) (Position, Position, bool) {
	end, ok := idx.findCoverEnd(tokens, start)
	if !ok {
		return Position{}, Position{}, false
	}

	coverStart := idx.findCoverStart(tokens, end)
	if coverStart.DocID == end.DocID {
		return coverStart, end, true
	}
	return idx.NextCover(tokens, coverStart)
}

func (idx *InvertedIndex) findCoverEnd(tokens []string, start Position) (Position, bool) {
	maxPos := start
	set := false
	for _, token := range tokens {
		pos, ok := idx.next(token, start)
		if !ok {
			return Position{}, false
		}
		if !set || maxPos.Less(pos) {
			maxPos = pos
			set = true
		}
	}
	return maxPos, true
}

func (idx *InvertedIndex) findCoverStart(tokens []string, end Position) Position {
	searchBound := Position{DocID: end.DocID, Offset: end.Offset + 1}

	var minPos Position
	set := false
	for _, token := range tokens {
		pos, ok := idx.previous(token, searchBound)
		if !ok {
			continue
		}
		if !set || pos.Less(minPos) {
			minPos = pos
			set = true
		}
	}
	return minPos
}

// ProximityMatch is one document's accumulated cover score, returned by
// RankProximity.
type ProximityMatch struct {
	DocID int
	Score float64
}

// RankProximity scores every document containing all of queryString's
// tokens by summing 1/(span+1) over every cover found in it - closer
// occurrences score higher - and returns the top maxResults descending by
// score. Ported from the teacher's search.go RankProximity/
// collectProximityMatches.
func (idx *InvertedIndex) RankProximity(queryString string, maxResults int) []ProximityMatch {
	tokens := strings.Fields(queryString)
	if len(tokens) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	order := make([]int, 0)

	cursor := beginningOfIndex
	for {
		start, end, ok := idx.NextCover(tokens, cursor)
		if !ok {
			break
		}
		if _, seen := scores[start.DocID]; !seen {
			order = append(order, start.DocID)
		}
		span := float64(end.Offset - start.Offset + 1)
		scores[start.DocID] += 1 / span
		cursor = start
	}

	results := make([]ProximityMatch, 0, len(order))
	for _, docID := range order {
		results = append(results, ProximityMatch{DocID: docID, Score: scores[docID]})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}
