package ferret

// Posting is a (doc_id, positions) record for one term in one document.
// Positions are strictly increasing and only ever appended to during
// index construction; once the index is frozen a Posting is read-only.
type Posting struct {
	DocID     int
	Positions []int
}

// NewPosting returns a Posting for docID with no positions recorded yet.
func NewPosting(docID int) Posting {
	return Posting{DocID: docID}
}

// DTF is the document term frequency: the number of occurrences of the
// term within this one document.
func (p *Posting) DTF() int {
	return len(p.Positions)
}

// AddPosition appends one occurrence. Positions must be supplied in
// ascending order by the caller (ordinary left-to-right token scan).
func (p *Posting) AddPosition(position int) {
	p.Positions = append(p.Positions, position)
}

// sentinelDocID marks an exhausted QueryNode stream (spec.md §4.7:
// next_candidate returns a Posting with doc_id = -1 once a node has no
// more candidates).
const sentinelDocID = -1

// exhaustedPosting is the QueryNode sentinel returned by next_candidate
// once a node's stream is spent.
func exhaustedPosting() Posting {
	return Posting{DocID: sentinelDocID}
}

// InvertedList is the ordered sequence of Postings for one term, sorted
// strictly ascending by DocID with no duplicate doc_ids.
type InvertedList struct {
	Postings []Posting
}

// AddPosting appends a position to the tail posting if it shares docID,
// otherwise starts a new posting. This is the InvertedList-level half of
// the InvertedIndex facade's update_map contract (spec.md §4.3): the tail
// check keeps the ascending-doc_id invariant without a linear scan.
func (l *InvertedList) AddPosting(docID, position int) {
	if n := len(l.Postings); n > 0 && l.Postings[n-1].DocID == docID {
		l.Postings[n-1].AddPosition(position)
		return
	}
	p := NewPosting(docID)
	p.AddPosition(position)
	l.Postings = append(l.Postings, p)
}

// AddPostingWithPositions appends a full synthetic posting in one shot.
// Used by ProximityNode to materialize window-start positions as a
// regular InvertedList (spec.md §4.7.2).
func (l *InvertedList) AddPostingWithPositions(docID int, positions []int) {
	l.Postings = append(l.Postings, Posting{DocID: docID, Positions: positions})
}

// DF is the document frequency: the number of postings in the list.
func (l *InvertedList) DF() int {
	return len(l.Postings)
}

// CTF is the collection term frequency: the sum of dtf over every
// posting in the list.
func (l *InvertedList) CTF() int {
	total := 0
	for i := range l.Postings {
		total += l.Postings[i].DTF()
	}
	return total
}
