package ferret

import (
	"math/rand"
	"time"
)

// MaxHeight bounds a tower's height, same constant the teacher's skip
// list used (supports billions of elements at negligible extra memory
// per node).
const MaxHeight = 32

// Position identifies one token occurrence: which document, and which
// offset within it. Adapted from the teacher's skiplist.go Position,
// which used float64 fields so BOF/EOF could be represented as ±Inf;
// spec.md §3's positions are always concrete non-negative ints and
// QueryNode already has its own exhausted-stream sentinel (a doc_id==-1
// Posting, see posting.go), so PositionSkipList drops the float sentinel
// scheme entirely in favor of explicit (Position, bool) returns - see
// DESIGN.md for why the skip list is repurposed rather than dropped.
type Position struct {
	DocID  int
	Offset int
}

// Less reports whether p sorts before other: by DocID first, then Offset.
func (p Position) Less(other Position) bool {
	if p.DocID != other.DocID {
		return p.DocID < other.DocID
	}
	return p.Offset < other.Offset
}

// Equal reports whether p and other identify the same occurrence.
func (p Position) Equal(other Position) bool {
	return p.DocID == other.DocID && p.Offset == other.Offset
}

// node is one skip list entry: a key plus one forward pointer per tower
// level, exactly the teacher's Node shape with Position's type changed.
type node struct {
	key   Position
	tower [MaxHeight]*node
}

// PositionSkipList is an ordered skip list over Position, used to answer
// the phrase/cover queries in freetext.go (spec.md SUPPLEMENT §4.12). One
// list holds every occurrence of a single term across the whole
// collection, built lazily from that term's already-decoded InvertedList.
type PositionSkipList struct {
	head   *node
	height int
}

// NewPositionSkipList returns an empty skip list.
func NewPositionSkipList() *PositionSkipList {
	return &PositionSkipList{head: &node{}, height: 1}
}

// search walks from the top level down, returning the node with an exact
// key match (nil if none) and the per-level predecessor journey - same
// two-phase algorithm as the teacher's Search.
func (sl *PositionSkipList) search(key Position) (*node, [MaxHeight]*node) {
	var journey [MaxHeight]*node
	current := sl.head

	for level := sl.height - 1; level >= 0; level-- {
		for next := current.tower[level]; next != nil && next.key.Less(key); next = current.tower[level] {
			current = next
		}
		journey[level] = current
	}

	next := current.tower[0]
	if next != nil && next.key.Equal(key) {
		return next, journey
	}
	return nil, journey
}

// Insert adds key to the skip list, or is a no-op if it's already present
// (positions are unique by construction - one entry per token occurrence).
func (sl *PositionSkipList) Insert(key Position) {
	found, journey := sl.search(key)
	if found != nil {
		return
	}

	height := randomHeight()
	n := &node{key: key}
	for level := 0; level < height; level++ {
		pred := journey[level]
		if pred == nil {
			pred = sl.head
		}
		n.tower[level] = pred.tower[level]
		pred.tower[level] = n
	}
	if height > sl.height {
		sl.height = height
	}
}

// Find reports whether key is present.
func (sl *PositionSkipList) Find(key Position) bool {
	found, _ := sl.search(key)
	return found != nil
}

// FindGreaterThan returns the smallest stored key strictly greater than
// key, and false if none exists - the teacher's FindGreaterThan with the
// EOF sentinel replaced by an ok bool.
func (sl *PositionSkipList) FindGreaterThan(key Position) (Position, bool) {
	found, journey := sl.search(key)

	if found != nil {
		if found.tower[0] != nil {
			return found.tower[0].key, true
		}
		return Position{}, false
	}

	pred := journey[0]
	if pred != nil && pred.tower[0] != nil {
		return pred.tower[0].key, true
	}
	return Position{}, false
}

// FindLessThan returns the largest stored key strictly less than key, and
// false if none exists - the teacher's FindLessThan with the BOF sentinel
// replaced by an ok bool.
func (sl *PositionSkipList) FindLessThan(key Position) (Position, bool) {
	_, journey := sl.search(key)

	pred := journey[0]
	if pred == nil || pred == sl.head {
		return Position{}, false
	}
	return pred.key, true
}

// randomHeight draws a geometric tower height via repeated coin flips,
// exactly the teacher's randomHeight.
func randomHeight() int {
	height := 1
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for rng.Float64() < 0.5 && height < MaxHeight {
		height++
	}
	return height
}
