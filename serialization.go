package ferret

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INVERTEDLIST SERIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════
// Two binary encodings for one InvertedList (spec.md §4.2), selected by the
// index's Compressed flag. Both are framing-free: the decoder is handed the
// exact byte slice for one term (sliced from the inverted_lists file using
// the lookup table's offset/size) and a df count from the lookup table to
// bound its outer loop.
//
// Uncompressed: for each posting, in order -
//   i32 LE doc_id | i32 LE dtf | dtf x i32 LE position
//
// Compressed: flatten the whole list to one integer stream -
//   [Δdoc_id, dtf, Δpos_0, Δpos_1, ...] per posting, doc_id deltas running
//   across the whole list (initial previous = 0), position deltas reset to
//   zero at the start of every posting (positions are per-document, not
//   cumulative across postings) - then varbyte-encode the entire stream as
//   one buffer.
// ═══════════════════════════════════════════════════════════════════════════════

// EncodeUncompressed serializes an InvertedList using the fixed-width i32 LE
// layout described above.
func EncodeUncompressed(list InvertedList) []byte {
	buf := new(bytes.Buffer)
	for _, p := range list.Postings {
		binary.Write(buf, binary.LittleEndian, int32(p.DocID))
		binary.Write(buf, binary.LittleEndian, int32(p.DTF()))
		for _, pos := range p.Positions {
			binary.Write(buf, binary.LittleEndian, int32(pos))
		}
	}
	return buf.Bytes()
}

// DecodeUncompressed is the exact inverse of EncodeUncompressed. df bounds
// the number of postings to read; dtf (read per-posting) bounds the number
// of positions that follow it.
func DecodeUncompressed(data []byte, df int) (InvertedList, error) {
	r := bytes.NewReader(data)
	list := InvertedList{Postings: make([]Posting, 0, df)}
	for i := 0; i < df; i++ {
		var docID, dtf int32
		if err := binary.Read(r, binary.LittleEndian, &docID); err != nil {
			return InvertedList{}, fmt.Errorf("%w: reading doc_id: %v", ErrCorruptPostingList, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &dtf); err != nil {
			return InvertedList{}, fmt.Errorf("%w: reading dtf: %v", ErrCorruptPostingList, err)
		}
		positions := make([]int, dtf)
		for j := int32(0); j < dtf; j++ {
			var pos int32
			if err := binary.Read(r, binary.LittleEndian, &pos); err != nil {
				return InvertedList{}, fmt.Errorf("%w: reading position: %v", ErrCorruptPostingList, err)
			}
			positions[j] = int(pos)
		}
		list.Postings = append(list.Postings, Posting{DocID: int(docID), Positions: positions})
	}
	if r.Len() != 0 {
		return InvertedList{}, fmt.Errorf("%w: %d trailing bytes after %d postings", ErrCorruptPostingList, r.Len(), df)
	}
	return list, nil
}

// EncodeCompressed flattens the list to the integer stream described above
// and varbyte-encodes it in one pass.
func EncodeCompressed(list InvertedList) []byte {
	var stream []int
	prevDocID := 0
	for _, p := range list.Postings {
		stream = append(stream, p.DocID-prevDocID)
		prevDocID = p.DocID
		stream = append(stream, p.DTF())
		stream = append(stream, DeltaEncode(p.Positions)...)
	}
	return VByteEncode(stream)
}

// DecodeCompressed is the exact inverse of EncodeCompressed. df bounds the
// number of postings to pull out of the decoded integer stream; each
// posting's own dtf sizes its position slice.
func DecodeCompressed(data []byte, df int) (InvertedList, error) {
	stream := VByteDecode(data)
	list := InvertedList{Postings: make([]Posting, 0, df)}
	idx := 0
	next := func() (int, error) {
		if idx >= len(stream) {
			return 0, fmt.Errorf("%w: stream exhausted", ErrCorruptPostingList)
		}
		v := stream[idx]
		idx++
		return v, nil
	}

	prevDocID := 0
	for i := 0; i < df; i++ {
		delta, err := next()
		if err != nil {
			return InvertedList{}, err
		}
		docID := prevDocID + delta
		prevDocID = docID

		dtf, err := next()
		if err != nil {
			return InvertedList{}, err
		}
		deltas := make([]int, dtf)
		for j := 0; j < dtf; j++ {
			d, err := next()
			if err != nil {
				return InvertedList{}, err
			}
			deltas[j] = d
		}
		list.Postings = append(list.Postings, Posting{DocID: docID, Positions: DeltaDecode(deltas)})
	}
	if idx != len(stream) {
		return InvertedList{}, fmt.Errorf("%w: %d trailing integers after %d postings", ErrCorruptPostingList, len(stream)-idx, df)
	}
	return list, nil
}

// Encode dispatches to the compressed or uncompressed encoding per the
// index's configured mode.
func Encode(list InvertedList, compressed bool) []byte {
	if compressed {
		return EncodeCompressed(list)
	}
	return EncodeUncompressed(list)
}

// Decode dispatches to the compressed or uncompressed decoding per the
// index's configured mode.
func Decode(data []byte, df int, compressed bool) (InvertedList, error) {
	if compressed {
		return DecodeCompressed(data, df)
	}
	return DecodeUncompressed(data, df)
}
