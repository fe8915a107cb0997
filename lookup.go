package ferret

import "sort"

// LookupEntry is the term-indexed directory record: collection term
// frequency, document frequency, and where the encoded InvertedList lives
// in the inverted_lists file (spec.md §3).
type LookupEntry struct {
	CTF    int   `json:"ctf"`
	DF     int   `json:"df"`
	Offset int64 `json:"posting_list_position"`
	Size   int64 `json:"posting_list_size"`
}

// LookupTable maps a term to its LookupEntry.
type LookupTable map[string]*LookupEntry

// AddOrUpdate increments ctf by one (one token occurrence) and sets df,
// creating the entry if this is the term's first occurrence. Mirrors
// InvertedIndex.add_to_lookup_table in original_source/src/InvertedIndex.py.
func (t LookupTable) AddOrUpdate(term string, df int) {
	entry, ok := t[term]
	if !ok {
		t[term] = &LookupEntry{CTF: 1, DF: df}
		return
	}
	entry.CTF++
	entry.DF = df
}

// SetPostingListLocation records where a term's encoded InvertedList was
// written. Persist calls it right after each list's write, so the lookup
// table is complete only once the whole binary file has been written.
func (t LookupTable) SetPostingListLocation(term string, offset, size int64) {
	t[term].Offset = offset
	t[term].Size = size
}

// Vocabulary returns the sorted ascending list of terms present in the
// table (spec.md §3: "derived, not persisted separately").
func (t LookupTable) Vocabulary() []string {
	vocab := make([]string, 0, len(t))
	for term := range t {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	return vocab
}
