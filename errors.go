package ferret

import "errors"

// Sentinel errors, defined as package-level variables so callers can
// compare with errors.Is.
var (
	// ErrCorpusUnreadable means the corpus JSON file could not be opened
	// or parsed. The build is aborted; this is unrecoverable.
	ErrCorpusUnreadable = errors.New("ferret: corpus file is unreadable")

	// ErrArtifactMissing means one of the five on-disk index artifacts
	// was not found. Load catches it and falls back to a full rebuild.
	ErrArtifactMissing = errors.New("ferret: index artifact missing")

	// ErrCorruptPostingList means a decoded posting list's byte length
	// did not match its lookup-table size, or decoding ran past the end
	// of the buffer. Fatal; never silently truncated.
	ErrCorruptPostingList = errors.New("ferret: corrupt posting list")

	// ErrUnknownTerm means a term has no lookup-table entry. Query
	// drivers catch this internally and drop the term; it should not
	// reach a caller.
	ErrUnknownTerm = errors.New("ferret: unknown term")

	// ErrDocIDOutOfRange is a fatal programmer error: the caller asked
	// for metadata about a document that was never indexed.
	ErrDocIDOutOfRange = errors.New("ferret: doc id out of range")
)
