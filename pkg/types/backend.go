package types

import (
	"context"
	"iter"
)

// Backend reads and mutates one on-disk store format. Implementations must
// never write to a location that is not named by the Source they are given.
type Backend interface {
	// Kind returns the source kind this backend produces.
	Kind() SourceKind

	// Scan lazily yields the raw entries found for the profile. Errors are
	// yielded as *SourceError: one wrapping ErrMalformedEntry reports a
	// single skipped entry, any other names a store location that could not
	// be read at all. Scanning continues past both. A missing store yields
	// nothing.
	Scan(ctx context.Context, profile Profile) iter.Seq2[RawEntry, error]

	// Writable reports whether Insert can create entries for the profile.
	Writable(profile Profile) bool

	// Insert creates a native entry for path and returns its Source.
	// Returns ErrUnsupported when the format cannot be extended.
	Insert(ctx context.Context, profile Profile, path string) (Source, error)

	// Relabel sets the label on the entry at src. It returns false when the
	// format has no label field, in which case nothing is written.
	Relabel(ctx context.Context, src Source, label string) (bool, error)

	// Remove deletes the entry at src. An entry that is already gone is not
	// an error.
	Remove(ctx context.Context, src Source) error
}
