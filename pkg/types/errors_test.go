package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialDeleteFailure(t *testing.T) {
	ok := Source{Kind: SourceManifest, Location: "/p/User/workspaceStorage/abc"}
	bad := Source{Kind: SourceStateDB, Location: "/p/User/globalStorage/state.vscdb"}

	var err error = &PartialDeleteFailure{
		Succeeded: []Source{ok},
		Failed:    []*SourceError{{Source: bad, Err: fmt.Errorf("write: %w", ErrStoreBusy)}},
	}

	assert.True(t, errors.Is(err, ErrStoreBusy))
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, err.Error(), "statedb(/p/User/globalStorage/state.vscdb)")

	var pdf *PartialDeleteFailure
	require.True(t, errors.As(fmt.Errorf("delete: %w", err), &pdf))
	assert.Equal(t, []Source{ok}, pdf.Succeeded)
}

func TestScanError(t *testing.T) {
	err := &ScanError{Failures: []*SourceError{
		{Source: Source{Kind: SourceStateDB, Location: "a"}, Err: ErrStoreCorrupt},
		{Source: Source{Kind: SourceZed, Location: "b"}, Err: ErrStoreBusy},
	}}

	assert.ErrorIs(t, err, ErrStoreCorrupt)
	assert.ErrorIs(t, err, ErrStoreBusy)
	assert.NotErrorIs(t, err, ErrNotFound)

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "a", se.Source.Location)
}
