package classify

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	win, err := Classify(`C:\Users\X\Proj`)
	require.NoError(t, err)
	assert.Equal(t, `C:\Users\X\Proj`, Key(win, false))
	assert.Equal(t, "c:/users/x/proj", Key(win, true))

	fileURI, err := Classify("file:///c%3A/users/x/proj/")
	require.NoError(t, err)
	assert.Equal(t, Key(win, true), Key(fileURI, true))

	remote, err := Classify("vscode-remote://ssh-remote+Box/Home")
	require.NoError(t, err)
	assert.Equal(t, "vscode-remote://ssh-remote+Box/Home", Key(remote, true), "remote keys never fold")
}

func TestID(t *testing.T) {
	a := ID("/home/u/proj")
	assert.Equal(t, a, ID("/home/u/proj"))
	assert.NotEqual(t, a, ID("/home/u/other"))

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}
