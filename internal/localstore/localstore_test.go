package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	s, err := Open(path)
	require.NoError(t, err)

	_, ok := s.Get("equipment")
	assert.False(t, ok)

	require.NoError(t, s.Set("equipment", `[{"id":"PH-15"}]`))

	// Reopen from disk: values must survive the process.
	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("equipment")
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"PH-15"}]`, v)
}

func TestStore_JSONHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	s, err := Open(path)
	require.NoError(t, err)

	type row struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, s.SetJSON("rows", []row{{ID: "X", Name: "Retentor"}}))

	var out []row
	found, err := s.GetJSON("rows", &out)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, out, 1)
	assert.Equal(t, "X", out[0].ID)

	found, err = s.GetJSON("missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpen_MissingFileIsEmptyStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nope", "cache.json"))
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
}
