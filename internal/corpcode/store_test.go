package corpcode

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/home/u/.cache/opendart/corp-codes.json", "/srv/data/corp-codes.json")

	path, err := store.Save(acmeDirectory())
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.cache/opendart/corp-codes.json", path)

	got, from, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, path, from)
	assert.Equal(t, acmeDirectory(), got)

	entries, err := afero.ReadDir(fs, "/home/u/.cache/opendart")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file left behind")
}

func TestStoreFileFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/c.json")
	_, err := store.Save(acmeDirectory())
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, "/c.json")
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `{"Acme":"00000001"}`, string(doc["byName"]))
	assert.JSONEq(t, `{"000001":"00000001"}`, string(doc["byStockCode"]))
	assert.JSONEq(t, `{"00000001":{"name":"Acme","stockCode":"000001"}}`, string(doc["byCorpCode"]))
}

func TestStoreLookupOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/cache/corp-codes.json", "", "/data/corp-codes.json")
	assert.Equal(t, []string{"/cache/corp-codes.json", "/data/corp-codes.json"}, store.Paths())

	_, ok := store.Locate()
	assert.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, "/data/corp-codes.json", []byte(`{"byName":{},"byCorpCode":{}}`), 0o644))
	p, ok := store.Locate()
	require.True(t, ok)
	assert.Equal(t, "/data/corp-codes.json", p)

	dir, _, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, dir.ByStockCode)

	require.NoError(t, afero.WriteFile(fs, "/cache/corp-codes.json", []byte(`{"byName":{},"byCorpCode":{}}`), 0o644))
	p, ok = store.Locate()
	require.True(t, ok)
	assert.Equal(t, "/cache/corp-codes.json", p)
}

func TestStoreLoadRejectsBadFiles(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "{",
		"missing index": `{"byName":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/c.json", []byte(body), 0o644))
			_, _, err := NewStore(fs, "/c.json").Load()
			var ue *UnavailableError
			require.ErrorAs(t, err, &ue)
			assert.NotNil(t, ue.Err)
		})
	}
}

func TestStoreSaveWithoutPath(t *testing.T) {
	_, err := NewStore(afero.NewMemMapFs()).Save(acmeDirectory())
	assert.Error(t, err)
}

func TestDefaultPaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultCachePath(), filepath.Join("opendart", "corp-codes.json")))
	assert.Equal(t, filepath.Join("data", "corp-codes.json"), DefaultDataPath())
}
