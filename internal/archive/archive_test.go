package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelabs/leadgrid/internal/lead"
)

func TestFSSinkPut(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFSSink(filepath.Join(dir, "snapshots"))
	require.NoError(t, err)

	doc := lead.Document{
		URL:  "https://dir.indiamart.com/search.mp?ss=forging",
		Body: []byte("<html><body>listing</body></html>"),
	}
	path1, err := sink.Put(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, path1, "dir.indiamart.com")

	got, err := os.ReadFile(path1)
	require.NoError(t, err)
	assert.Equal(t, doc.Body, got)

	// Identical content lands on the same file.
	path2, err := sink.Put(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, path1, path2)
}

func TestFSSinkRejectsBadURL(t *testing.T) {
	t.Parallel()

	sink, err := NewFSSink(t.TempDir())
	require.NoError(t, err)

	_, err = sink.Put(context.Background(), lead.Document{URL: "not a url"})
	require.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	t.Parallel()

	sink := NewMemorySink()
	doc := lead.Document{URL: "https://www.justdial.com/Pune/Forging", Body: []byte("page")}

	name, err := sink.Put(context.Background(), doc)
	require.NoError(t, err)

	got, ok := sink.Get(name)
	require.True(t, ok)
	assert.Equal(t, []byte("page"), got)
	assert.Equal(t, 1, sink.Len())
}
