package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.jsonl")
	data := `{"source_id":"n-1","source_type":"news","text_content":"US0378331005 rallied","text_title":"Apple news"}

{"source_id":"t-1","source_type":"tweet","text_content":"$AAPL to the moon"}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	items, err := readItems(path)
	require.NoError(t, err)
	require.Len(t, items, 2) // blank lines are skipped

	assert.Equal(t, "n-1", items[0].SourceID)
	assert.Equal(t, "news", items[0].SourceType)
	assert.Equal(t, "Apple news", items[0].Title)
	assert.Equal(t, "t-1", items[1].SourceID)
	assert.Empty(t, items[1].Title)
}

func TestReadItems_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	_, err := readItems(path)
	assert.ErrorContains(t, err, "line 1")
}

func TestReadItems_MissingFile(t *testing.T) {
	_, err := readItems(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
