package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutCreatesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.Put(context.Background(), "data/spreads.json", strings.NewReader(`{"a":1}`), "application/json"))
	require.NoError(t, w.Put(context.Background(), "data/spreads.json", strings.NewReader(`{"a":2}`), "application/json"))

	got, err := os.ReadFile(filepath.Join(dir, "data", "spreads.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}
