package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheLastWithNothingRecorded(t *testing.T) {
	c := openTestCache(t)
	groupUUID, confID, err := c.Last()
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, groupUUID)
	assert.Equal(t, int64(-1), confID)
}

func TestCacheRecordAndLast(t *testing.T) {
	c := openTestCache(t)
	g := uuid.New()
	require.NoError(t, c.Record(g, 9))

	gotGroup, gotConf, err := c.Last()
	require.NoError(t, err)
	assert.Equal(t, g, gotGroup)
	assert.Equal(t, int64(9), gotConf)
}

func TestCacheRecordOverwrites(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Record(uuid.New(), 1))
	g2 := uuid.New()
	require.NoError(t, c.Record(g2, 2))

	gotGroup, gotConf, err := c.Last()
	require.NoError(t, err)
	assert.Equal(t, g2, gotGroup)
	assert.Equal(t, int64(2), gotConf)
}

func TestCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.db")

	c, err := Open(path)
	require.NoError(t, err)
	g := uuid.New()
	require.NoError(t, c.Record(g, 3))
	require.NoError(t, c.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	gotGroup, gotConf, err := reopened.Last()
	require.NoError(t, err)
	assert.Equal(t, g, gotGroup)
	assert.Equal(t, int64(3), gotConf)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}
