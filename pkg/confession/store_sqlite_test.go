package confession

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "confessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertTestRecord(t *testing.T, store *SQLiteStore, name, tags string) *Record {
	t.Helper()
	code, err := NewDeletionCode()
	require.NoError(t, err)
	rec := &Record{
		Confession: Confession{
			Name:     name,
			Tags:     NormalizeTags(tags),
			AudioKey: NewAudioKey(),
		},
		DeletionCode: code,
	}
	require.NoError(t, store.Insert(context.Background(), rec))
	return rec
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	_, err := OpenSQLiteStore("  ")
	require.Error(t, err)
}

func TestSQLiteStore_Insert(t *testing.T) {
	store := newTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	rec := insertTestRecord(t, store, "Test", "Work, Stress")

	assert.Positive(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.True(t, rec.CreatedAt.After(before))

	found, err := store.ByDeletionCode(context.Background(), rec.DeletionCode)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
	assert.Equal(t, "Test", found.Name)
	assert.Equal(t, []string{"work", "stress"}, found.Tags)
	assert.Equal(t, rec.AudioKey, found.AudioKey)
}

func TestSQLiteStore_InsertDuplicateCode(t *testing.T) {
	store := newTestStore(t)

	rec := insertTestRecord(t, store, "first", "")
	dup := &Record{
		Confession: Confession{
			Name:     "second",
			Tags:     []string{},
			AudioKey: NewAudioKey(),
		},
		DeletionCode: rec.DeletionCode,
	}
	err := store.Insert(context.Background(), dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deletion code collision")
}

func TestSQLiteStore_ByDeletionCode_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ByDeletionCode(context.Background(), "no-such-code")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_DeleteByID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := insertTestRecord(t, store, "to delete", "")

	require.NoError(t, store.DeleteByID(ctx, rec.ID))

	// consume-once: the record is gone for good
	require.ErrorIs(t, store.DeleteByID(ctx, rec.ID), ErrNotFound)
	_, err := store.ByDeletionCode(ctx, rec.DeletionCode)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_List(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 25; i++ {
		insertTestRecord(t, store, "confession", "")
	}

	page1, err := store.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)

	page2, err := store.List(ctx, 10, 10)
	require.NoError(t, err)
	require.Len(t, page2, 10)

	// pages are disjoint and their concatenation is newest first
	seen := map[int64]struct{}{}
	both := append(append([]Confession{}, page1...), page2...)
	for i, c := range both {
		_, dup := seen[c.ID]
		require.False(t, dup, "id %d returned twice", c.ID)
		seen[c.ID] = struct{}{}
		if i > 0 {
			prev := both[i-1]
			require.False(t, c.CreatedAt.After(prev.CreatedAt), "created_at order violated at %d", i)
		}
	}

	// short page signals the end of results
	page3, err := store.List(ctx, 20, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)
}

func TestSQLiteStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	insertTestRecord(t, store, "Midnight Snack", "")
	insertTestRecord(t, store, "midnight walk", "")
	insertTestRecord(t, store, "Morning Person", "")

	results, err := store.Search(ctx, "MIDNIGHT")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.Search(ctx, "night s")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Midnight Snack", results[0].Name)

	results, err = store.Search(ctx, "nobody said this")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteStore_SearchEscapesLikeMetacharacters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	insertTestRecord(t, store, "100% true story", "")
	insertTestRecord(t, store, "1000 times", "")

	// a literal '%' must not act as a wildcard
	results, err := store.Search(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% true story", results[0].Name)

	// nor a literal '_'
	results, err = store.Search(ctx, "10_")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteStore_IncrementPlays(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := insertTestRecord(t, store, "played", "")

	require.NoError(t, store.IncrementPlays(ctx, rec.ID))
	require.NoError(t, store.IncrementPlays(ctx, rec.ID))

	found, err := store.ByDeletionCode(ctx, rec.DeletionCode)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.DailyPlays)
	assert.Equal(t, int64(2), found.Plays)
}

func TestSQLiteStore_IncrementPlays_NotFound(t *testing.T) {
	store := newTestStore(t)
	require.ErrorIs(t, store.IncrementPlays(context.Background(), 12345), ErrNotFound)
}

// The increment is a single store-side statement, so N concurrent plays must
// advance the counter by exactly N.
func TestSQLiteStore_IncrementPlays_Concurrent(t *testing.T) {
	const n = 25

	ctx := context.Background()
	store := newTestStore(t)
	rec := insertTestRecord(t, store, "viral", "")

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return store.IncrementPlays(ctx, rec.ID)
		})
	}
	require.NoError(t, g.Wait())

	found, err := store.ByDeletionCode(ctx, rec.DeletionCode)
	require.NoError(t, err)
	assert.Equal(t, int64(n), found.DailyPlays)
	assert.Equal(t, int64(n), found.Plays)
}

func TestSQLiteStore_Popular(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	quiet := insertTestRecord(t, store, "quiet", "")
	loud := insertTestRecord(t, store, "loud", "")
	for i := 0; i < 5; i++ {
		require.NoError(t, store.IncrementPlays(ctx, loud.ID))
	}
	require.NoError(t, store.IncrementPlays(ctx, quiet.ID))

	popular, err := store.Popular(ctx, 10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "loud", popular[0].Name)
	assert.Equal(t, int64(5), popular[0].DailyPlays)
	assert.Equal(t, "quiet", popular[1].Name)

	top1, err := store.Popular(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top1, 1)
	assert.Equal(t, "loud", top1[0].Name)
}
