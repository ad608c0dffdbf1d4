package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "counters.db")
	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	assert.FileExists(t, path)
}

func TestStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, err := st.FindByTerm(ctx, "batman")
	assert.ErrorIs(t, err, ErrNotFound)

	c := &Counter{SearchTerm: "batman", Count: 1, MovieID: 268, Title: "Batman", PosterURL: "https://image.tmdb.org/t/p/w500//b.jpg"}
	require.NoError(t, st.Create(ctx, c))
	assert.NotEmpty(t, c.ID)
	assert.NotEmpty(t, c.CreatedAt)

	got, err := st.FindByTerm(ctx, "batman")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, int64(1), got.Count)
	assert.Equal(t, int64(268), got.MovieID)
	assert.Equal(t, "Batman", got.Title)

	_, err = st.FindByTerm(ctx, "Batman")
	assert.ErrorIs(t, err, ErrNotFound, "lookup is exact")
}

func TestStore_CreateDuplicateTermFails(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Create(ctx, &Counter{SearchTerm: "alien", Count: 1}))
	assert.Error(t, st.Create(ctx, &Counter{SearchTerm: "alien", Count: 1}))
}

func TestStore_Increment(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	got, err := st.Increment(ctx, Counter{SearchTerm: "dune", MovieID: 438631, Title: "Dune", PosterURL: "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Count)
	assert.Equal(t, "Dune", got.Title)
	assert.NotEmpty(t, got.ID)

	again, err := st.Increment(ctx, Counter{SearchTerm: "dune", MovieID: 1, Title: "Other", PosterURL: "p2"})
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.Equal(t, int64(2), again.Count)
	assert.Equal(t, "Dune", again.Title, "snapshot is kept from the first hit")
	assert.Equal(t, got.CreatedAt, again.CreatedAt)

	top, err := st.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestStore_IncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	st, err := Open(filepath.Join(t.TempDir(), "counters.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	const hits = 20
	var wg sync.WaitGroup
	for range hits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Increment(ctx, Counter{SearchTerm: "batman", MovieID: 268, Title: "Batman"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := st.FindByTerm(ctx, "batman")
	require.NoError(t, err)
	assert.Equal(t, int64(hits), got.Count)
}

func TestStore_Top(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	top, err := st.Top(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, top)

	for i := 1; i <= 8; i++ {
		require.NoError(t, st.Create(ctx, &Counter{SearchTerm: fmt.Sprintf("term-%d", i), Count: int64(i * 10 % 7)}))
	}

	top, err = st.Top(ctx, 6)
	require.NoError(t, err)
	require.Len(t, top, 6)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Count, top[i].Count)
	}

	none, err := st.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
