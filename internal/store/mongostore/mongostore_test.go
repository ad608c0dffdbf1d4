package mongostore

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/moodreel/internal/store"
)

// Needs a reachable MongoDB; set MONGO_TEST_URI to run.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	st, err := Open(ctx, uri, "moodreel_test", "counters_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.collection.Drop(context.Background())
		st.Close()
	})
	return st
}

func TestStore_Counters(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, err := st.FindByTerm(ctx, "batman")
	assert.ErrorIs(t, err, store.ErrNotFound)

	c := &store.Counter{SearchTerm: "batman", Count: 3, MovieID: 268, Title: "Batman"}
	require.NoError(t, st.Create(ctx, c))

	got, err := st.Increment(ctx, store.Counter{SearchTerm: "batman", MovieID: 1, Title: "Other"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, int64(4), got.Count)
	assert.Equal(t, "Batman", got.Title)

	fresh, err := st.Increment(ctx, store.Counter{SearchTerm: "dune", MovieID: 438631, Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Count)
	assert.Equal(t, "Dune", fresh.Title)
	assert.NotEmpty(t, fresh.ID)

	require.NoError(t, st.Create(ctx, &store.Counter{SearchTerm: "alien", Count: 9}))
	top, err := st.Top(ctx, 6)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "alien", top[0].SearchTerm)
}

func TestStore_IncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	const hits = 20
	var wg sync.WaitGroup
	for range hits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Increment(ctx, store.Counter{SearchTerm: "batman", MovieID: 268, Title: "Batman"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := st.FindByTerm(ctx, "batman")
	require.NoError(t, err)
	assert.Equal(t, int64(hits), got.Count)
}
