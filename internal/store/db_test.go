package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzletrack/internal/parse"
	"github.com/robalobadob/puzzletrack/internal/records"
)

func TestOpenMemoryPinsSingleConnection(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, 1, db.Stats().MaxOpenConnections,
		"a second pool connection to :memory: would see an empty database")
}

func TestOpenMemorySchemaSurvivesConcurrentAccess(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	st := New(db)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = st.Upsert(ctx, []records.Row{row("1", "alice", parse.GameWordle, 3, ts)})
	require.NoError(t, err)

	type result struct {
		rows []records.Row
		err  error
	}
	var wg sync.WaitGroup
	results := make(chan result, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := st.Query(ctx, "", "", 0)
			results <- result{got, err}
		}()
	}
	wg.Wait()
	close(results)
	for r := range results {
		require.NoError(t, r.err)
		require.Len(t, r.rows, 1)
	}
}
