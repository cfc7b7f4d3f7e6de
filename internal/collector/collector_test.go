package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzletrack/internal/discord"
	"github.com/robalobadob/puzzletrack/internal/parse"
	"github.com/robalobadob/puzzletrack/internal/store"
)

// fakeDiscord serves one page of share messages and then an empty page.
func fakeDiscord(t *testing.T, contents []string) *httptest.Server {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "" {
			fmt.Fprint(w, "[]")
			return
		}
		fmt.Fprint(w, "[")
		for i, c := range contents {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			ts := base.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339)
			fmt.Fprintf(w, `{"id":"%d","content":%q,"author":{"username":"alice"},"timestamp":%q}`, i+1, c, ts)
		}
		fmt.Fprint(w, "]")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCollectStoresEveryMessage(t *testing.T) {
	srv := fakeDiscord(t, []string{
		"Wordle 1234 3/6",
		"gg all",
		"Wordle 1233", // malformed but still one record
	})

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	st := store.New(db)

	c := New(discord.NewClient("tok", discord.WithBaseURL(srv.URL)), st, "42")
	stats, err := c.Collect(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, stats.Fetched)
	require.Equal(t, 3, stats.Inserted)
	require.NotEmpty(t, stats.RunID)

	rows, err := st.Query(context.Background(), "", "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, parse.GameWordle, rows[0].Game)
	require.Equal(t, parse.GameMalformed, rows[2].Game)
}

func TestUpdateSkipsKnownMessages(t *testing.T) {
	srv := fakeDiscord(t, []string{"Wordle 1234 3/6", "Wordle 1233 4/6"})

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	st := store.New(db)

	c := New(discord.NewClient("tok", discord.WithBaseURL(srv.URL)), st, "42")

	stats, err := c.Update(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Inserted)

	// Same channel content again: overlap fully deduped.
	stats, err = c.Update(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Fetched)
	require.Equal(t, 0, stats.Inserted)
}
