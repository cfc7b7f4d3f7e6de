package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzletrack/internal/collector"
	"github.com/robalobadob/puzzletrack/internal/parse"
	"github.com/robalobadob/puzzletrack/internal/records"
	"github.com/robalobadob/puzzletrack/internal/store"
)

const testSecret = "test-secret"

type fakeRefresher struct {
	stats    collector.Stats
	err      error
	calls    int
	deadline time.Time
}

func (f *fakeRefresher) Update(ctx context.Context) (collector.Stats, error) {
	f.calls++
	f.deadline, _ = ctx.Deadline()
	return f.stats, f.err
}

func newTestServer(t *testing.T, refresher Refresher) (*Server, *store.Store) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	return New(st, refresher, testSecret), st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := st.Upsert(context.Background(), []records.Row{
		{
			MessageID: "1", Timestamp: ts, Date: "2024-03-01", Author: "alice",
			Game: parse.GameWordle, Score: "3/6", Value: 3, HasValue: true,
			Number: "1234", Message: "Wordle 1234 3/6",
		},
		{
			MessageID: "2", Timestamp: ts.Add(-time.Hour), Date: "2024-03-01", Author: "bob",
			Game: parse.GameOtherMessage, Message: "gg",
		},
	})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestGames(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var games []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Contains(t, games, "Wordle")
	require.Contains(t, games, "Quordle sequence")
	require.NotContains(t, games, "N/A: Other message")
}

func TestRecords(t *testing.T) {
	s, st := newTestServer(t, nil)
	seed(t, st)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records?game=Wordle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []recordRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "alice", out[0].Author)
	require.NotNil(t, out[0].Value)
	require.Equal(t, 3, *out[0].Value)
}

func TestRecordsAbsentValueOmitted(t *testing.T) {
	s, st := newTestServer(t, nil)
	seed(t, st)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records?author=bob", nil))
	var out []recordRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Nil(t, out[0].Value)
}

func TestLeaderboardRequiresGame(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboard(t *testing.T) {
	s, st := newTestServer(t, nil)
	seed(t, st)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard?game=Wordle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var lb []store.LBRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lb))
	require.Len(t, lb, 1)
	require.Equal(t, "alice", lb[0].Author)
}

func TestChartEndpoint(t *testing.T) {
	s, st := newTestServer(t, nil)
	seed(t, st)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart?game=Wordle&author=alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestRefreshRequiresToken(t *testing.T) {
	f := &fakeRefresher{}
	s, _ := newTestServer(t, f)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, f.calls)
}

func TestRefreshRejectsWrongSecret(t *testing.T) {
	f := &fakeRefresher{}
	s, _ := newTestServer(t, f)

	tok, err := SignAdminToken("other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, f.calls)
}

func TestRefreshWithToken(t *testing.T) {
	f := &fakeRefresher{stats: collector.Stats{RunID: "r1", Fetched: 5, Inserted: 2}}
	s, _ := newTestServer(t, f)

	tok, err := SignAdminToken(testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.calls)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "r1", out["runId"])
}

func TestRefreshOutlivesReadTimeout(t *testing.T) {
	f := &fakeRefresher{}
	s, _ := newTestServer(t, f)

	tok, err := SignAdminToken(testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A long channel walk must not be cut off at the read timeout.
	require.False(t, f.deadline.IsZero())
	require.Greater(t, time.Until(f.deadline), readTimeout,
		"refresh runs under its own, longer timeout")
}

func TestRefreshFailure(t *testing.T) {
	f := &fakeRefresher{err: errors.New("discord down")}
	s, _ := newTestServer(t, f)

	tok, err := SignAdminToken(testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
