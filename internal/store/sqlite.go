// internal/store/sqlite.go
//
// SQLite-backed persistence for parsed message records.
// Responsibilities:
//   - Idempotent upsert keyed by message id (re-fetch overlap is free).
//   - Latest-timestamp watermark for incremental updates.
//   - Filtered record queries, per-game/date leaderboards, author series.
//   - Collect-run bookkeeping rows.
//
// The schema lives in sql/*.sql and is applied by the migrate step at
// startup; this package only assumes the tables exist.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/puzzletrack/internal/parse"
	"github.com/robalobadob/puzzletrack/internal/records"
)

// Store wraps a migrated *sql.DB.
type Store struct {
	db *sql.DB
}

// New wraps db. The caller owns the handle and its lifecycle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Upsert inserts rows, ignoring message ids already present.
// Returns the number of genuinely new rows.
func (s *Store) Upsert(ctx context.Context, rows []records.Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR IGNORE INTO messages
            (id, ts, date, author, game, score, score_value, game_num, content)
        VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rows {
		val := sql.NullInt64{}
		if r.HasValue {
			val = sql.NullInt64{Int64: int64(r.Value), Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			r.MessageID,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Date,
			r.Author,
			string(r.Game),
			r.Score,
			val,
			r.Number,
			r.Message,
		)
		if err != nil {
			return 0, fmt.Errorf("insert message %s: %w", r.MessageID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// LatestTimestamp returns the newest stored message time, or the zero time
// when the table is empty.
func (s *Store) LatestTimestamp(ctx context.Context) (time.Time, error) {
	var ts sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(ts) FROM messages`).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid || ts.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, ts.String)
}

// Query filters stored records. Empty game/author match everything; limit
// defaults to 100. Results come back newest-first.
func (s *Store) Query(ctx context.Context, game, author string, limit int) ([]records.Row, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, ts, date, author, game, score, score_value, game_num, content
        FROM messages
        WHERE (?='' OR game=?) AND (?='' OR author=?)
        ORDER BY ts DESC
        LIMIT ?`, game, game, author, author, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRow(rows *sql.Rows) (records.Row, error) {
	var (
		r    records.Row
		ts   string
		game string
		val  sql.NullInt64
	)
	if err := rows.Scan(&r.MessageID, &ts, &r.Date, &r.Author, &game, &r.Score, &val, &r.Number, &r.Message); err != nil {
		return records.Row{}, err
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return records.Row{}, fmt.Errorf("bad stored timestamp %q: %w", ts, err)
	}
	r.Timestamp = t
	r.Game = parse.Game(game)
	if val.Valid {
		r.Value, r.HasValue = int(val.Int64), true
	}
	return r, nil
}

// LBRow is one leaderboard entry for a game.
type LBRow struct {
	Author string  `json:"author"`
	Plays  int     `json:"plays"`
	Best   int     `json:"best"`
	Avg    float64 `json:"avg"`
}

// Leaderboard aggregates normalized scores for a game, lowest average first
// (every score shape here is better when smaller: attempts, seconds, worst
// attempt count). Rows without a numeric score don't participate.
//
// A zero value marks a failed puzzle (X/6, give-up, failed Quordle word),
// not a perfect one, so Best and Avg aggregate only positive values. Plays
// still counts every scored row, losses included; authors with nothing but
// losses have no rankable score and are left off the board.
// date narrows to one day when non-empty; limit defaults to 20.
func (s *Store) Leaderboard(ctx context.Context, game, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT author,
               COUNT(1),
               MIN(CASE WHEN score_value > 0 THEN score_value END),
               AVG(CASE WHEN score_value > 0 THEN score_value END)
        FROM messages
        WHERE game=? AND score_value IS NOT NULL AND (?='' OR date=?)
        GROUP BY author
        HAVING MAX(score_value) > 0
        ORDER BY AVG(CASE WHEN score_value > 0 THEN score_value END) ASC,
                 COUNT(1) DESC, author ASC
        LIMIT ?`, game, date, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LBRow
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Author, &r.Plays, &r.Best, &r.Avg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Point is one sample of an author's score history.
type Point struct {
	Time  time.Time
	Value float64
}

// Series returns an author's normalized scores for a game, oldest first,
// for charting.
func (s *Store) Series(ctx context.Context, game, author string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT ts, score_value
        FROM messages
        WHERE game=? AND author=? AND score_value IS NOT NULL
        ORDER BY ts ASC`, game, author)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var (
			ts  string
			val int64
		)
		if err := rows.Scan(&ts, &val); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("bad stored timestamp %q: %w", ts, err)
		}
		out = append(out, Point{Time: t, Value: float64(val)})
	}
	return out, rows.Err()
}

// Run records one collect/update invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Fetched   int
	Inserted  int
}

// RecordRun persists a collect-run row.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO collect_runs (id, started_at, fetched, inserted)
        VALUES (?,?,?,?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Fetched, r.Inserted)
	return err
}
