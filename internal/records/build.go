// internal/records/build.go
//
// Record builder: batch-applies the message parser across fetched messages.
// Guarantees exactly one Row per input message, in input order, no matter
// how malformed an individual message is.

package records

import (
	"time"

	"github.com/robalobadob/puzzletrack/internal/discord"
	"github.com/robalobadob/puzzletrack/internal/parse"
)

// Row is one parsed message, ready for storage or export.
// Score keeps the raw token as reported; Value is its normalized form and
// HasValue distinguishes absent from a genuine zero.
type Row struct {
	MessageID string
	Timestamp time.Time
	Date      string // YYYY-MM-DD, UTC
	Author    string
	Game      parse.Game
	Score     string
	Value     int
	HasValue  bool
	Number    string
	Message   string
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Build parses every message into a Row. Total: len(out) == len(msgs) and
// out[i] corresponds to msgs[i]. Each message is independent, so order of
// evaluation does not matter; input order is preserved in the output.
func Build(msgs []discord.Message) []Row {
	out := make([]Row, len(msgs))
	for i, m := range msgs {
		out[i] = FromMessage(m)
	}
	return out
}

// FromMessage parses a single message into a Row.
func FromMessage(m discord.Message) Row {
	rec := parse.Parse(m.Content)
	row := Row{
		MessageID: m.ID,
		Timestamp: m.Timestamp,
		Date:      DateKey(m.Timestamp),
		Author:    m.Author,
		Game:      rec.Game,
		Score:     rec.Score,
		Number:    rec.Number,
		Message:   m.Content,
	}
	if rec.Score != "" {
		row.Value, row.HasValue = parse.Normalize(rec.Score)
	}
	return row
}
