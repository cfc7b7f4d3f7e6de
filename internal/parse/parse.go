// internal/parse/parse.go
//
// Top-level message parser: classifier + extractor registry composed into
// one total entry point. Token text in, Record out, no failure escapes.

package parse

import "strings"

// Parse turns one raw chat message into a Record.
//
// It is total: every input yields exactly one Record, with degenerate cases
// (empty input, ordinary chat, missing handler, layout violation) encoded
// as sentinel Games rather than errors. Pure and safe to call from any
// number of goroutines.
func Parse(msg string) Record {
	words := strings.Fields(msg)
	if len(words) == 0 {
		return Record{Game: GameEmptyMessage}
	}

	game, ok := firstToken[words[0]]
	if !ok {
		return Record{Game: GameOtherMessage}
	}

	h, ok := handlers[game]
	if !ok {
		// Defensive: the registry should cover the classifier table, but a
		// stale mapping must degrade to a sentinel, not a crash.
		return Record{Game: GameNoHandler}
	}

	ex, err := h(words)
	if err != nil {
		return Record{Game: GameMalformed}
	}
	if ex.Game != "" {
		game = ex.Game
	}
	return Record{Game: game, Score: ex.Score, Number: ex.Number}
}
