// internal/parse/types.go
//
// Core type definitions for the message parsing engine.
// Defines:
//   - Game: string-typed identifier for a supported puzzle, or a sentinel
//     for a degenerate parse outcome.
//   - Record: the immutable result of parsing one chat message.

package parse

// Game identifies a supported puzzle type. The set is closed: values are
// only ever produced by lookup in the classifier table, never inferred.
//
// Sentinel values (the "N/A:" prefix) signal degenerate outcomes. They keep
// the original reporting strings so historical exports stay mergeable.
type Game string

const (
	GameMini            Game = "Mini"
	GameWordle          Game = "Wordle"
	GameNerdle          Game = "Nerdle"
	GameMiniNerdle      Game = "Mini nerdle"
	GameMicroNerdle     Game = "Micro nerdle"
	GameInstantNerdle   Game = "Instant nerdle"
	GameQuordle         Game = "Quordle"
	GameQuordleSequence Game = "Quordle sequence"
	GameFlagleGame      Game = "Flagle-game"
	GameFlagleIO        Game = "Flagle.io"
	GameAngle           Game = "Angle.io"
	GameCountryle       Game = "Countryle"
	GameCapitale        Game = "Capitale"

	// Sentinels. Parsing is total: every message maps to exactly one Record,
	// and failure modes are encoded here instead of errors or panics.
	GameEmptyMessage Game = "N/A: Empty message"
	GameOtherMessage Game = "N/A: Other message"
	GameNoHandler    Game = "N/A: No handler found"
	GameMalformed    Game = "N/A: Malformed message"
)

// IsSentinel reports whether g is a degenerate outcome rather than a puzzle.
func (g Game) IsSentinel() bool {
	switch g {
	case GameEmptyMessage, GameOtherMessage, GameNoHandler, GameMalformed:
		return true
	}
	return false
}

// Record is the parsed form of a single chat message.
// Score and Number are raw text fragments as reported by the game's bot;
// an empty string means "absent" (sentinel outcomes, or games like the Mini
// crossword that report no puzzle number).
type Record struct {
	Game   Game   // puzzle type or sentinel
	Score  string // raw score token ("3/6", "1m20s", "4567", ...)
	Number string // puzzle/edition number, leading "#" stripped where needed
}

// Games returns the supported puzzle identifiers (no sentinels), in a
// stable order. Used by the API surface to enumerate the closed set.
func Games() []Game {
	return []Game{
		GameMini,
		GameWordle,
		GameNerdle,
		GameMiniNerdle,
		GameMicroNerdle,
		GameInstantNerdle,
		GameQuordle,
		GameQuordleSequence,
		GameFlagleGame,
		GameFlagleIO,
		GameAngle,
		GameCountryle,
		GameCapitale,
	}
}
