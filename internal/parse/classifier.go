// internal/parse/classifier.go
//
// First-token classification of chat messages.
// Responsibilities:
//   - Map a message's first whitespace token to a Game via a static table.
//   - Surface empty and unrecognized messages as sentinels.
//
// The table keys are the literal first tokens each reporting bot emits,
// including emoji and "#"-prefixed share strings. Matching is exact: no case
// folding, no prefix matching, no trimming beyond the whitespace split.

package parse

import "strings"

// firstToken maps the opening token of a share message to its game.
// Adding a new game is one entry here plus one handler in the registry.
var firstToken = map[string]Game{
	"Mini1:":     GameMini,
	"Wordle":     GameWordle,
	"nerdlegame": GameNerdle,
	"mini":       GameMiniNerdle,
	"micro":      GameMicroNerdle,
	"🟩":          GameInstantNerdle,
	"Daily":      GameQuordle,
	"Flagle":     GameFlagleGame,
	"#Flagle":    GameFlagleIO,
	"#Angle":     GameAngle,
	"#Countryle": GameCountryle,
	"#Capitale":  GameCapitale,
}

// Classify maps a raw message to its game identifier.
// Returns GameEmptyMessage for whitespace-only input and GameOtherMessage
// for ordinary chat whose first token is not in the table.
func Classify(msg string) Game {
	words := strings.Fields(msg)
	if len(words) == 0 {
		return GameEmptyMessage
	}
	g, ok := firstToken[words[0]]
	if !ok {
		return GameOtherMessage
	}
	return g
}
