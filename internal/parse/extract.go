// internal/parse/extract.go
//
// Per-game score extraction from tokenized messages.
// Responsibilities:
//   - One pure handler per game, each tied to that bot's fixed token layout.
//   - Registry mapping Game → handler, consulted by the dispatcher.
//   - Quordle glyph-line score derivation (the only nontrivial algorithm).
//
// Every handler validates its minimum token count up front and reports a
// layout violation as errMalformed; nothing here panics on short input.

package parse

import (
	"errors"
	"sort"
	"strconv"
)

// errMalformed signals that a recognized message does not match its bot's
// token layout (truncated or reformatted share text). The dispatcher turns
// it into the GameMalformed sentinel.
var errMalformed = errors.New("malformed message")

// giveUpMarker is the white-flag token Countryle/Capitale share text carries
// when the player abandoned the puzzle. Its presence forces score 0.
const giveUpMarker = "🏳️"

// quordleFail is the red-square glyph marking an unsolved Quordle word.
const quordleFail = '🟥'

// extraction is a handler's output. Game is normally zero; handlers that
// distinguish variants (Quordle vs. the Sequence mode) set it to override
// the classifier's identifier.
type extraction struct {
	Score  string
	Number string
	Game   Game
}

// handler consumes the whitespace-tokenized message.
type handler func(words []string) (extraction, error)

// handlers binds each game to its extractor. A classified game missing here
// is surfaced as GameNoHandler by the dispatcher.
var handlers = map[Game]handler{
	GameMini:          extractMini,
	GameWordle:        extractWordle,
	GameNerdle:        extractNerdle,
	GameMiniNerdle:    extractMiniNerdle,
	GameMicroNerdle:   extractMicroNerdle,
	GameInstantNerdle: extractInstantNerdle,
	GameQuordle:       extractQuordle,
	GameFlagleGame:    extractFlagleGame,
	GameFlagleIO:      extractFlagleIO,
	GameAngle:         extractAngle,
	GameCountryle:     extractCountryle,
	GameCapitale:      extractCapitale,
}

// Layout: "Mini1: 1m20s". The Mini crossword reports no puzzle number.
func extractMini(words []string) (extraction, error) {
	if len(words) < 2 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[1]}, nil
}

// Layout: "Wordle 1234 3/6".
func extractWordle(words []string) (extraction, error) {
	if len(words) < 3 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[2], Number: words[1]}, nil
}

// Layout: "nerdlegame 900 4/6".
func extractNerdle(words []string) (extraction, error) {
	if len(words) < 3 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[2], Number: words[1]}, nil
}

// Layout: "mini nerdlegame 900 3/6".
func extractMiniNerdle(words []string) (extraction, error) {
	if len(words) < 4 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[3], Number: words[2]}, nil
}

// Layout: "micro nerdlegame 900 2/6".
func extractMicroNerdle(words []string) (extraction, error) {
	if len(words) < 4 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[3], Number: words[2]}, nil
}

// Instant nerdle splits its solve time across the final two tokens
// ("... in 0m 45s!"); the score is reconstructed by concatenating the
// second-to-last token with the last token minus its trailing character.
// The layout assumption is provisional: it holds for every observed share
// string, but any upstream rewording would break the reconstruction.
func extractInstantNerdle(words []string) (extraction, error) {
	if len(words) < 6 {
		return extraction{}, errMalformed
	}
	last := []rune(words[len(words)-1])
	return extraction{
		Score:  words[len(words)-2] + string(last[:len(last)-1]),
		Number: words[5],
	}, nil
}

// Quordle share text:
//
//	Daily Quordle 123
//	4️⃣6️⃣
//	5️⃣7️⃣
//
// or "Daily Sequence Quordle 208 ..." for the Sequence mode, which shifts
// every position right by one and is reported under its own identifier.
func extractQuordle(words []string) (extraction, error) {
	off := 0
	game := Game("")
	if len(words) > 1 && words[1] == "Sequence" {
		off = 1
		game = GameQuordleSequence
	}
	if len(words) < 5+off {
		return extraction{}, errMalformed
	}
	num := stripHash(words[2+off])
	score := quordleScore(words[3+off], words[4+off])
	return extraction{Score: score, Number: num, Game: game}, nil
}

// quordleScore derives the canonical 4-digit composite from the two glyph
// lines, each encoding two attempt counts.
//
// The keycap digits the Quordle bot emits ("5️⃣") decompose into three
// runes: the ASCII digit, U+FE0F, and U+20E3. The red fail square is a
// single rune. That is why, within a line, the first value sits at rune 0
// and the second at rune 3 (or rune 1 when the first slot was a fail).
//
// Per line: a fail square in slot one scores 0; a fail square anywhere in
// the remainder zeroes the second value. The four values are sorted
// ascending and concatenated, so fails group at the front and the string is
// independent of word order.
//
// Glyph lines that don't decode (the share format has drifted historically)
// fall back to "0000" rather than rejecting the whole message.
func quordleScore(line1, line2 string) string {
	s1, s2, ok1 := quordleLine(line1)
	s3, s4, ok2 := quordleLine(line2)
	if !ok1 || !ok2 {
		return "0000"
	}
	vals := []int{s1, s2, s3, s4}
	sort.Ints(vals)
	out := make([]byte, 0, 4)
	for _, v := range vals {
		out = strconv.AppendInt(out, int64(v), 10)
	}
	return string(out)
}

// quordleLine scores one glyph line (two values). ok is false when the
// glyphs cannot be interpreted under the known layout.
func quordleLine(line string) (first, second int, ok bool) {
	r := []rune(line)
	if len(r) == 0 {
		return 0, 0, false
	}
	if r[0] != quordleFail {
		first, ok = digitValue(r[0])
		if !ok {
			return 0, 0, false
		}
	}

	rest := r[1:]
	for _, g := range rest {
		if g == quordleFail {
			return first, 0, true
		}
	}
	idx := 3
	if first == 0 {
		idx = 1
	}
	if idx >= len(r) {
		return 0, 0, false
	}
	second, ok = digitValue(r[idx])
	if !ok {
		return 0, 0, false
	}
	return first, second, true
}

// digitValue maps an ASCII digit rune to its value.
func digitValue(r rune) (int, bool) {
	if r < '0' || r > '9' {
		return 0, false
	}
	return int(r - '0'), true
}

// Layout: "Flagle #123 (url) 3/6 🎉".
func extractFlagleGame(words []string) (extraction, error) {
	if len(words) < 4 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[3], Number: stripFirst(words[1])}, nil
}

// Layout: "#Flagle #123 4/6".
func extractFlagleIO(words []string) (extraction, error) {
	if len(words) < 3 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[2], Number: stripFirst(words[1])}, nil
}

// Layout: "#Angle #123 2/4".
func extractAngle(words []string) (extraction, error) {
	if len(words) < 3 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[2], Number: stripFirst(words[1])}, nil
}

// Layout: "#Countryle 233 Guessed in 5 tries". A give-up marker anywhere in
// the message forces score 0, since abandoning has no formal loss count.
func extractCountryle(words []string) (extraction, error) {
	return extractGuessCount(words)
}

// Layout matches Countryle: "#Capitale 233 Guessed in 4 tries".
func extractCapitale(words []string) (extraction, error) {
	return extractGuessCount(words)
}

func extractGuessCount(words []string) (extraction, error) {
	if len(words) < 2 {
		return extraction{}, errMalformed
	}
	// Give-up shares are shorter than the solved layout, so check the marker
	// before enforcing the five-token minimum.
	for _, w := range words {
		if w == giveUpMarker {
			return extraction{Score: "0", Number: words[1]}, nil
		}
	}
	if len(words) < 5 {
		return extraction{}, errMalformed
	}
	return extraction{Score: words[4], Number: words[1]}, nil
}

// stripHash removes one leading "#" if present.
func stripHash(s string) string {
	if len(s) > 0 && s[0] == '#' {
		return s[1:]
	}
	return s
}

// stripFirst drops the leading character ("#123" → "123").
// These bots always prefix the number; an empty token is layout drift.
func stripFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[1:])
}
