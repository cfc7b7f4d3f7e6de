// internal/parse/normalize.go
//
// Score normalization: raw score tokens → one comparable integer domain.
// Dispatch is purely by the token's textual shape, never by which game
// produced it; recognizers are tried in a fixed priority order and the
// first match wins.

package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// attempt fraction, e.g. "3/6" or "X/5". X marks a loss.
	fractionRE = regexp.MustCompile(`^[1-6X]/[4-6]$`)

	// elapsed time, e.g. "1m20s".
	timeRE = regexp.MustCompile(`^([0-9]+)m([0-9]+)s$`)

	// quordle composite: exactly four attempt digits, e.g. "4567".
	compositeRE = regexp.MustCompile(`^[0-9]{4}$`)
)

// Normalize converts a raw score token to an integer score.
// ok is false when the token matches no known shape, meaning no numeric
// score is available; callers must keep that distinct from a zero score.
//
// Shapes, in priority order:
//  1. fraction:  "3/6" is 3; "X/6" (failed) is 0
//  2. time:      "1m20s" is 80 seconds
//  3. composite: four digits; any 0 (failed word) scores 0, else the max digit
//  4. integer:   plain base-10 value
func Normalize(token string) (int, bool) {
	switch {
	case fractionRE.MatchString(token):
		if token[0] == 'X' {
			return 0, true
		}
		return int(token[0] - '0'), true

	case timeRE.MatchString(token):
		m := timeRE.FindStringSubmatch(token)
		mins, err1 := strconv.Atoi(m[1])
		secs, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return 60*mins + secs, true

	case compositeRE.MatchString(token):
		if strings.ContainsRune(token, '0') {
			return 0, true
		}
		max := 0
		for _, r := range token {
			if v := int(r - '0'); v > max {
				max = v
			}
		}
		return max, true

	default:
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}
