// Package rules holds the server-side game configuration used to gate
// and price results. The table is the trust boundary of the scoring
// system: point values and timing windows never come from clients.
package rules

import (
	"time"
)

// Rule describes one game type: the elapsed-time window a legitimate
// play must fall into and the points a win is worth.
type Rule struct {
	MinSeconds float64
	MaxSeconds float64
	Points     int
}

// Window returns the rule's timing bounds as durations.
func (r Rule) Window() (min, max time.Duration) {
	return time.Duration(r.MinSeconds * float64(time.Second)),
		time.Duration(r.MaxSeconds * float64(time.Second))
}

// Table is an immutable lookup of game type to rule, built once at
// process start.
type Table struct {
	rules map[string]Rule
}

// Defaults returns the built-in game catalogue.
func Defaults() map[string]Rule {
	return map[string]Rule{
		"whackAMole":  {MinSeconds: 3, MaxSeconds: 120, Points: 3},
		"memoryMatch": {MinSeconds: 10, MaxSeconds: 300, Points: 5},
		"reactionTap": {MinSeconds: 1, MaxSeconds: 60, Points: 2},
		"colorSort":   {MinSeconds: 8, MaxSeconds: 240, Points: 4},
		"quickQuiz":   {MinSeconds: 5, MaxSeconds: 180, Points: 3},
	}
}

// NewTable builds a table from the given rules, copying the map so the
// table cannot be mutated through the argument afterwards. Entries with
// a non-positive point value or an inverted window are dropped.
func NewTable(rules map[string]Rule) *Table {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for game, r := range rules {
		if r.Points <= 0 || r.MinSeconds < 0 || r.MaxSeconds <= r.MinSeconds {
			continue
		}
		t.rules[game] = r
	}
	return t
}

// Lookup returns the rule for a game type.
func (t *Table) Lookup(gameType string) (Rule, bool) {
	r, ok := t.rules[gameType]
	return r, ok
}

// Games returns the number of configured game types.
func (t *Table) Games() int { return len(t.rules) }
