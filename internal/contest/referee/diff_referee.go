package referee

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffReferee is the default grading algorithm: a normalized exact match
// earns full points, anything else earns partial credit proportional to the
// line-level similarity of the two outputs. Trailing whitespace and
// trailing blank lines are not the contestant's problem.
type DiffReferee struct{}

// NewDiffReferee creates the default referee.
func NewDiffReferee() *DiffReferee {
	return &DiffReferee{}
}

// Evaluate awards points in [0, maxPoints] for actual against expected.
func (r *DiffReferee) Evaluate(actual []byte, expected string, maxPoints int) int {
	if maxPoints <= 0 {
		return 0
	}

	actualLines := normalizeLines(string(actual))
	expectedLines := normalizeLines(expected)

	if equalLines(actualLines, expectedLines) {
		return maxPoints
	}

	matcher := difflib.NewMatcher(expectedLines, actualLines)
	points := int(matcher.Ratio() * float64(maxPoints))
	if points < 0 {
		return 0
	}
	if points > maxPoints {
		return maxPoints
	}
	return points
}

func normalizeLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var _ Referee = (*DiffReferee)(nil)
