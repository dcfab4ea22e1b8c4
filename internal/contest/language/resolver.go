// Package language maps human-readable language labels to the execution
// engine's numeric identifiers.
package language

import "strings"

// UnknownID is the sentinel id for unsupported labels. Callers must reject
// submissions carrying it.
const UnknownID = -1

// Language is a resolved language entry.
type Language struct {
	ID    int
	Label string
}

// Unknown is returned for labels outside the supported table.
var Unknown = Language{ID: UnknownID}

// table maps canonical labels to engine ids.
var table = map[string]int{
	"c":          50,
	"cpp":        54,
	"go":         60,
	"java":       62,
	"javascript": 63,
	"kotlin":     78,
	"python":     71,
	"ruby":       72,
	"rust":       73,
}

// aliases maps accepted spellings to canonical labels.
var aliases = map[string]string{
	"c++":     "cpp",
	"golang":  "go",
	"js":      "javascript",
	"node":    "javascript",
	"nodejs":  "javascript",
	"python3": "python",
	"py":      "python",
}

// Resolve maps a language label to its engine id. The mapping is a fixed
// finite table; unsupported labels resolve to Unknown. Pure function.
func Resolve(label string) Language {
	canonical := strings.ToLower(strings.TrimSpace(label))
	if alias, ok := aliases[canonical]; ok {
		canonical = alias
	}
	id, ok := table[canonical]
	if !ok {
		return Unknown
	}
	return Language{ID: id, Label: canonical}
}

// Supported lists the canonical labels in the table.
func Supported() []string {
	labels := make([]string, 0, len(table))
	for label := range table {
		labels = append(labels, label)
	}
	return labels
}
