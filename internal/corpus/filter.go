package corpus

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesExtension reports whether name matches any entry of exts. Entries
// are either bare extensions (".pdf") or glob patterns ("report-*.txt").
// Matching is case-insensitive. An empty exts matches everything.
func MatchesExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range exts {
		pattern := strings.ToLower(strings.TrimSpace(ext))
		if pattern == "" {
			continue
		}
		if !strings.ContainsAny(pattern, "*?[{") {
			pattern = "*" + pattern
		}
		if ok, err := doublestar.Match(pattern, lower); err == nil && ok {
			return true
		}
	}
	return false
}
