package retrieval

import (
	"fmt"
	"strings"

	"github.com/kamusis/adr-cli/internal/vecstore"
)

// Evidence renders results as a markdown list, one "- path (score 0.87)" line
// each. It returns "" for no results.
func Evidence(results []vecstore.Result) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("- %s (score %.2f)", r.Path, r.Score)
	}
	return strings.Join(lines, "\n")
}
