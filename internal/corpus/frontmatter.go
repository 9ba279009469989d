package corpus

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// frontmatterMeta parses a leading YAML block delimited by "---" lines and
// returns its scalar string values under lowercased keys, ready to be stored
// as record metadata. A missing, unterminated or malformed block yields an
// empty map.
func frontmatterMeta(content string) map[string]any {
	meta := map[string]any{}

	lines := strings.Split(strings.TrimPrefix(content, "\ufeff"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	if lines[0] != fence {
		return meta
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == fence {
			end = i
			break
		}
	}
	if end < 0 {
		return meta
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &raw); err != nil {
		return meta
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			meta[strings.ToLower(k)] = s
		}
	}
	return meta
}
