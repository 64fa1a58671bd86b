package shared

import "strings"

// RenderActivityLog renders a titled list of entries, oldest first, showing
// only the most recent maxEntries when maxEntries > 0. Entries are indented
// by two spaces. A blank title renders the entries alone.
func RenderActivityLog(title string, entries []string, maxEntries int) string {
	var builder strings.Builder

	if trimmed := strings.TrimSpace(title); trimmed != "" {
		builder.WriteString(RenderLabel(trimmed))
		builder.WriteString("\n")
	}

	if maxEntries > 0 && maxEntries < len(entries) {
		entries = entries[len(entries)-maxEntries:]
	}

	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = "  " + entry
	}

	builder.WriteString(strings.Join(lines, "\n"))

	return builder.String()
}
