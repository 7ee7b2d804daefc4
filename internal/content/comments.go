package content

import (
	"log/slog"
	"strings"
)

const commentPrefix = "//"

// StripComments removes every line whose trimmed content starts with "//".
// Lines containing "//" elsewhere, such as inside URLs, are kept unchanged.
func StripComments(text string) string {
	lines := splitLines(text)
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
			slog.Debug("Removing comment line", "line", truncate(line, 50))
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// splitLines splits on \n, \r\n and \r without keeping terminators.
// A trailing terminator does not produce an empty final line.
func splitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
