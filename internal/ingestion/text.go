package ingestion

import (
	"regexp"
	"strings"
)

var excessiveBlankLines = regexp.MustCompile(`\n{3,}`)

// CleanText normalizes extracted text without rewording it: line endings
// become LF, control characters other than tab and newline are dropped,
// trailing whitespace is trimmed and runs of blank lines are capped at one.
// Line order is never changed.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7F || r == '\uFEFF':
			return -1
		}
		return r
	}, content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\u00a0")
	}
	result := strings.Join(lines, "\n")

	result = excessiveBlankLines.ReplaceAllString(result, "\n\n")
	return strings.Trim(result, "\n")
}
