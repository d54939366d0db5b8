package command

import (
	"strings"
)

// Parse parses a "/name payload" line. The payload is everything after the
// name, kept verbatim apart from surrounding whitespace, and nil when absent.
func Parse(input string) (Command, bool) {
	trimmed := strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(trimmed, "/") {
		return Command{}, false
	}
	raw := strings.TrimSpace(trimmed[1:])
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{}, true
	}
	cmd := Command{Name: strings.ToLower(fields[0])}
	if remainder := remainderAfterTokens(raw, 1); remainder != "" {
		cmd.Payload = &remainder
	}
	return cmd, true
}

func remainderAfterTokens(raw string, count int) string {
	i := 0
	remaining := count
	for remaining > 0 && i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		for i < len(raw) && !isSpace(raw[i]) {
			i++
		}
		remaining--
	}
	if i >= len(raw) {
		return ""
	}
	return strings.TrimSpace(raw[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
