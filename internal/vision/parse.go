package vision

import (
	"strings"
)

// ParseResponse returns the first line of raw in the format
// name | category | sector, or nil if there is none.
func ParseResponse(raw string) *Suggestion {
	for _, line := range strings.Split(raw, "\n") {
		if s := ParseLine(line); s != nil {
			return s
		}
	}
	return nil
}

// ParseLine parses a single "name | category | sector" line. Lines without a
// pipe are treated as preamble and return nil.
func ParseLine(line string) *Suggestion {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}

	// Models sometimes bullet or bold the answer.
	line = strings.TrimLeft(line, "-*• ")
	line = strings.ReplaceAll(line, "**", "")

	parts := strings.Split(line, "|")
	s := &Suggestion{Name: strings.TrimSpace(parts[0])}
	if len(parts) >= 2 {
		s.Category = strings.TrimSpace(parts[1])
	}
	if len(parts) >= 3 {
		s.Sector = strings.TrimSpace(parts[2])
	}
	if s.Name == "" || strings.EqualFold(s.Name, "name") {
		return nil
	}
	return s
}
