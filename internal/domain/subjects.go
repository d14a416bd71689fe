package domain

import "strings"

// MaxSubjects caps how many users a session compares.
const MaxSubjects = 10

// ParseSubjects splits raw input on newlines, commas and semicolons, trims
// each name, drops empties, removes case-insensitive duplicates keeping the
// first spelling, and caps the result at MaxSubjects.
func ParseSubjects(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, MaxSubjects)
	for _, field := range fields {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
		if len(out) == MaxSubjects {
			break
		}
	}
	return out
}

// JoinSubjects is the inverse rendering used when re-parsing.
func JoinSubjects(subjects []string) string {
	return strings.Join(subjects, "\n")
}
