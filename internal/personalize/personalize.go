package personalize

import "strings"

// Parsed holds the structured fields extracted from a buyer's
// personalization text. Missing fields stay empty; Raw always keeps
// the original text untouched.
type Parsed struct {
	Name     string
	Age      string
	Question string
	Raw      string
}

// Parse extracts name/age/question from free-form personalization text.
// Matching is per line and case-insensitive on a fixed prefix set; the
// last matching line for a prefix wins. Parse never fails: unmatched
// lines are ignored and absent fields are left empty.
func Parse(text string) Parsed {
	result := Parsed{Raw: text}
	if text == "" {
		return result
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "name:"):
			result.Name = strings.TrimSpace(line[len("name:"):])
		case strings.HasPrefix(lower, "age:"):
			result.Age = strings.TrimSpace(line[len("age:"):])
		case strings.HasPrefix(lower, "question:"):
			result.Question = strings.TrimSpace(line[len("question:"):])
		}
	}
	return result
}
