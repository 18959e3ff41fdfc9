package personalize

import "testing"

func TestParseExtractsFields(t *testing.T) {
	text := "Name: Ana\nAge: 30\nQuestion: will I travel?"
	parsed := Parse(text)

	if parsed.Name != "Ana" {
		t.Fatalf("expected name Ana, got %q", parsed.Name)
	}
	if parsed.Age != "30" {
		t.Fatalf("expected age 30, got %q", parsed.Age)
	}
	if parsed.Question != "will I travel?" {
		t.Fatalf("expected question, got %q", parsed.Question)
	}
	if parsed.Raw != text {
		t.Fatalf("raw text not preserved: %q", parsed.Raw)
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	parsed := Parse("NAME: Maria\nqUeStIoN: career?")
	if parsed.Name != "Maria" {
		t.Fatalf("expected Maria, got %q", parsed.Name)
	}
	if parsed.Question != "career?" {
		t.Fatalf("expected career?, got %q", parsed.Question)
	}
}

func TestParseLastMatchWins(t *testing.T) {
	parsed := Parse("name: first\nname: second")
	if parsed.Name != "second" {
		t.Fatalf("expected last match to win, got %q", parsed.Name)
	}
}

func TestParseIgnoresUnmatchedLines(t *testing.T) {
	parsed := Parse("hello there\njust a note")
	if parsed.Name != "" || parsed.Age != "" || parsed.Question != "" {
		t.Fatalf("expected empty fields, got %+v", parsed)
	}
	if parsed.Raw != "hello there\njust a note" {
		t.Fatalf("raw text not preserved: %q", parsed.Raw)
	}
}

func TestParseEmptyInput(t *testing.T) {
	parsed := Parse("")
	if parsed != (Parsed{}) {
		t.Fatalf("expected zero value, got %+v", parsed)
	}
}
