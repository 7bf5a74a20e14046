package regexast

import "testing"

func TestParseLiteralConcat(t *testing.T) {
	n, err := Parse("ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeConcat || len(n.Children) != 2 {
		t.Fatalf("got %+v", n)
	}
	if n.Children[0].Byte != 'a' || n.Children[1].Byte != 'b' {
		t.Fatalf("got %+v", n)
	}
}

func TestParseAlternation(t *testing.T) {
	n, err := Parse("a|b|c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeAlt || len(n.Children) != 3 {
		t.Fatalf("got %+v", n)
	}
}

func TestParseGroupAndQuantifiers(t *testing.T) {
	cases := []struct {
		pattern string
		kind    NodeKind
	}{
		{"a*", NodeStar},
		{"a+", NodePlus},
		{"a?", NodeOpt},
		{"(ab)*", NodeStar},
	}
	for _, c := range cases {
		n, err := Parse(c.pattern)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.pattern, err)
		}
		if n.Kind != c.kind {
			t.Errorf("%s: got kind %v, want %v", c.pattern, n.Kind, c.kind)
		}
	}
}

func TestParseRepeatBound(t *testing.T) {
	n, err := Parse("a{2,4}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeRepeat || n.Min != 2 || n.Max != 4 {
		t.Fatalf("got %+v", n)
	}

	n, err = Parse("a{3,}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeRepeat || n.Min != 3 || n.Max != -1 {
		t.Fatalf("got %+v", n)
	}

	n, err = Parse("a{5}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeRepeat || n.Min != 5 || n.Max != 5 {
		t.Fatalf("got %+v", n)
	}
}

func TestParseBracketClass(t *testing.T) {
	n, err := Parse("[a-zA-Z_]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeClass || n.Negate {
		t.Fatalf("got %+v", n)
	}
	if len(n.Ranges) != 3 {
		t.Fatalf("got %d ranges, want 3", len(n.Ranges))
	}

	neg, err := Parse("[^0-9]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !neg.Negate {
		t.Fatalf("expected negated class")
	}
}

func TestParseEscapeShorthands(t *testing.T) {
	for _, p := range []string{`\d`, `\w`, `\s`, `\D`, `\W`, `\S`} {
		n, err := Parse(p)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", p, err)
		}
		if n.Kind != NodeClass {
			t.Errorf("%s: got kind %v, want NodeClass", p, n.Kind)
		}
	}
}

func TestParseAnyByte(t *testing.T) {
	n, err := Parse(".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeAny {
		t.Fatalf("got %+v", n)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"(a",
		"[a-",
		"a{2,1}",
		`\`,
		"[]",
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("%q: expected error, got none", c)
		}
	}
}

func TestParseHexEscape(t *testing.T) {
	n, err := Parse(`\x41`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != NodeLiteral || n.Byte != 'A' {
		t.Fatalf("got %+v", n)
	}
}
