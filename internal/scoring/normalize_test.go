package scoring

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase and trim", in: "  LiBrArY  ", want: "library"},
		{name: "collapse whitespace", in: "not \t  given", want: "not given"},
		{name: "strip pound", in: "£300", want: "300"},
		{name: "strip dollar", in: "$ 45", want: "45"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: "   ", want: ""},
		{name: "already canonical", in: "bacteria", want: "bacteria"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeText(tc.in)
			if got != tc.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := NormalizeText(got); again != got {
				t.Errorf("NormalizeText not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "true literal", in: "TRUE", want: "true"},
		{name: "t shorthand", in: "t", want: "true"},
		{name: "yes folds to true", in: "Yes", want: "true"},
		{name: "y shorthand", in: "y", want: "true"},
		{name: "false literal", in: "False", want: "false"},
		{name: "f shorthand", in: "F", want: "false"},
		{name: "no folds to false", in: "NO", want: "false"},
		{name: "n shorthand", in: "n", want: "false"},
		{name: "not given", in: "Not  Given", want: "not given"},
		{name: "ng shorthand", in: "NG", want: "not given"},
		{name: "dotted shorthand", in: "n.g.", want: "not given"},
		{name: "unknown passes through", in: "  Maybe ", want: "maybe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeCategory(tc.in)
			if got != tc.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := NormalizeCategory(got); again != got {
				t.Errorf("NormalizeCategory not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeCategorySynonymEquality(t *testing.T) {
	groups := [][]string{
		{"Yes", "y", "YES", "true", "T"},
		{"No", "n", "FALSE", "f"},
		{"not given", "NG", "N.G."},
	}
	for _, group := range groups {
		base := NormalizeCategory(group[0])
		for _, s := range group[1:] {
			if got := NormalizeCategory(s); got != base {
				t.Errorf("NormalizeCategory(%q) = %q, want %q (same family as %q)", s, got, base, group[0])
			}
		}
	}
}
