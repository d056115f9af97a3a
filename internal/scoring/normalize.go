package scoring

import "strings"

// NormalizeText canonicalizes free-text and letter-code answers for
// comparison: trim, lowercase, collapse internal whitespace runs to a single
// space, strip currency symbols. Pure and idempotent.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, "$", "")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeCategory maps TRUE/FALSE/YES/NO/NOT-GIVEN synonyms onto their
// canonical category value. YES/NO answers fold into the TRUE/FALSE family
// on purpose: the source material treats both question variants as the same
// three-way category. Unknown input falls through to NormalizeText; the
// function never fails.
func NormalizeCategory(s string) string {
	switch NormalizeText(s) {
	case "true", "t", "yes", "y":
		return "true"
	case "false", "f", "no", "n":
		return "false"
	case "not given", "ng", "n.g.":
		return "not given"
	default:
		return NormalizeText(s)
	}
}
