package scoring

// Mode selects how a candidate value is compared against the accepted set.
type Mode string

const (
	// ModeLiteral compares NormalizeText(given) against set membership.
	// Used for free-text, short-answer, multiple-choice and matching letters.
	ModeLiteral Mode = "literal"
	// ModeCategory compares NormalizeCategory of both sides. Used for
	// TRUE/FALSE/NOT-GIVEN and YES/NO/NOT-GIVEN questions.
	ModeCategory Mode = "category"
)

// KeyEntry holds the accepted answers for one question number. Accepted is
// the union of the canonical answer and any alternate-equivalence strings,
// already merged by the catalog.
type KeyEntry struct {
	Number   int
	Mode     Mode
	Accepted []string
}

// PairRule scores two question numbers jointly: the candidate's two values,
// taken as a deduplicated set, earn one point per member of the intersection
// with Accepted. Order of the two slots never matters.
type PairRule struct {
	Numbers  [2]int
	Accepted []string
}

// AnswerKey is the full scoring key for one test section.
type AnswerKey struct {
	NumQuestions int
	Entries      map[int]KeyEntry
	Pairs        []PairRule
}

// Matches reports whether a candidate value matches this entry under its
// comparison mode. An empty accepted set never matches.
func (e KeyEntry) Matches(given string) bool {
	for _, want := range e.Accepted {
		switch e.Mode {
		case ModeCategory:
			if NormalizeCategory(given) == NormalizeCategory(want) {
				return true
			}
		default:
			if NormalizeText(given) == NormalizeText(want) {
				return true
			}
		}
	}
	return false
}
