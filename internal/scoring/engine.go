package scoring

// Result of evaluating one complete answer vector.
type Result struct {
	Correct int     `json:"correct"`
	Band    float64 `json:"band"`
}

// Evaluate scores a full answer vector against an answer key and band table.
// Pair rules are resolved first and their member questions excluded from
// per-question scoring. Index i of answers holds the value for question
// number i+1; out-of-range questions read as empty, which never matches.
// The function is a pure function of its inputs.
func Evaluate(answers []string, key *AnswerKey, table []BandRow) Result {
	correct := 0
	handled := make(map[int]bool)

	for _, pair := range key.Pairs {
		correct += scorePair(answers, pair)
		handled[pair.Numbers[0]] = true
		handled[pair.Numbers[1]] = true
	}

	for num, entry := range key.Entries {
		if handled[num] {
			continue
		}
		given := answerFor(answers, num)
		if given == "" {
			continue
		}
		if entry.Matches(given) {
			correct++
		}
	}

	return Result{Correct: correct, Band: BandForScore(correct, table)}
}

// scorePair awards one point per accepted value present in the candidate's
// deduplicated pair of answers.
func scorePair(answers []string, pair PairRule) int {
	given := make(map[string]bool, 2)
	for _, num := range pair.Numbers {
		if v := NormalizeText(answerFor(answers, num)); v != "" {
			given[v] = true
		}
	}

	points := 0
	for _, want := range pair.Accepted {
		if given[NormalizeText(want)] {
			points++
		}
	}
	return points
}

func answerFor(answers []string, questionNumber int) string {
	idx := questionNumber - 1
	if idx < 0 || idx >= len(answers) {
		return ""
	}
	return answers[idx]
}
