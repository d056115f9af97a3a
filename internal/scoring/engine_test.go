package scoring

import (
	"fmt"
	"testing"
)

func literalKey(numQuestions int, answers map[int]string) *AnswerKey {
	key := &AnswerKey{NumQuestions: numQuestions, Entries: make(map[int]KeyEntry, len(answers))}
	for num, ans := range answers {
		key.Entries[num] = KeyEntry{Number: num, Mode: ModeLiteral, Accepted: []string{ans}}
	}
	return key
}

func TestEvaluatePairRule(t *testing.T) {
	key := &AnswerKey{
		NumQuestions: 7,
		Entries: map[int]KeyEntry{
			6: {Number: 6, Mode: ModeLiteral, Accepted: []string{"yeast"}},
			7: {Number: 7, Mode: ModeLiteral, Accepted: []string{"bacteria"}},
		},
		Pairs: []PairRule{{Numbers: [2]int{6, 7}, Accepted: []string{"yeast", "bacteria"}}},
	}
	table := []BandRow{{Min: 0, Max: 7, Band: 1}}

	tests := []struct {
		name    string
		q6, q7  string
		correct int
	}{
		{name: "both correct", q6: "yeast", q7: "bacteria", correct: 2},
		{name: "swapped still both", q6: "bacteria", q7: "yeast", correct: 2},
		{name: "duplicate counts once", q6: "yeast", q7: "yeast", correct: 1},
		{name: "both wrong", q6: "bird", q7: "fish", correct: 0},
		{name: "one blank", q6: "", q7: "bacteria", correct: 1},
		{name: "case and whitespace folded", q6: " YEAST ", q7: "Bacteria", correct: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			answers := make([]string, 7)
			answers[5] = tc.q6
			answers[6] = tc.q7
			got := Evaluate(answers, key, table)
			if got.Correct != tc.correct {
				t.Errorf("Correct = %d, want %d", got.Correct, tc.correct)
			}
		})
	}
}

func TestEvaluateCategoryMode(t *testing.T) {
	key := &AnswerKey{
		NumQuestions: 1,
		Entries: map[int]KeyEntry{
			1: {Number: 1, Mode: ModeCategory, Accepted: []string{"FALSE"}},
		},
	}
	table := []BandRow{{Min: 1, Max: 1, Band: 9}}

	tests := []struct {
		given   string
		correct int
	}{
		{given: "false", correct: 1},
		{given: "F", correct: 1},
		{given: "no", correct: 1},
		{given: "N", correct: 1},
		{given: "true", correct: 0},
		{given: "not given", correct: 0},
		{given: "", correct: 0},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("given %q", tc.given), func(t *testing.T) {
			got := Evaluate([]string{tc.given}, key, table)
			if got.Correct != tc.correct {
				t.Errorf("Correct = %d, want %d", got.Correct, tc.correct)
			}
		})
	}
}

func TestEvaluateAlternateEquivalence(t *testing.T) {
	key := &AnswerKey{
		NumQuestions: 2,
		Entries: map[int]KeyEntry{
			1: {Number: 1, Mode: ModeLiteral, Accepted: []string{"300", "£300"}},
			2: {Number: 2, Mode: ModeLiteral, Accepted: []string{"city centre", "city center"}},
		},
	}

	got := Evaluate([]string{"£300", "City Center"}, key, nil)
	if got.Correct != 2 {
		t.Errorf("Correct = %d, want 2", got.Correct)
	}
}

func TestEvaluateFullSection(t *testing.T) {
	// 40 questions, 1..39 answered exactly (modulo normalization), 40 blank.
	answers := make([]string, 40)
	keyAnswers := make(map[int]string, 40)
	for n := 1; n <= 40; n++ {
		keyAnswers[n] = fmt.Sprintf("answer %d", n)
		if n < 40 {
			answers[n-1] = fmt.Sprintf("  Answer   %d ", n)
		}
	}
	key := literalKey(40, keyAnswers)

	got := Evaluate(answers, key, listeningTable)
	if got.Correct != 39 {
		t.Errorf("Correct = %d, want 39", got.Correct)
	}
	if got.Band != 9 {
		t.Errorf("Band = %v, want 9", got.Band)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	key := literalKey(3, map[int]string{1: "a", 2: "b", 3: "c"})
	answers := []string{"a", "x", "c"}
	table := []BandRow{{Min: 2, Max: 3, Band: 6}}

	first := Evaluate(answers, key, table)
	for i := 0; i < 50; i++ {
		if got := Evaluate(answers, key, table); got != first {
			t.Fatalf("Evaluate not deterministic: run %d got %+v, first %+v", i, got, first)
		}
	}
	if first.Correct != 2 || first.Band != 6 {
		t.Errorf("got %+v, want {Correct:2 Band:6}", first)
	}
}

func TestEvaluateShortAnswerVector(t *testing.T) {
	// Answer vector shorter than the key: missing slots read as blank.
	key := literalKey(5, map[int]string{1: "a", 5: "e"})
	got := Evaluate([]string{"a"}, key, nil)
	if got.Correct != 1 {
		t.Errorf("Correct = %d, want 1", got.Correct)
	}
}
