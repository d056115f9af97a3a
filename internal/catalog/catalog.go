// Package catalog loads the read-only test-section content: questions,
// answer keys, band tables and per-section session parameters. Sections are
// JSON fixtures read once at startup; nothing here mutates after Load.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/prepstem/ieltsmock-backend/internal/scoring"
)

// QuestionType tags how a question is rendered and which comparison mode
// applies when scoring it.
type QuestionType string

const (
	TypeFreeText          QuestionType = "free_text"
	TypeMultipleChoice    QuestionType = "multiple_choice"
	TypeMatching          QuestionType = "matching"
	TypeDragToSlot        QuestionType = "drag_to_slot"
	TypeTrueFalseNotGiven QuestionType = "true_false_not_given"
	TypeYesNoNotGiven     QuestionType = "yes_no_not_given"
)

// Question is one numbered question within a section. Answer is the
// content-supplied default; the section key may override it.
type Question struct {
	Number     int          `json:"number"`
	Type       QuestionType `json:"type"`
	Prompt     string       `json:"prompt"`
	Options    []string     `json:"options,omitempty"`
	Answer     string       `json:"answer"`
	Alternates []string     `json:"alternates,omitempty"`
}

// PairRuleSpec declares two question numbers scored jointly against an
// unordered accepted set.
type PairRuleSpec struct {
	Questions [2]int   `json:"questions"`
	Accepted  []string `json:"accepted"`
}

// Section is one test section (listening or reading) with its full content
// and scoring configuration.
type Section struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Skill              string              `json:"skill"`
	DurationMinutes    int                 `json:"duration_minutes"`
	RequiresAccessCode bool                `json:"requires_access_code"`
	AudioURL           string              `json:"audio_url,omitempty"`
	BandTable          []scoring.BandRow   `json:"band_table"`
	Questions          []Question          `json:"questions"`
	PairRules          []PairRuleSpec      `json:"pair_rules,omitempty"`
	KeyOverrides       map[string][]string `json:"key_overrides,omitempty"`
}

// PaperQuestion is a question as exposed to candidates: no answer material.
type PaperQuestion struct {
	Number  int          `json:"number"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
}

// Paper is the candidate-facing view of a section.
type Paper struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Skill           string          `json:"skill"`
	DurationMinutes int             `json:"duration_minutes"`
	AudioURL        string          `json:"audio_url,omitempty"`
	Questions       []PaperQuestion `json:"questions"`
}

// Paper returns the section content with all answer material stripped.
func (s *Section) Paper() Paper {
	qs := make([]PaperQuestion, 0, len(s.Questions))
	for _, q := range s.Questions {
		qs = append(qs, PaperQuestion{Number: q.Number, Type: q.Type, Prompt: q.Prompt, Options: q.Options})
	}
	return Paper{
		ID:              s.ID,
		Title:           s.Title,
		Skill:           s.Skill,
		DurationMinutes: s.DurationMinutes,
		AudioURL:        s.AudioURL,
		Questions:       qs,
	}
}

// AnswerKey resolves the section's scoring key. For each question the
// accepted set is the override (when present) or the content default,
// unioned with the alternate-equivalence list. Pair rules are carried
// separately and short-circuit their member questions at scoring time.
func (s *Section) AnswerKey() *scoring.AnswerKey {
	key := &scoring.AnswerKey{
		NumQuestions: len(s.Questions),
		Entries:      make(map[int]scoring.KeyEntry, len(s.Questions)),
	}

	for _, q := range s.Questions {
		accepted := s.acceptedAnswers(q)
		key.Entries[q.Number] = scoring.KeyEntry{
			Number:   q.Number,
			Mode:     comparisonMode(q.Type),
			Accepted: accepted,
		}
	}

	for _, pr := range s.PairRules {
		key.Pairs = append(key.Pairs, scoring.PairRule{Numbers: pr.Questions, Accepted: pr.Accepted})
	}

	return key
}

func (s *Section) acceptedAnswers(q Question) []string {
	var accepted []string
	if override, ok := s.KeyOverrides[strconv.Itoa(q.Number)]; ok {
		accepted = append(accepted, override...)
	} else if q.Answer != "" {
		accepted = append(accepted, q.Answer)
	}
	return append(accepted, q.Alternates...)
}

func comparisonMode(t QuestionType) scoring.Mode {
	switch t {
	case TypeTrueFalseNotGiven, TypeYesNoNotGiven:
		return scoring.ModeCategory
	default:
		return scoring.ModeLiteral
	}
}

// Catalog holds all loaded sections, keyed by ID.
type Catalog struct {
	sections map[string]*Section
	order    []string
}

// Load reads every *.json section file in dir and validates it.
func Load(dir string) (*Catalog, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob section files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no section files found in %s", dir)
	}
	sort.Strings(paths)

	c := &Catalog{sections: make(map[string]*Section, len(paths))}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var sec Section
		if err := json.Unmarshal(raw, &sec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := validate(&sec); err != nil {
			return nil, fmt.Errorf("validate %s: %w", path, err)
		}
		if _, exists := c.sections[sec.ID]; exists {
			return nil, fmt.Errorf("duplicate section id %q in %s", sec.ID, path)
		}

		c.sections[sec.ID] = &sec
		c.order = append(c.order, sec.ID)
	}
	return c, nil
}

func validate(s *Section) error {
	if s.ID == "" {
		return fmt.Errorf("missing section id")
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("section %s: duration must be positive", s.ID)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("section %s: no questions", s.ID)
	}

	seen := make(map[int]bool, len(s.Questions))
	for _, q := range s.Questions {
		if q.Number < 1 || q.Number > len(s.Questions) {
			return fmt.Errorf("section %s: question number %d out of range 1..%d", s.ID, q.Number, len(s.Questions))
		}
		if seen[q.Number] {
			return fmt.Errorf("section %s: duplicate question number %d", s.ID, q.Number)
		}
		seen[q.Number] = true
	}

	for _, pr := range s.PairRules {
		for _, num := range pr.Questions {
			if !seen[num] {
				return fmt.Errorf("section %s: pair rule references unknown question %d", s.ID, num)
			}
		}
		if len(pr.Accepted) == 0 {
			return fmt.Errorf("section %s: pair rule over %v has empty accepted set", s.ID, pr.Questions)
		}
	}

	for _, row := range s.BandTable {
		if row.Min > row.Max {
			return fmt.Errorf("section %s: band row min %d > max %d", s.ID, row.Min, row.Max)
		}
	}

	return nil
}

// Get returns a section by ID.
func (c *Catalog) Get(id string) (*Section, bool) {
	sec, ok := c.sections[id]
	return sec, ok
}

// List returns all sections in load order.
func (c *Catalog) List() []*Section {
	out := make([]*Section, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.sections[id])
	}
	return out
}
