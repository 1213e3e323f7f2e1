// Package questions holds the static interview question bank.
package questions

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/interviewer/internal/model"
)

// Bank maps subject → difficulty → ordered questions. It is immutable once
// built and safe for concurrent use.
type Bank struct {
	cells map[model.Subject]map[model.Difficulty][]string
}

// Table is the plain form a bank is built from and serialized to.
type Table map[model.Subject]map[model.Difficulty][]string

// New validates t and returns a bank holding a private copy of it.
// Every cell must contain at least one non-empty question.
func New(t Table) (*Bank, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	cells := make(map[model.Subject]map[model.Difficulty][]string, len(t))
	for subject, levels := range t {
		if strings.TrimSpace(string(subject)) == "" {
			return nil, fmt.Errorf("question bank has an empty subject")
		}
		if len(levels) == 0 {
			return nil, fmt.Errorf("subject %q has no difficulties", subject)
		}
		cells[subject] = make(map[model.Difficulty][]string, len(levels))
		for difficulty, qs := range levels {
			if len(qs) == 0 {
				return nil, fmt.Errorf("subject %q difficulty %q has no questions", subject, difficulty)
			}
			for i, q := range qs {
				if strings.TrimSpace(q) == "" {
					return nil, fmt.Errorf("subject %q difficulty %q question %d is empty", subject, difficulty, i)
				}
			}
			cells[subject][difficulty] = slices.Clone(qs)
		}
	}
	return &Bank{cells: cells}, nil
}

// Load reads a bank from a JSON or YAML file, chosen by extension.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &t)
	default:
		err = json.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	b, err := New(t)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return b, nil
}

// Questions returns a copy of the questions for a subject/difficulty pair.
func (b *Bank) Questions(subject model.Subject, difficulty model.Difficulty) ([]string, error) {
	qs, err := b.cell(subject, difficulty)
	if err != nil {
		return nil, err
	}
	return slices.Clone(qs), nil
}

// Pick draws one question uniformly at random from a cell.
func (b *Bank) Pick(subject model.Subject, difficulty model.Difficulty) (string, error) {
	qs, err := b.cell(subject, difficulty)
	if err != nil {
		return "", err
	}
	return qs[rand.Intn(len(qs))], nil
}

// Contains reports whether q belongs to the given cell.
func (b *Bank) Contains(subject model.Subject, difficulty model.Difficulty, q string) bool {
	qs, err := b.cell(subject, difficulty)
	if err != nil {
		return false
	}
	return slices.Contains(qs, q)
}

// Count returns the number of questions in a cell, 0 if the cell is absent.
func (b *Bank) Count(subject model.Subject, difficulty model.Difficulty) int {
	qs, err := b.cell(subject, difficulty)
	if err != nil {
		return 0
	}
	return len(qs)
}

// Subjects returns all subjects in lexical order.
func (b *Bank) Subjects() []model.Subject {
	out := make([]model.Subject, 0, len(b.cells))
	for s := range b.cells {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Difficulties returns the difficulties of a subject, easiest first.
func (b *Bank) Difficulties(subject model.Subject) []model.Difficulty {
	levels := b.cells[subject]
	out := make([]model.Difficulty, 0, len(levels))
	for d := range levels {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.Difficulty) int {
		if ra, rb := difficultyRank(a), difficultyRank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(string(a), string(b))
	})
	return out
}

// Table returns a deep copy of the bank contents.
func (b *Bank) Table() Table {
	t := make(Table, len(b.cells))
	for s, levels := range b.cells {
		t[s] = make(map[model.Difficulty][]string, len(levels))
		for d, qs := range levels {
			t[s][d] = slices.Clone(qs)
		}
	}
	return t
}

func (b *Bank) cell(subject model.Subject, difficulty model.Difficulty) ([]string, error) {
	levels, ok := b.cells[subject]
	if !ok {
		return nil, &model.Error{
			Kind: model.KindInvalidSelection,
			Op:   "questions.lookup",
			Msg:  fmt.Sprintf("unknown subject %q", subject),
		}
	}
	qs, ok := levels[difficulty]
	if !ok {
		return nil, &model.Error{
			Kind: model.KindInvalidSelection,
			Op:   "questions.lookup",
			Msg:  fmt.Sprintf("unknown difficulty %q for subject %q", difficulty, subject),
		}
	}
	return qs, nil
}

func difficultyRank(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return 0
	case model.DifficultyMedium:
		return 1
	case model.DifficultyHard:
		return 2
	}
	return 3
}
