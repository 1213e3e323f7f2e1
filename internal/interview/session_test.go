package interview

import (
	"errors"
	"testing"

	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/questions"
)

func TestSessionStates(t *testing.T) {
	var nilSess *Session
	if nilSess.State() != StateAnonymous {
		t.Errorf("nil session state = %q", nilSess.State())
	}
	if (&Session{}).State() != StateAnonymous {
		t.Error("zero session should be anonymous")
	}
	s := NewSession("id", "a@b.c")
	if s.State() != StateAuthenticated {
		t.Errorf("new session state = %q", s.State())
	}
	s.Subject, s.Difficulty = "CSE", model.DifficultyEasy
	if s.State() != StateConfigured {
		t.Errorf("configured session state = %q", s.State())
	}
}

func TestConfigurePicksFromCell(t *testing.T) {
	bank := questions.Default()
	for _, subj := range bank.Subjects() {
		for _, diff := range bank.Difficulties(subj) {
			s := NewSession("id", "a@b.c")
			q, err := s.Configure(bank, subj, diff)
			if err != nil {
				t.Fatalf("Configure(%s, %s): %v", subj, diff, err)
			}
			if !bank.Contains(subj, diff, q) {
				t.Errorf("Configure(%s, %s) = %q, not in cell", subj, diff, q)
			}
			if s.CurrentQuestion != q || s.Subject != subj || s.Difficulty != diff {
				t.Errorf("session not updated: %+v", s)
			}
		}
	}
}

func TestConfigureInvalidLeavesSessionUnchanged(t *testing.T) {
	bank := questions.Default()
	s := NewSession("id", "a@b.c")
	if _, err := s.Configure(bank, "CSE", model.DifficultyMedium); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	before := *s

	tests := []struct {
		subject    model.Subject
		difficulty model.Difficulty
	}{
		{"XYZ", model.DifficultyEasy},
		{"CSE", "Impossible"},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := s.Configure(bank, tt.subject, tt.difficulty)
		if !errors.Is(err, model.ErrInvalidSelection) {
			t.Errorf("Configure(%q, %q) error = %v, want invalid selection", tt.subject, tt.difficulty, err)
		}
		if *s != before {
			t.Errorf("session changed after invalid selection: %+v", s)
		}
	}
}

func TestNextQuestion(t *testing.T) {
	bank := questions.Default()

	s := NewSession("id", "a@b.c")
	if _, err := s.NextQuestion(bank); !errors.Is(err, model.ErrNotConfigured) {
		t.Errorf("unconfigured NextQuestion error = %v, want not configured", err)
	}

	if _, err := s.Configure(bank, "ECE", model.DifficultyHard); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	for i := 0; i < 20; i++ {
		q, err := s.NextQuestion(bank)
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if !bank.Contains("ECE", model.DifficultyHard, q) {
			t.Fatalf("NextQuestion() = %q, outside ECE/Hard", q)
		}
		if s.CurrentQuestion != q {
			t.Fatal("CurrentQuestion not replaced")
		}
	}
}

func TestAnonymousSessionIsUnauthorized(t *testing.T) {
	bank := questions.Default()
	anon := &Session{ID: "x"}
	if _, err := anon.Configure(bank, "CSE", model.DifficultyEasy); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("Configure error = %v, want unauthorized", err)
	}
	if _, err := anon.NextQuestion(bank); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("NextQuestion error = %v, want unauthorized", err)
	}
	if anon.Subject != "" {
		t.Error("anonymous session must not be configured")
	}
}

func TestStateRoundTrip(t *testing.T) {
	st := model.InterviewState{Subject: "ME", Difficulty: model.DifficultyEasy, Question: "What is stress?"}
	s := FromState("sid", "a@b.c", st)
	if s.State() != StateConfigured {
		t.Errorf("state = %q", s.State())
	}
	if s.InterviewState() != st {
		t.Errorf("InterviewState() = %+v, want %+v", s.InterviewState(), st)
	}
}

func TestSetQuestion(t *testing.T) {
	bank := questions.Default()
	s := NewSession("id", "a@b.c")
	if err := s.SetQuestion(bank, "anything"); !errors.Is(err, model.ErrNotConfigured) {
		t.Errorf("unconfigured SetQuestion error = %v, want not configured", err)
	}
	if _, err := s.Configure(bank, "CSE", model.DifficultyEasy); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	before := *s

	err := s.SetQuestion(bank, "What is Kubernetes?")
	if !errors.Is(err, model.ErrInvalidSelection) {
		t.Fatalf("SetQuestion error = %v, want invalid selection", err)
	}
	var e *model.Error
	if !errors.As(err, &e) || e.Field != "question" {
		t.Errorf("error field = %+v, want question", e)
	}
	if *s != before {
		t.Errorf("session changed on rejected question: %+v", s)
	}

	medium, _ := bank.Questions("CSE", model.DifficultyMedium)
	if err := s.SetQuestion(bank, medium[0]); !errors.Is(err, model.ErrInvalidSelection) {
		t.Errorf("question from another cell accepted: %v", err)
	}

	easy, _ := bank.Questions("CSE", model.DifficultyEasy)
	if err := s.SetQuestion(bank, easy[len(easy)-1]); err != nil {
		t.Fatalf("SetQuestion: %v", err)
	}
	if s.CurrentQuestion != easy[len(easy)-1] {
		t.Errorf("CurrentQuestion = %q", s.CurrentQuestion)
	}
}

func TestRestore(t *testing.T) {
	bank := questions.Default()
	easy, _ := bank.Questions("CSE", model.DifficultyEasy)

	tests := []struct {
		name      string
		state     model.InterviewState
		wantStale bool
		wantState State
	}{
		{"empty", model.InterviewState{}, false, StateAuthenticated},
		{"valid", model.InterviewState{Subject: "CSE", Difficulty: model.DifficultyEasy, Question: easy[0]}, false, StateConfigured},
		{"question outside cell", model.InterviewState{Subject: "CSE", Difficulty: model.DifficultyEasy, Question: "What is Kubernetes?"}, true, StateAuthenticated},
		{"unknown pair", model.InterviewState{Subject: "CSE", Difficulty: "Impossible", Question: easy[0]}, true, StateAuthenticated},
		{"partial", model.InterviewState{Subject: "CSE", Difficulty: model.DifficultyEasy}, true, StateAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, stale := Restore("id", "a@b.c", tt.state, bank)
			if stale != tt.wantStale {
				t.Errorf("stale = %v, want %v", stale, tt.wantStale)
			}
			if s.State() != tt.wantState {
				t.Errorf("state = %q, want %q", s.State(), tt.wantState)
			}
			if stale && s.InterviewState() != (model.InterviewState{}) {
				t.Errorf("stale session kept state %+v", s.InterviewState())
			}
			if s.ID != "id" || s.Email != "a@b.c" {
				t.Errorf("identity lost: %+v", s)
			}
		})
	}
}
