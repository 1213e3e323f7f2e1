// Package interview implements the interview session lifecycle and the
// end-to-end analysis of a recorded answer.
package interview

import (
	"fmt"

	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/questions"
)

// State is the position of a session in its lifecycle.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
	StateConfigured    State = "configured"
)

// Session is the per-user interview state. It is passed explicitly into
// every operation; a nil *Session behaves as an anonymous one.
type Session struct {
	ID              string
	Email           string
	Authenticated   bool
	Subject         model.Subject
	Difficulty      model.Difficulty
	CurrentQuestion string
}

// NewSession returns an authenticated session with nothing chosen yet.
func NewSession(id, email string) *Session {
	return &Session{ID: id, Email: email, Authenticated: true}
}

// FromState rebuilds an authenticated session from its carried state.
func FromState(id, email string, st model.InterviewState) *Session {
	s := NewSession(id, email)
	s.Subject = st.Subject
	s.Difficulty = st.Difficulty
	s.CurrentQuestion = st.Question
	return s
}

// Restore rebuilds a session like FromState, but drops the carried
// interview state when it no longer matches the bank. The bool reports
// whether anything was dropped.
func Restore(id, email string, st model.InterviewState, bank *questions.Bank) (*Session, bool) {
	if st == (model.InterviewState{}) || bank.Contains(st.Subject, st.Difficulty, st.Question) {
		return FromState(id, email, st), false
	}
	return NewSession(id, email), true
}

// InterviewState returns the fields the session carrier persists.
func (s *Session) InterviewState() model.InterviewState {
	if s == nil {
		return model.InterviewState{}
	}
	return model.InterviewState{
		Subject:    s.Subject,
		Difficulty: s.Difficulty,
		Question:   s.CurrentQuestion,
	}
}

// State reports where the session is in Anonymous → Authenticated → Configured.
func (s *Session) State() State {
	switch {
	case s == nil || !s.Authenticated:
		return StateAnonymous
	case s.Subject == "" || s.Difficulty == "":
		return StateAuthenticated
	default:
		return StateConfigured
	}
}

// RequireAuthenticated fails with an unauthorized error for anonymous sessions.
func (s *Session) RequireAuthenticated() error {
	if s.State() == StateAnonymous {
		return &model.Error{Kind: model.KindUnauthorized, Op: "interview.session", Msg: "login required"}
	}
	return nil
}

// RequireConfigured fails unless a subject and difficulty have been chosen.
func (s *Session) RequireConfigured() error {
	if s.State() != StateConfigured {
		return &model.Error{Kind: model.KindNotConfigured, Op: "interview.session", Msg: "subject and difficulty not set"}
	}
	return nil
}

// Configure sets subject and difficulty and draws a question from that cell.
// On an unknown pair the session is left unchanged.
func (s *Session) Configure(bank *questions.Bank, subject model.Subject, difficulty model.Difficulty) (string, error) {
	if err := s.RequireAuthenticated(); err != nil {
		return "", err
	}
	q, err := bank.Pick(subject, difficulty)
	if err != nil {
		return "", err
	}
	s.Subject = subject
	s.Difficulty = difficulty
	s.CurrentQuestion = q
	return q, nil
}

// SetQuestion makes q the current question. q must belong to the
// configured cell; otherwise the session is left unchanged.
func (s *Session) SetQuestion(bank *questions.Bank, q string) error {
	if err := s.RequireAuthenticated(); err != nil {
		return err
	}
	if err := s.RequireConfigured(); err != nil {
		return err
	}
	if !bank.Contains(s.Subject, s.Difficulty, q) {
		return &model.Error{
			Kind:  model.KindInvalidSelection,
			Op:    "interview.session",
			Field: "question",
			Msg:   fmt.Sprintf("question is not in %s/%s", s.Subject, s.Difficulty),
		}
	}
	s.CurrentQuestion = q
	return nil
}

// NextQuestion replaces the current question with a fresh draw from the
// configured cell. Draws are independent, so repeats are possible.
func (s *Session) NextQuestion(bank *questions.Bank) (string, error) {
	if err := s.RequireAuthenticated(); err != nil {
		return "", err
	}
	if err := s.RequireConfigured(); err != nil {
		return "", err
	}
	q, err := bank.Pick(s.Subject, s.Difficulty)
	if err != nil {
		return "", err
	}
	s.CurrentQuestion = q
	return q, nil
}
