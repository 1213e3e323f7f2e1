package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), email, "secret-"+email)
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", email, err)
	}
	return id
}

func TestCreateAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.UserCount(ctx)
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := createTestUser(t, s, "alice@example.com")
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u == nil || u.Email != "alice@example.com" {
		t.Fatalf("GetUserByID() = %+v", u)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret-alice@example.com" {
		t.Error("password must be stored hashed")
	}
	if u.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	// Emails are case-insensitive.
	if _, err := s.CreateAccount(ctx, "  Alice@Example.COM ", "other"); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate signup error = %v, want ErrDuplicateEmail", err)
	}
	if _, err := s.CreateAccount(ctx, "", "x"); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("empty email error = %v, want ErrInvalidAccount", err)
	}
	if _, err := s.CreateAccount(ctx, "bob@example.com", ""); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("empty secret error = %v, want ErrInvalidAccount", err)
	}

	count, _ = s.UserCount(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}

	missing, err := s.GetUserByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("GetUserByID(9999) = %v, %v; want nil, nil", missing, err)
	}
}

func TestConcurrentSignupOneWins(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.CreateAccount(context.Background(), "race@example.com", "pw")
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateEmail):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != len(errs)-1 {
		t.Errorf("ok=%d dup=%d, want exactly one success", ok, dup)
	}
}

func TestVerifyCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "carol@example.com")

	tests := []struct {
		name   string
		email  string
		secret string
		wantOK bool
	}{
		{"valid", "carol@example.com", "secret-carol@example.com", true},
		{"email case", "CAROL@example.com", "secret-carol@example.com", true},
		{"wrong secret", "carol@example.com", "nope", false},
		{"unknown email", "dave@example.com", "secret-carol@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := s.VerifyCredentials(ctx, tt.email, tt.secret)
			if err != nil {
				t.Fatalf("VerifyCredentials: %v", err)
			}
			if (u != nil) != tt.wantOK {
				t.Errorf("VerifyCredentials() user = %v, want ok=%v", u, tt.wantOK)
			}
		})
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := createTestUser(t, s, "erin@example.com")

	token, err := s.CreateAuthSession(ctx, uid)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}

	sess, err := s.GetAuthSession(ctx, token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != uid {
		t.Fatalf("GetAuthSession() = %+v", sess)
	}
	if sess.Interview.Configured() {
		t.Error("fresh session must not be configured")
	}
	if ttl := sess.ExpiresAt.Sub(sess.CreatedAt); ttl != authSessionTTL {
		t.Errorf("ttl = %v, want %v", ttl, authSessionTTL)
	}

	st := model.InterviewState{Subject: "CSE", Difficulty: model.DifficultyHard, Question: "Explain paging."}
	if err := s.SaveInterviewState(ctx, token, st); err != nil {
		t.Fatalf("SaveInterviewState: %v", err)
	}
	sess, _ = s.GetAuthSession(ctx, token)
	if sess.Interview != st {
		t.Errorf("interview state = %+v, want %+v", sess.Interview, st)
	}

	if err := s.SaveInterviewState(ctx, "no-such-token", st); err == nil {
		t.Error("SaveInterviewState on a missing session should fail")
	}

	if err := s.DeleteAuthSession(ctx, token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(ctx, token)
	if err != nil || sess != nil {
		t.Errorf("after delete: %v, %v; want nil, nil", sess, err)
	}
}

func insertSession(t *testing.T, s *Store, token string, uid int64, expires time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, uid, expires.Add(-authSessionTTL), expires,
	)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
}

func TestExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := createTestUser(t, s, "frank@example.com")

	insertSession(t, s, "old-1", uid, time.Now().Add(-2*time.Hour))
	insertSession(t, s, "old-2", uid, time.Now().Add(-time.Minute))
	insertSession(t, s, "live", uid, time.Now().Add(time.Hour))

	if sess, err := s.GetAuthSession(ctx, "old-1"); err != nil || sess != nil {
		t.Errorf("expired session returned: %v, %v", sess, err)
	}

	n, err := s.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	// old-1 was already removed by the lookup above.
	if n != 1 {
		t.Errorf("removed %d sessions, want 1", n)
	}
	if sess, _ := s.GetAuthSession(ctx, "live"); sess == nil {
		t.Error("live session was removed")
	}
}

func TestDeploymentInfo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	info, err := s.GetDeploymentInfo(ctx)
	if err != nil {
		t.Fatalf("GetDeploymentInfo: %v", err)
	}
	if info.SchemaVersion != schemaVersion {
		t.Errorf("schema version = %q, want %q", info.SchemaVersion, schemaVersion)
	}
	if info.Provider != "" || !info.StartedAt.IsZero() {
		t.Errorf("unset info = %+v", info)
	}

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	want := model.DeploymentInfo{
		SchemaVersion: schemaVersion,
		Provider:      "gemini",
		Model:         "gemini-2.5-flash",
		PromptVariant: "strict",
		Readiness:     "best-effort",
		StartedAt:     started,
	}
	if err := s.SetDeploymentInfo(ctx, want); err != nil {
		t.Fatalf("SetDeploymentInfo: %v", err)
	}
	// Second write overwrites.
	want.PromptVariant = "lenient"
	if err := s.SetDeploymentInfo(ctx, want); err != nil {
		t.Fatalf("SetDeploymentInfo: %v", err)
	}
	got, err := s.GetDeploymentInfo(ctx)
	if err != nil {
		t.Fatalf("GetDeploymentInfo: %v", err)
	}
	if got != want {
		t.Errorf("GetDeploymentInfo() = %+v, want %+v", got, want)
	}

	if v, err := s.GetMetadata(ctx, "missing"); err != nil || v != "" {
		t.Errorf("GetMetadata(missing) = %q, %v", v, err)
	}
}
