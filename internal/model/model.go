package model

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthSession represents an authentication session together with the
// interview state carried for it.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Interview InterviewState
}

// InterviewState is the part of a session that survives between requests.
// Zero value means the user has not picked a subject yet.
type InterviewState struct {
	Subject    Subject    `json:"subject,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Question   string     `json:"question,omitempty"`
}

// Configured reports whether a subject and difficulty have been chosen.
func (s InterviewState) Configured() bool {
	return s.Subject != "" && s.Difficulty != ""
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// Subject is the engineering branch a question belongs to (CSE, ECE, ...).
type Subject string

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// AnalysisResult is the validated evaluation of one recorded answer.
type AnalysisResult struct {
	Transcript        string   `json:"transcript"`
	ConfidenceScore   float64  `json:"confidence_score"`
	EyeContact        string   `json:"eye_contact"`
	FacialExpressions string   `json:"facial_expressions"`
	SpeakingStyle     string   `json:"speaking_style"`
	FeedbackPoints    []string `json:"feedback_points"`
}

// ServerConfig holds runtime parameters of the HTTP server set via CLI flags.
type ServerConfig struct {
	BasePath       string   // URL prefix for sub-path deployments (e.g. "/interview")
	SecureCookies  bool     // Set Secure flag on cookies (disable for local dev)
	MaxUploadBytes int64    // Upper bound for a single recording
	AllowedOrigins []string // CORS origins allowed to call the API with credentials
}

// DeploymentInfo describes the running server's analysis setup.
type DeploymentInfo struct {
	SchemaVersion string    `json:"schema_version"`
	Provider      string    `json:"ai_provider"`
	Model         string    `json:"ai_model"`
	PromptVariant string    `json:"prompt_variant"`
	Readiness     string    `json:"readiness"`
	StartedAt     time.Time `json:"started_at"`
}
