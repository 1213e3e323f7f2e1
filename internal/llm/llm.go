package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/interviewer/internal/media"
	"github.com/pavelanni/interviewer/internal/model"
)

// ReadinessMode names what AwaitReady does when the poll budget runs out.
type ReadinessMode string

const (
	// ReadinessBestEffort stops waiting and lets generation proceed on a
	// possibly unprocessed asset.
	ReadinessBestEffort ReadinessMode = "best-effort"
	// ReadinessStrict fails the request with a submission error.
	ReadinessStrict ReadinessMode = "strict"
)

// IsValidReadinessMode checks a mode name from configuration.
func IsValidReadinessMode(m string) bool {
	return m == string(ReadinessBestEffort) || m == string(ReadinessStrict)
}

// ReadinessPolicy bounds the wait for remote processing.
type ReadinessPolicy struct {
	Mode         ReadinessMode
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultReadiness waits up to ~20s: 10 polls, 2s apart.
var DefaultReadiness = ReadinessPolicy{
	Mode:         ReadinessBestEffort,
	PollInterval: 2 * time.Second,
	MaxAttempts:  10,
}

// Config holds client-side limits independent of the backend.
type Config struct {
	Readiness       ReadinessPolicy
	GenerateTimeout time.Duration // 0 means only the caller's deadline applies
	CleanupTimeout  time.Duration
}

// Client drives one Service through submit, wait, generate and cleanup.
type Client struct {
	svc Service
	cfg Config
}

// New creates a new analysis client.
func New(svc Service, cfg Config) *Client {
	if cfg.Readiness.MaxAttempts <= 0 {
		cfg.Readiness.MaxAttempts = DefaultReadiness.MaxAttempts
	}
	if cfg.Readiness.PollInterval < 0 {
		cfg.Readiness.PollInterval = 0
	}
	if cfg.Readiness.Mode == "" {
		cfg.Readiness.Mode = ReadinessBestEffort
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = 15 * time.Second
	}
	return &Client{svc: svc, cfg: cfg}
}

// AudioOnly reports whether the backend evaluates a transcript only.
func (c *Client) AudioOnly() bool {
	return c.svc.AudioOnly()
}

// Ping checks the backend.
func (c *Client) Ping(ctx context.Context) error {
	return c.svc.Ping(ctx)
}

// Close releases the backend connection.
func (c *Client) Close() error {
	return c.svc.Close()
}

// Submit uploads the recording to the external service.
func (c *Client) Submit(ctx context.Context, h *media.Handle) (Asset, error) {
	a, err := c.svc.Upload(ctx, h)
	if err != nil {
		return Asset{}, model.NewError(model.KindSubmission, "llm.submit", "upload recording", err)
	}
	if a.State == "" {
		a.State = AssetPending
	}
	slog.Debug("uploaded recording", "asset", a.Name, "state", a.State)
	return a, nil
}

// AwaitReady polls the asset's status until it reaches a terminal state or
// the policy's attempt budget is spent. Under best-effort, exhaustion returns
// the still-pending asset without error.
func (c *Client) AwaitReady(ctx context.Context, a Asset) (Asset, error) {
	p := c.cfg.Readiness
	for attempt := 1; !a.State.Terminal() && attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return a, model.NewError(model.KindSubmission, "llm.await", "waiting for processing", ctx.Err())
			case <-time.After(p.PollInterval):
			}
		}
		state, err := c.svc.Status(ctx, a)
		if err != nil {
			return a, model.NewError(model.KindSubmission, "llm.await", "poll status", err)
		}
		a.State = state
		slog.Debug("polled asset", "asset", a.Name, "attempt", attempt, "state", state)
	}

	switch a.State {
	case AssetReady:
		return a, nil
	case AssetFailed:
		return a, model.NewError(model.KindSubmission, "llm.await", "remote processing failed", nil)
	}
	if p.Mode == ReadinessStrict {
		return a, model.NewError(model.KindSubmission, "llm.await",
			fmt.Sprintf("still processing after %d polls", p.MaxAttempts), nil)
	}
	slog.Warn("asset still processing, continuing anyway",
		"asset", a.Name, "polls", p.MaxAttempts, "policy", p.Mode)
	return a, nil
}

// Generate runs the model over prompt and asset and returns its raw text.
func (c *Client) Generate(ctx context.Context, prompt string, a Asset) (string, error) {
	if c.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.GenerateTimeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := c.svc.Generate(ctx, prompt, a)
	if err != nil {
		return "", model.NewError(model.KindGeneration, "llm.generate", "model call", err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", model.NewError(model.KindGeneration, "llm.generate", "model returned no text", nil)
	}
	slog.Debug("LLM response", "asset", a.Name, "elapsed", time.Since(start), "raw", raw)
	return raw, nil
}

// Release deletes the remote asset. It runs even when ctx is already
// cancelled; failures are only logged.
func (c *Client) Release(ctx context.Context, a Asset) {
	if a.Name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CleanupTimeout)
	defer cancel()
	if err := c.svc.Delete(ctx, a); err != nil {
		slog.Warn("failed to delete remote asset", "asset", a.Name, "error", err)
		return
	}
	slog.Debug("deleted remote asset", "asset", a.Name)
}
