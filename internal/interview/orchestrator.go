package interview

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pavelanni/interviewer/internal/evaluation"
	"github.com/pavelanni/interviewer/internal/llm"
	"github.com/pavelanni/interviewer/internal/llm/prompts"
	"github.com/pavelanni/interviewer/internal/media"
	"github.com/pavelanni/interviewer/internal/model"
)

// Intake stores an incoming recording for the length of one request.
type Intake interface {
	Ingest(ctx context.Context, r io.Reader, mimeType string) (*media.Handle, error)
}

// Orchestrator runs one recorded answer through intake, remote analysis and
// validation.
type Orchestrator struct {
	intake  Intake
	client  *llm.Client
	variant prompts.PromptVariant

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  *semaphore.Weighted
	refs int
}

// NewOrchestrator wires the analysis pipeline. An empty variant means standard.
func NewOrchestrator(intake Intake, client *llm.Client, variant prompts.PromptVariant) *Orchestrator {
	if variant == "" {
		variant = prompts.PromptStandard
	}
	return &Orchestrator{
		intake:  intake,
		client:  client,
		variant: variant,
		locks:   make(map[string]*sessionLock),
	}
}

// RunAnalysis evaluates one recorded answer to the session's current
// question. Calls for the same session run one at a time. The submitted
// remote asset is deleted exactly once, whatever happens after submission.
func (o *Orchestrator) RunAnalysis(ctx context.Context, sess *Session, stream io.Reader, mimeType string) (*model.AnalysisResult, error) {
	if err := sess.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if err := sess.RequireConfigured(); err != nil {
		return nil, err
	}

	unlock, err := o.lock(ctx, sess.ID)
	if err != nil {
		return nil, model.NewError(model.KindIntake, "interview.analyze", "waiting for previous analysis", err)
	}
	defer unlock()

	start := time.Now()
	log := slog.With("session", sess.ID, "subject", sess.Subject, "difficulty", sess.Difficulty)

	handle, err := o.intake.Ingest(ctx, stream, mimeType)
	if err != nil {
		return nil, err
	}
	defer handle.Release()
	log.Debug("recording stored", "recording", handle.ID, "bytes", handle.Size, "mime", handle.MIMEType)

	asset, err := o.client.Submit(ctx, handle)
	if err != nil {
		return nil, err
	}
	release := sync.OnceFunc(func() { o.client.Release(ctx, asset) })
	defer release()

	asset, err = o.client.AwaitReady(ctx, asset)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.BuildEvalPrompt(o.variant, prompts.Request{
		Subject:        sess.Subject,
		Difficulty:     sess.Difficulty,
		Question:       sess.CurrentQuestion,
		FeedbackPoints: evaluation.ExpectedFeedbackPoints,
		AudioOnly:      o.client.AudioOnly(),
	})
	if err != nil {
		return nil, model.NewError(model.KindGeneration, "interview.analyze", "build prompt", err)
	}

	raw, err := o.client.Generate(ctx, prompt, asset)
	release()
	if err != nil {
		return nil, err
	}

	result, err := evaluation.Parse(raw)
	if err != nil {
		return nil, err
	}
	for _, a := range evaluation.Advisories(result) {
		log.Warn("analysis result advisory", "advisory", a)
	}
	log.Info("analysis complete", "score", result.ConfidenceScore, "elapsed", time.Since(start))
	return result, nil
}

// lock acquires the session's semaphore and returns its release func.
func (o *Orchestrator) lock(ctx context.Context, id string) (func(), error) {
	o.mu.Lock()
	l, ok := o.locks[id]
	if !ok {
		l = &sessionLock{sem: semaphore.NewWeighted(1)}
		o.locks[id] = l
	}
	l.refs++
	o.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		o.unref(id, l)
		return nil, err
	}
	return func() {
		l.sem.Release(1)
		o.unref(id, l)
	}, nil
}

func (o *Orchestrator) unref(id string, l *sessionLock) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(o.locks, id)
	}
}
