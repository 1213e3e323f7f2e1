// Package llmtest provides an in-memory llm.Service for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pavelanni/interviewer/internal/llm"
	"github.com/pavelanni/interviewer/internal/media"
)

// Fake is a scriptable llm.Service that records every call.
type Fake struct {
	// UploadState is the state reported by Upload; defaults to pending.
	UploadState llm.AssetState
	// States is returned by successive Status calls; the last one repeats.
	// Empty means always ready.
	States []llm.AssetState
	// Output is returned by Generate.
	Output string
	// GenerateFunc, when set, replaces Output.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	UploadErr   error
	StatusErr   error
	GenerateErr error
	DeleteErr   error
	Audio       bool

	mu            sync.Mutex
	uploads       int
	statusCalls   int
	generateCalls int
	deleted       []string
	prompts       []string
}

var _ llm.Service = (*Fake)(nil)

func (f *Fake) Upload(_ context.Context, h *media.Handle) (llm.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.UploadErr != nil {
		return llm.Asset{}, f.UploadErr
	}
	state := f.UploadState
	if state == "" {
		state = llm.AssetPending
	}
	return llm.Asset{
		Name:     fmt.Sprintf("files/fake-%d", f.uploads),
		URI:      "https://example.invalid/files/" + h.ID,
		MIMEType: h.MIMEType,
		State:    state,
	}, nil
}

func (f *Fake) Status(_ context.Context, _ llm.Asset) (llm.AssetState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.StatusErr != nil {
		return "", f.StatusErr
	}
	if len(f.States) == 0 {
		return llm.AssetReady, nil
	}
	i := min(f.statusCalls-1, len(f.States)-1)
	return f.States[i], nil
}

func (f *Fake) Generate(ctx context.Context, prompt string, _ llm.Asset) (string, error) {
	f.mu.Lock()
	f.generateCalls++
	f.prompts = append(f.prompts, prompt)
	fn, out, err := f.GenerateFunc, f.Output, f.GenerateErr
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return out, err
}

func (f *Fake) Delete(_ context.Context, a llm.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, a.Name)
	return f.DeleteErr
}

func (f *Fake) Ping(context.Context) error { return nil }
func (f *Fake) AudioOnly() bool            { return f.Audio }
func (f *Fake) Close() error               { return nil }

// Uploads returns the number of Upload calls.
func (f *Fake) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// StatusCalls returns the number of Status calls.
func (f *Fake) StatusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

// GenerateCalls returns the number of Generate calls.
func (f *Fake) GenerateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

// Deleted returns the names passed to Delete, in order.
func (f *Fake) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// Prompts returns the prompts passed to Generate, in order.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
