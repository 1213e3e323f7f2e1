package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/interviewer/internal/media"
)

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	TranscribeModel string
	Temperature     float32
}

// OpenAI evaluates recordings through an OpenAI-compatible API. Upload
// transcribes the audio track; the chat model then judges the transcript.
// Visual cues are not available to this backend.
type OpenAI struct {
	api             *openai.Client
	model           string
	transcribeModel string
	temperature     float32

	mu          sync.Mutex
	transcripts map[string]string
}

// NewOpenAI creates a new OpenAI-compatible backend.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = openai.Whisper1
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	return &OpenAI{
		api:             openai.NewClientWithConfig(config),
		model:           cfg.Model,
		transcribeModel: cfg.TranscribeModel,
		temperature:     cfg.Temperature,
		transcripts:     make(map[string]string),
	}
}

// Upload transcribes the recording. The asset is ready as soon as it exists.
func (o *OpenAI) Upload(ctx context.Context, h *media.Handle) (Asset, error) {
	resp, err := o.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.transcribeModel,
		FilePath: h.Path,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("transcription API call: %w", err)
	}

	name := "transcripts/" + uuid.NewString()
	o.mu.Lock()
	o.transcripts[name] = resp.Text
	o.mu.Unlock()

	return Asset{Name: name, MIMEType: "text/plain", State: AssetReady}, nil
}

// Status reports ready while the transcript is held, failed once it is gone.
func (o *OpenAI) Status(_ context.Context, a Asset) (AssetState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.transcripts[a.Name]; ok {
		return AssetReady, nil
	}
	return AssetFailed, nil
}

// Generate asks the chat model for a JSON evaluation of the transcript.
func (o *OpenAI) Generate(ctx context.Context, prompt string, a Asset) (string, error) {
	o.mu.Lock()
	transcript, ok := o.transcripts[a.Name]
	o.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown asset %q", a.Name)
	}
	if strings.TrimSpace(transcript) == "" {
		transcript = "[No speech detected]"
	}

	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: "TRANSCRIPT OF THE CANDIDATE'S ANSWER:\n\n" + transcript},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Delete forgets the transcript.
func (o *OpenAI) Delete(_ context.Context, a Asset) error {
	o.mu.Lock()
	delete(o.transcripts, a.Name)
	o.mu.Unlock()
	return nil
}

// Ping lists the models served by the endpoint.
func (o *OpenAI) Ping(ctx context.Context) error {
	if _, err := o.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// AudioOnly is true: the chat model only sees the transcript.
func (o *OpenAI) AudioOnly() bool { return true }

// Close is a no-op; the HTTP client needs no teardown.
func (o *OpenAI) Close() error { return nil }
