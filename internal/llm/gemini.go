package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pavelanni/interviewer/internal/media"
)

// DefaultGeminiModel is the multimodal model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Gemini uploads recordings through the Gemini Files API and evaluates them
// with a multimodal model.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m := client.GenerativeModel(cfg.Model)
	m.ResponseMIMEType = "application/json"
	if cfg.Temperature > 0 {
		m.SetTemperature(cfg.Temperature)
	}
	return &Gemini{client: client, model: m, modelName: cfg.Model}, nil
}

// Upload streams the stored recording to the Files API.
func (g *Gemini) Upload(ctx context.Context, h *media.Handle) (Asset, error) {
	f, err := h.Open()
	if err != nil {
		return Asset{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	file, err := g.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: "interview-" + h.ID,
		MIMEType:    h.MIMEType,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("gemini upload: %w", err)
	}
	return assetFromFile(file), nil
}

// Status fetches the file and maps its state.
func (g *Gemini) Status(ctx context.Context, a Asset) (AssetState, error) {
	file, err := g.client.GetFile(ctx, a.Name)
	if err != nil {
		return "", fmt.Errorf("gemini get file: %w", err)
	}
	return geminiState(file.State), nil
}

// Generate sends the prompt with the uploaded file as a second part.
func (g *Gemini) Generate(ctx context.Context, prompt string, a Asset) (string, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.FileData{MIMEType: a.MIMEType, URI: a.URI},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return responseText(resp), nil
}

// Delete removes the uploaded file.
func (g *Gemini) Delete(ctx context.Context, a Asset) error {
	if err := g.client.DeleteFile(ctx, a.Name); err != nil {
		return fmt.Errorf("gemini delete file: %w", err)
	}
	return nil
}

// Ping fetches the model metadata.
func (g *Gemini) Ping(ctx context.Context) error {
	if _, err := g.model.Info(ctx); err != nil {
		return fmt.Errorf("gemini model %s: %w", g.modelName, err)
	}
	return nil
}

// AudioOnly is false: Gemini sees the video itself.
func (g *Gemini) AudioOnly() bool { return false }

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func assetFromFile(f *genai.File) Asset {
	return Asset{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		State:    geminiState(f.State),
	}
}

func geminiState(s genai.FileState) AssetState {
	switch s {
	case genai.FileStateActive:
		return AssetReady
	case genai.FileStateFailed:
		return AssetFailed
	}
	return AssetPending
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		// Only the first candidate with content is used.
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}
