package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestGeminiState(t *testing.T) {
	tests := []struct {
		in   genai.FileState
		want AssetState
	}{
		{genai.FileStateProcessing, AssetPending},
		{genai.FileStateUnspecified, AssetPending},
		{genai.FileStateActive, AssetReady},
		{genai.FileStateFailed, AssetFailed},
	}
	for _, tt := range tests {
		if got := geminiState(tt.in); got != tt.want {
			t.Errorf("geminiState(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"transcript":`), genai.Text(`"ok"}`)}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("second candidate")}}},
		},
	}
	if got := responseText(resp); got != `{"transcript":"ok"}` {
		t.Errorf("responseText() = %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("responseText(nil) = %q", got)
	}
}

func TestAssetFromFile(t *testing.T) {
	a := assetFromFile(&genai.File{
		Name:     "files/abc",
		URI:      "https://generativelanguage.googleapis.com/v1beta/files/abc",
		MIMEType: "video/webm",
		State:    genai.FileStateProcessing,
	})
	if a.Name != "files/abc" || a.MIMEType != "video/webm" || a.State != AssetPending {
		t.Errorf("assetFromFile() = %+v", a)
	}
}
