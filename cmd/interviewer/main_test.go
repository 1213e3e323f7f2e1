package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/interviewer/internal/llm"
	"github.com/pavelanni/interviewer/internal/llm/prompts"
	"github.com/pavelanni/interviewer/internal/questions"
)

func testViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addAnalysisFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestAnalysisConfigDefaults(t *testing.T) {
	s, err := analysisConfig(testViper(t))
	if err != nil {
		t.Fatalf("analysisConfig: %v", err)
	}
	if s.provider.Provider != llm.ProviderGemini || s.modelName() != llm.DefaultGeminiModel {
		t.Errorf("provider = %q model = %q", s.provider.Provider, s.modelName())
	}
	if s.client.Readiness != llm.DefaultReadiness {
		t.Errorf("readiness = %+v, want %+v", s.client.Readiness, llm.DefaultReadiness)
	}
	if s.variant != prompts.PromptStandard {
		t.Errorf("variant = %q", s.variant)
	}
}

func TestAnalysisConfigFlags(t *testing.T) {
	v := testViper(t,
		"--ai-provider", "OpenAI",
		"--openai-model", "llama3.2",
		"--readiness", "strict",
		"--poll-interval", "500ms",
		"--poll-attempts", "4",
		"--prompt-variant", "lenient",
	)
	s, err := analysisConfig(v)
	if err != nil {
		t.Fatalf("analysisConfig: %v", err)
	}
	if s.provider.Provider != llm.ProviderOpenAI || s.modelName() != "llama3.2" {
		t.Errorf("provider = %q model = %q", s.provider.Provider, s.modelName())
	}
	want := llm.ReadinessPolicy{Mode: llm.ReadinessStrict, PollInterval: 500 * time.Millisecond, MaxAttempts: 4}
	if s.client.Readiness != want {
		t.Errorf("readiness = %+v, want %+v", s.client.Readiness, want)
	}
	if s.variant != prompts.PromptLenient {
		t.Errorf("variant = %q", s.variant)
	}

	if _, err := analysisConfig(testViper(t, "--readiness", "forever")); err == nil {
		t.Error("invalid readiness accepted")
	}
	s, _ = analysisConfig(testViper(t, "--prompt-variant", "harsh"))
	if s.variant != prompts.PromptStandard {
		t.Errorf("invalid variant fell back to %q", s.variant)
	}
}

func TestWriteTable(t *testing.T) {
	table := questions.Default().Table()

	var buf bytes.Buffer
	if err := writeTable(&buf, table, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var fromJSON questions.Table
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(fromJSON["CSE"]["Easy"]) != 3 {
		t.Errorf("json CSE/Easy = %v", fromJSON["CSE"]["Easy"])
	}

	buf.Reset()
	if err := writeTable(&buf, table, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML questions.Table
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(fromYAML) != 4 {
		t.Errorf("yaml subjects = %d, want 4", len(fromYAML))
	}

	if err := writeTable(&buf, table, "xml"); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestMimeFromFlagOrName(t *testing.T) {
	tests := []struct {
		flag, name, want string
	}{
		{"", "answer.webm", "video/webm"},
		{"", "answer.MP4", "video/mp4"},
		{"", "answer", "video/webm"},
		{"audio/ogg", "answer.mp4", "audio/ogg"},
	}
	for _, tt := range tests {
		if got := mimeFromFlagOrName(tt.flag, tt.name); got != tt.want {
			t.Errorf("mimeFromFlagOrName(%q, %q) = %q, want %q", tt.flag, tt.name, got, tt.want)
		}
	}
}
