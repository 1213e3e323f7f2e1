package prompts

import (
	"strings"
	"testing"

	"github.com/pavelanni/interviewer/internal/model"
)

func TestBuildEvalPrompt(t *testing.T) {
	req := Request{
		Subject:    "CSE",
		Difficulty: model.DifficultyEasy,
		Question:   "What is an operating system?",
	}

	t.Run("standard", func(t *testing.T) {
		p, err := BuildEvalPrompt(PromptStandard, req)
		if err != nil {
			t.Fatalf("BuildEvalPrompt: %v", err)
		}
		for _, want := range []string{
			"Branch: CSE",
			"Difficulty: Easy",
			"Interview Question: What is an operating system?",
			`"confidence_score"`,
			`"feedback_points"`,
			"exactly 3 specific improvements",
			"no code fences",
			"based strictly on the video",
		} {
			if !strings.Contains(p, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
		if strings.Contains(p, "Not observable from audio") {
			t.Error("video prompt should not mention audio-only mode")
		}
	})

	t.Run("variants differ in guidance only", func(t *testing.T) {
		strict, err := BuildEvalPrompt(PromptStrict, req)
		if err != nil {
			t.Fatalf("strict: %v", err)
		}
		lenient, err := BuildEvalPrompt(PromptLenient, req)
		if err != nil {
			t.Fatalf("lenient: %v", err)
		}
		if strict == lenient {
			t.Error("strict and lenient prompts should differ")
		}
		if !strings.Contains(strict, "demanding final-round") {
			t.Error("strict prompt missing its guidance")
		}
	})

	t.Run("audio only", func(t *testing.T) {
		r := req
		r.AudioOnly = true
		p, err := BuildEvalPrompt(PromptStandard, r)
		if err != nil {
			t.Fatalf("BuildEvalPrompt: %v", err)
		}
		if !strings.Contains(p, "Not observable from audio") {
			t.Error("audio prompt should explain visual fields")
		}
	})

	t.Run("invalid variant", func(t *testing.T) {
		if _, err := BuildEvalPrompt("harsh", req); err == nil {
			t.Error("expected error for unknown variant")
		}
	})

	t.Run("missing question", func(t *testing.T) {
		r := req
		r.Question = "  "
		if _, err := BuildEvalPrompt(PromptStandard, r); err == nil {
			t.Error("expected error for empty question")
		}
	})
}

func TestSanitizeField(t *testing.T) {
	got := sanitizeField("  Explain\n\nRankine\tcycle.  ")
	if got != "Explain Rankine cycle." {
		t.Errorf("sanitizeField() = %q", got)
	}
	long := strings.Repeat("é", 1200)
	if n := len([]rune(sanitizeField(long))); n != 1000 {
		t.Errorf("sanitizeField truncated to %d runes, want 1000", n)
	}
}

func TestIsValidVariant(t *testing.T) {
	for _, v := range []string{"strict", "standard", "lenient"} {
		if !IsValidVariant(v) {
			t.Errorf("IsValidVariant(%q) = false", v)
		}
	}
	if IsValidVariant("STANDARD") {
		t.Error("variants are case sensitive")
	}
}
