package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"github.com/pavelanni/interviewer/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var whitespaceRegex = regexp.MustCompile(`\s+`)

// PromptVariant represents a grading prompt variant.
type PromptVariant string

const (
	// PromptStrict judges like a demanding final-round interviewer.
	PromptStrict PromptVariant = "strict"
	// PromptStandard is the default grading variant.
	PromptStandard PromptVariant = "standard"
	// PromptLenient is an encouraging variant for first practice runs.
	PromptLenient PromptVariant = "lenient"
)

var validVariants = map[PromptVariant]bool{
	PromptStrict:   true,
	PromptStandard: true,
	PromptLenient:  true,
}

var (
	loadOnce     sync.Once
	loadErr      error
	evalTemplate *template.Template
	guidance     map[PromptVariant]string
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// EvalData holds template data for the evaluation prompt.
type EvalData struct {
	Subject        string
	Difficulty     string
	Question       string
	Guidance       string
	FeedbackPoints int
	AudioOnly      bool
}

// Load parses the embedded templates. It is safe to call repeatedly.
func Load() error {
	loadOnce.Do(func() {
		loadErr = load(templateFS)
	})
	return loadErr
}

func load(fsys fs.FS) error {
	content, err := fs.ReadFile(fsys, "templates/evaluate.txt")
	if err != nil {
		return errors.New("failed to read prompt file templates/evaluate.txt: " + err.Error())
	}
	tmpl, err := template.New("evaluate").Parse(string(content))
	if err != nil {
		return errors.New("failed to parse prompt template templates/evaluate.txt: " + err.Error())
	}
	evalTemplate = tmpl

	guidance = make(map[PromptVariant]string, len(validVariants))
	for v := range validVariants {
		file := "templates/guidance_" + string(v) + ".txt"
		g, err := fs.ReadFile(fsys, file)
		if err != nil {
			return errors.New("failed to read prompt file " + file + ": " + err.Error())
		}
		guidance[v] = strings.TrimSpace(string(g))
	}
	return nil
}

// Request describes what the prompt is about.
type Request struct {
	Subject        model.Subject
	Difficulty     model.Difficulty
	Question       string
	FeedbackPoints int
	// AudioOnly tells the model it only has a transcript, not the video.
	AudioOnly bool
}

// BuildEvalPrompt builds the evaluation prompt for one recorded answer.
func BuildEvalPrompt(variant PromptVariant, req Request) (string, error) {
	if err := Load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	g, ok := guidance[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}
	if strings.TrimSpace(req.Question) == "" {
		return "", errors.New("prompt requires a question")
	}
	if req.FeedbackPoints <= 0 {
		req.FeedbackPoints = 3
	}

	data := EvalData{
		Subject:        sanitizeField(string(req.Subject)),
		Difficulty:     sanitizeField(string(req.Difficulty)),
		Question:       sanitizeField(req.Question),
		Guidance:       g,
		FeedbackPoints: req.FeedbackPoints,
		AudioOnly:      req.AudioOnly,
	}

	var buf bytes.Buffer
	if err := evalTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeField keeps bank-supplied text on one line so it cannot break the
// prompt's structure.
func sanitizeField(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len([]rune(s)) > 1000 {
		s = string([]rune(s)[:1000])
	}
	return s
}
