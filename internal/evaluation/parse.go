// Package evaluation turns free-form model output into a validated
// AnalysisResult.
package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/interviewer/internal/model"
)

// ExpectedFeedbackPoints is how many feedback points the prompt asks for.
const ExpectedFeedbackPoints = 3

const fence = "```"

// StripFences removes a code fence wrapped around the payload, e.g.
// "```json\n{...}\n```". Text without fences is returned trimmed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		// Drop the language tag on the opening line, if any.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(s[:nl]); tag == "" || isLangTag(tag) {
				s = s[nl+1:]
			}
		} else if strings.HasPrefix(strings.ToLower(s), "json") {
			s = s[len("json"):]
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSpace(s[:len(s)-len(fence)])
	}
	return s
}

func isLangTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// Parse strips fences, decodes the JSON object and checks every required
// field. Invalid JSON is a malformed-response error carrying raw; a missing
// or mistyped field is a schema violation naming that field.
func Parse(raw string) (*model.AnalysisResult, error) {
	body := StripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("top-level value is null")
		}
		return nil, &model.Error{
			Kind: model.KindMalformedResponse,
			Op:   "evaluation.parse",
			Msg:  "response is not a JSON object",
			Raw:  raw,
			Err:  err,
		}
	}

	var res model.AnalysisResult
	checks := []struct {
		name string
		dst  any
	}{
		{"transcript", &res.Transcript},
		{"confidence_score", &res.ConfidenceScore},
		{"eye_contact", &res.EyeContact},
		{"facial_expressions", &res.FacialExpressions},
		{"speaking_style", &res.SpeakingStyle},
		{"feedback_points", &res.FeedbackPoints},
	}
	for _, c := range checks {
		if err := decodeField(fields, c.name, c.dst); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func decodeField(fields map[string]json.RawMessage, name string, dst any) error {
	v, ok := fields[name]
	if !ok {
		return schemaError(name, "missing", nil)
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return schemaError(name, "is null", nil)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return schemaError(name, "has the wrong type", err)
	}
	return nil
}

func schemaError(field, msg string, err error) error {
	return &model.Error{
		Kind:  model.KindSchemaViolation,
		Op:    "evaluation.parse",
		Field: field,
		Msg:   msg,
		Err:   err,
	}
}

// Advisories lists soft problems with a result that do not fail validation:
// a confidence score outside 0–100 and an unexpected feedback count.
func Advisories(r *model.AnalysisResult) []string {
	var out []string
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 100 {
		out = append(out, fmt.Sprintf("confidence_score %g outside 0-100", r.ConfidenceScore))
	}
	if n := len(r.FeedbackPoints); n != ExpectedFeedbackPoints {
		out = append(out, fmt.Sprintf("expected %d feedback_points, got %d", ExpectedFeedbackPoints, n))
	}
	return out
}
