// Package llm defines the language-model collaborator the pipeline talks to.
package llm

import (
	"context"
	"regexp"
	"strings"
)

// Request is one single-turn completion
type Request struct {
	System      string
	Prompt      string
	Temperature *float32
	// JSON asks the provider for a bare JSON object where it supports that
	JSON bool
}

// Completer returns the model's text for a request
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Temperature returns a pointer for Request.Temperature
func Temperature(t float32) *float32 {
	return &t
}

var fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractObject returns the first JSON object in a model reply: a fenced
// ```json block if present, otherwise the first balanced {...} span.
// It returns "" when no object is found.
func ExtractObject(text string) string {
	if m := fencedObjectPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
