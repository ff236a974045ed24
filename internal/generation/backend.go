// Package generation defines the opaque strategy generation backend. The
// prose assembly itself lives behind the Backend interface; the admission
// pipeline only needs a bounded call that may fail.
package generation

import (
	"context"
	"errors"
	"strings"
)

// Input is the validated, user-supplied request for one strategy document.
type Input struct {
	Goal        string `json:"goal"`
	Audience    string `json:"audience"`
	Industry    string `json:"industry"`
	Platform    string `json:"platform"`
	ContentType string `json:"content_type"`
	Experience  string `json:"experience"`
}

// Document is the opaque generated payload returned to the caller and
// persisted as JSON.
type Document map[string]any

var (
	ErrInvalidGoal     = errors.New("invalid_goal")
	ErrInvalidAudience = errors.New("invalid_audience")
)

// Normalize trims every field. Fingerprinting additionally lowercases; the
// stored document keeps the caller's casing.
func (in Input) Normalize() Input {
	return Input{
		Goal:        strings.TrimSpace(in.Goal),
		Audience:    strings.TrimSpace(in.Audience),
		Industry:    strings.TrimSpace(in.Industry),
		Platform:    strings.TrimSpace(in.Platform),
		ContentType: strings.TrimSpace(in.ContentType),
		Experience:  strings.TrimSpace(in.Experience),
	}
}

// Validate rejects inputs without the two load-bearing fields.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Goal) == "" {
		return ErrInvalidGoal
	}
	if strings.TrimSpace(in.Audience) == "" {
		return ErrInvalidAudience
	}
	return nil
}

// Backend produces a strategy document from validated input. It may fail or
// hang; callers bound it with a context deadline.
type Backend interface {
	Generate(ctx context.Context, input Input) (Document, error)
}
