package generation

import (
	"context"
	"fmt"
)

// DemoBackend is the deterministic fallback used when no external backend is
// configured. It produces a minimal structured document so local setups work
// end to end without credentials.
type DemoBackend struct{}

func NewDemoBackend() *DemoBackend { return &DemoBackend{} }

func (b *DemoBackend) Generate(ctx context.Context, input Input) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input = input.Normalize()

	return Document{
		"mode":     "demo",
		"headline": fmt.Sprintf("Content strategy for %s", input.Goal),
		"summary": fmt.Sprintf(
			"A %s playbook targeting %s in the %s industry on %s.",
			input.Experience, input.Audience, input.Industry, input.Platform,
		),
		"content_type": input.ContentType,
		"pillars": []any{
			"audience research",
			"editorial calendar",
			"distribution",
			"measurement",
		},
	}, nil
}
