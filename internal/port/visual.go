package port

import "context"

// VisualGenerator renders a substitute visual track for a prompt into outPath.
type VisualGenerator interface {
	Generate(ctx context.Context, prompt, outPath string) error
}
