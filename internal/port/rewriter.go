package port

import "context"

// Rewriter is the generative rewriting capability.
type Rewriter interface {
	Rewrite(ctx context.Context, system, text string) (string, error)
}
