package domain

import "context"

// RenderResult is what the external renderer produces for one address.
type RenderResult struct {
	Screenshot []byte
	Links      []string // href values found on the page, unresolved
}

// Renderer drives a browser (or any capture backend) for a single address.
type Renderer interface {
	Render(ctx context.Context, address string) (*RenderResult, error)
}

// Oracle judges localization drift between a source and a target screenshot.
// An empty slice means the pair is clean.
type Oracle interface {
	Compare(ctx context.Context, source, target []byte) ([]Finding, error)
}
