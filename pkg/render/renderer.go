package render

import "context"

// Renderer turns the result of a walk into bytes (HTML, JSON, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, result Result, options RenderOptions) ([]byte, error)
}
