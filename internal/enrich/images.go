package enrich

import "context"

// Image is a stock-image lookup result with the attribution the provider
// requires.
type Image struct {
	URL       string
	Author    string
	AuthorURL string
}

// ImageResolver finds a stock image for an event that has none of its own.
// A nil result with nil error means "nothing suitable found".
type ImageResolver interface {
	Resolve(ctx context.Context, keywords []string, category string) (*Image, error)
}

// NoopImageResolver never finds an image.
type NoopImageResolver struct{}

func (NoopImageResolver) Resolve(context.Context, []string, string) (*Image, error) {
	return nil, nil
}
