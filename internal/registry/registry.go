package registry

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrSourceNotFound is returned by Get for an unknown source slug.
var ErrSourceNotFound = fmt.Errorf("source not found")

// SourceDescriptor is the immutable identity record of one event source.
// Read-only during ingestion; an inactive source is excluded from job
// source selection.
type SourceDescriptor struct {
	Slug           string        `yaml:"slug"`
	Name           string        `yaml:"name"`
	Tier           Tier          `yaml:"tier"`
	Region         string        `yaml:"region"`
	RegionCode     string        `yaml:"region_code"`
	URL            string        `yaml:"url"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"`
	BatchSize      int           `yaml:"batch_size"`
	MaxPages       int           `yaml:"max_pages"`
	IsActive       bool          `yaml:"active"`

	// Gold API shape hints
	ItemsPath   string `yaml:"items_path"`
	OffsetParam string `yaml:"offset_param"`
	LimitParam  string `yaml:"limit_param"`
}

type catalog struct {
	Sources []SourceDescriptor `yaml:"sources"`
}

// Registry holds the source catalog. Populated once at startup from the
// configured YAML file; all reads are side-effect free.
type Registry struct {
	bySlug map[string]SourceDescriptor
	order  []string
}

// Load reads and validates a source catalog from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from raw YAML catalog bytes.
func Parse(data []byte) (*Registry, error) {
	var cat catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	r := &Registry{bySlug: make(map[string]SourceDescriptor, len(cat.Sources))}
	for i, src := range cat.Sources {
		if src.Slug == "" {
			return nil, fmt.Errorf("source at index %d has no slug", i)
		}
		if _, err := ParseTier(string(src.Tier)); err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Slug, err)
		}
		if _, dup := r.bySlug[src.Slug]; dup {
			return nil, fmt.Errorf("duplicate source slug: %s", src.Slug)
		}
		if src.RateLimitDelay <= 0 {
			src.RateLimitDelay = time.Second
		}
		if src.BatchSize <= 0 {
			src.BatchSize = 100
		}
		if src.MaxPages <= 0 {
			src.MaxPages = 3
		}
		r.bySlug[src.Slug] = src
		r.order = append(r.order, src.Slug)
	}
	return r, nil
}

// NewFromSources builds a registry directly from descriptors (used in tests).
func NewFromSources(sources ...SourceDescriptor) *Registry {
	r := &Registry{bySlug: make(map[string]SourceDescriptor, len(sources))}
	for _, src := range sources {
		r.bySlug[src.Slug] = src
		r.order = append(r.order, src.Slug)
	}
	return r
}

// Filter selects a subset of the catalog. Zero value matches every source.
type Filter struct {
	Slugs      []string
	Tier       Tier
	Region     string
	ActiveOnly bool
}

// List returns the descriptors matching the filter, in catalog order.
// An empty result is valid and is not an error.
func (r *Registry) List(f Filter) []SourceDescriptor {
	wanted := make(map[string]bool, len(f.Slugs))
	for _, s := range f.Slugs {
		wanted[s] = true
	}

	var out []SourceDescriptor
	for _, slug := range r.order {
		src := r.bySlug[slug]
		if len(wanted) > 0 && !wanted[src.Slug] {
			continue
		}
		if f.Tier != "" && src.Tier != f.Tier {
			continue
		}
		if f.Region != "" && src.Region != f.Region && src.RegionCode != f.Region {
			continue
		}
		if f.ActiveOnly && !src.IsActive {
			continue
		}
		out = append(out, src)
	}
	return out
}

// Get returns the descriptor for a slug, or ErrSourceNotFound.
func (r *Registry) Get(slug string) (SourceDescriptor, error) {
	src, ok := r.bySlug[slug]
	if !ok {
		return SourceDescriptor{}, fmt.Errorf("%w: %s", ErrSourceNotFound, slug)
	}
	return src, nil
}

// Regions returns the distinct regions present in the catalog, sorted.
func (r *Registry) Regions() []string {
	seen := make(map[string]bool)
	for _, src := range r.bySlug {
		if src.Region != "" {
			seen[src.Region] = true
		}
	}
	out := make([]string, 0, len(seen))
	for region := range seen {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}
