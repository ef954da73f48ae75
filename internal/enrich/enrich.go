// Package enrich declares the external collaborators of the pipeline:
// LLM enrichment, geocoding and stock-image lookup. The orchestrator
// depends only on the interfaces; every implementation may fail or return
// partial results and callers must tolerate both.
package enrich

import (
	"context"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// Enrichment is the (possibly partial) result of one enrichment call.
type Enrichment struct {
	CategorySlugs []string
	Summary       string
	IsFree        *bool
	ImageKeywords []string
}

// Enricher categorizes and summarizes an event. The tier selects the model
// depth (see registry.Tier.EnrichmentModel).
type Enricher interface {
	Enrich(ctx context.Context, ev *models.CanonicalEvent, tier registry.Tier) (Enrichment, error)
}

// NoopEnricher returns empty enrichments. Used when no LLM backend is
// configured and in tests.
type NoopEnricher struct{}

func (NoopEnricher) Enrich(context.Context, *models.CanonicalEvent, registry.Tier) (Enrichment, error) {
	return Enrichment{}, nil
}

// Apply copies enrichment results onto the event without overwriting
// adapter-supplied values.
func Apply(ev *models.CanonicalEvent, enrichment Enrichment) {
	if ev.Category == "" && len(enrichment.CategorySlugs) > 0 {
		ev.Category = enrichment.CategorySlugs[0]
	}
	if ev.Summary == "" && enrichment.Summary != "" {
		ev.Summary = enrichment.Summary
	}
	if ev.IsFree == nil && enrichment.IsFree != nil {
		isFree := *enrichment.IsFree
		ev.IsFree = &isFree
	}
}
