package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// bronzeAdapter scrapes HTML listing pages. It relies on schema.org JSON-LD
// blocks, which the event portals we scrape all embed; anything without
// structured data is skipped rather than guessed at.
type bronzeAdapter struct {
	client *HTTPClient
	logger *zap.Logger
}

var jsonLDPattern = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)

func (a *bronzeAdapter) FetchRaw(ctx context.Context, src registry.SourceDescriptor, limit int) ([]models.RawRecord, error) {
	pace := newPacer(src.RateLimitDelay)
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	body, err := a.client.get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed for %s: %w", src.Slug, err)
	}

	records := extractJSONLDEvents(body)
	a.logger.Debug("scraped listing page",
		zap.String("source", src.Slug),
		zap.Int("events", len(records)),
	)

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *bronzeAdapter) Parse(src registry.SourceDescriptor, raw models.RawRecord) (*models.CanonicalEvent, error) {
	flattenLocation(raw)
	flattenOffers(raw)
	return canonicalize(src, raw), nil
}

// extractJSONLDEvents pulls every schema.org Event object out of the page's
// JSON-LD script blocks, including ones nested in @graph or top-level arrays.
func extractJSONLDEvents(body []byte) []models.RawRecord {
	var records []models.RawRecord
	for _, m := range jsonLDPattern.FindAllSubmatch(body, -1) {
		var doc any
		if err := json.Unmarshal(m[1], &doc); err != nil {
			continue
		}
		collectEvents(doc, &records)
	}
	return records
}

func collectEvents(node any, out *[]models.RawRecord) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			collectEvents(item, out)
		}
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			collectEvents(graph, out)
		}
		if isSchemaEvent(v["@type"]) {
			*out = append(*out, models.RawRecord(v))
		}
	}
}

func isSchemaEvent(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Event" || v == "MusicEvent" || v == "TheaterEvent" ||
			v == "ExhibitionEvent" || v == "Festival" || v == "SocialEvent"
	case []any:
		for _, item := range v {
			if isSchemaEvent(item) {
				return true
			}
		}
	}
	return false
}

// flattenLocation lifts location.name and the nested postal address up to
// the shared field vocabulary.
func flattenLocation(raw models.RawRecord) {
	location, ok := raw["location"].(map[string]any)
	if !ok {
		return
	}
	if name, ok := location["name"].(string); ok && name != "" {
		raw["venue"] = name
	}
	if address, ok := location["address"].(map[string]any); ok {
		if city, ok := address["addressLocality"].(string); ok {
			raw["city"] = city
		}
		if region, ok := address["addressRegion"].(string); ok {
			raw["province"] = region
		}
	}
}

// flattenOffers lifts offer price/url into the shared field vocabulary.
func flattenOffers(raw models.RawRecord) {
	var offer map[string]any
	switch v := raw["offers"].(type) {
	case map[string]any:
		offer = v
	case []any:
		if len(v) > 0 {
			offer, _ = v[0].(map[string]any)
		}
	}
	if offer == nil {
		return
	}
	switch price := offer["price"].(type) {
	case string:
		if price != "" {
			raw["price_info"] = price + " €"
		}
	case float64:
		raw["price_info"] = fmt.Sprintf("%g €", price)
	}
	if u, ok := offer["url"].(string); ok && u != "" {
		raw["registration_url"] = u
	}
}
