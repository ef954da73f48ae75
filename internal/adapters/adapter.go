// Package adapters implements the tiered fetch/parse contract. Every
// adapter, regardless of tier, exposes exactly two operations: FetchRaw
// retrieves tier-specific raw records (re-fetching on every call, no
// caching) and Parse converts one raw record to a canonical event or nil
// for items that are not valid future events.
package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// Adapter is the uniform contract over API, feed and scraper sources.
type Adapter interface {
	// FetchRaw performs the tier-specific retrieval, applying the source's
	// rate-limit delay between the network calls it makes internally.
	// limit <= 0 means no cap.
	FetchRaw(ctx context.Context, src registry.SourceDescriptor, limit int) ([]models.RawRecord, error)

	// Parse converts one raw record. A (nil, nil) return means the item is
	// not a valid future event (already ended, malformed date) and is not
	// an error.
	Parse(src registry.SourceDescriptor, raw models.RawRecord) (*models.CanonicalEvent, error)
}

// ForTier selects the adapter variant for a source tier.
func ForTier(tier registry.Tier, client *HTTPClient, logger *zap.Logger) (Adapter, error) {
	switch tier {
	case registry.TierGold:
		return &goldAdapter{client: client, logger: logger.Named("adapter.gold")}, nil
	case registry.TierSilver:
		return &silverAdapter{client: client, logger: logger.Named("adapter.silver")}, nil
	case registry.TierBronze:
		return &bronzeAdapter{client: client, logger: logger.Named("adapter.bronze")}, nil
	default:
		return nil, fmt.Errorf("no adapter for tier: %s", tier)
	}
}
