package registry

import (
	"fmt"
	"strings"
)

// Tier is the trust/quality classification of a source. It drives which
// enrichment model is requested and the baseline quality score of a
// contribution.
type Tier string

const (
	TierGold   Tier = "gold"   // structured JSON APIs
	TierSilver Tier = "silver" // RSS/Atom/iCal feeds
	TierBronze Tier = "bronze" // scraped HTML pages
)

// ParseTier parses a string into a Tier
// Returns an error if the tier is unknown
func ParseTier(name string) (Tier, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	validTiers := []Tier{
		TierGold,
		TierSilver,
		TierBronze,
	}

	for _, tier := range validTiers {
		if string(tier) == name {
			return tier, nil
		}
	}

	return "", fmt.Errorf("unknown source tier: %s", name)
}

// BaseQualityScore is the baseline contribution score for a tier,
// used for merge tie-breaking (Gold > Silver > Bronze).
func (t Tier) BaseQualityScore() int {
	switch t {
	case TierGold:
		return 30
	case TierSilver:
		return 20
	case TierBronze:
		return 10
	default:
		return 0
	}
}

// EnrichmentModel selects the external LLM model for a tier. Clean API
// payloads need a fast structured model; scraped text needs deeper reasoning.
func (t Tier) EnrichmentModel() string {
	switch t {
	case TierGold:
		return "gpt-oss-120b"
	case TierSilver:
		return "llama-3.3-70b"
	case TierBronze:
		return "kimi-k2"
	default:
		return "llama-3.3-70b"
	}
}
