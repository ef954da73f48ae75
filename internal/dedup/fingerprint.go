package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Diacritics are folded by table rather than a Unicode normalizer so the
// fingerprint stays stable across library upgrades.
var diacriticFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
	"ä", "a", "ë", "e", "ï", "i", "ö", "o", "ü", "u",
	"ñ", "n", "ç", "c",
)

var (
	punctPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	// Region suffixes some aggregators attach to city names
	// ("Valladolid y Campiña del Pisuerga", "León y Comarca")
	citySuffixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s+y\s+comarca.*$`),
		regexp.MustCompile(`\s+y\s+campina.*$`),
		regexp.MustCompile(`\s+y\s+alfoz.*$`),
		regexp.MustCompile(`\s+y\s+area\s+metropolitana.*$`),
		regexp.MustCompile(`\s+y\s+entorno.*$`),
		regexp.MustCompile(`\s+metropolitano.*$`),
	}
)

// NormalizeText lowercases, folds diacritics, strips punctuation and
// collapses whitespace.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = diacriticFolder.Replace(text)
	text = punctPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeCity normalizes a city name for matching, additionally dropping
// aggregator region suffixes.
func NormalizeCity(city string) string {
	city = NormalizeText(city)
	for _, re := range citySuffixPatterns {
		city = re.ReplaceAllString(city, "")
	}
	return strings.TrimSpace(city)
}

// Fingerprint derives the stable matching key for an event: a truncated
// SHA-256 over the normalized title, start date and city. Deterministic
// given the same inputs; recomputed on demand, never stored independently
// of the event row.
func Fingerprint(title string, startDate time.Time, city string) string {
	key := NormalizeText(title) + "|" + startDate.Format("2006-01-02") + "|" + NormalizeCity(city)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32]
}
