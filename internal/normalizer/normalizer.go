// Package normalizer applies deterministic, source-agnostic text heuristics
// on top of whatever an adapter extracted: price/free detection, contact
// extraction and registration-link extraction. No I/O; given the same input
// it always produces the same output.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
)

// DefaultPriceInfo is used when no price signal exists in any text field.
const DefaultPriceInfo = "Consultar con el organizador"

var freePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bgratis\b`),
	regexp.MustCompile(`(?i)\bgratuit[oa]\b`),
	regexp.MustCompile(`(?i)\bentrada\s+libre\b`),
	regexp.MustCompile(`(?i)\bacceso\s+(?:libre|gratuito)\b`),
	regexp.MustCompile(`(?i)\bsin\s+coste\b`),
	regexp.MustCompile(`(?i)\bfree\s+(?:entry|admission)\b`),
	regexp.MustCompile(`\b0(?:[.,]00)?\s*[€$]`),
}

var pricePatterns = []*regexp.Regexp{
	// "15€", "15 €", "15 euros"
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d{1,2})?)\s*(?:€|euros?\b)`),
	// "€15", "€ 15"
	regexp.MustCompile(`€\s*(\d+(?:[.,]\d{1,2})?)`),
	// "Precio: 15", "Entrada: 15"
	regexp.MustCompile(`(?i)(?:precio|entradas?)\s*:\s*(\d+(?:[.,]\d{1,2})?)`),
	// "desde 15"
	regexp.MustCompile(`(?i)desde\s+(\d+(?:[.,]\d{1,2})?)`),
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// Spanish 9-digit numbers starting 6-9, with optional +34 prefix and
	// space/dot/dash separators
	phonePattern  = regexp.MustCompile(`(?:\+?34)?[\s.\-]?([6789]\d{2})[\s.\-]?(\d{3})[\s.\-]?(\d{3})\b`)
	anchorPattern = regexp.MustCompile(`(?is)<a\s[^>]*href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	urlPattern    = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]+>`)
	spacePattern  = regexp.MustCompile(`[ \t]{2,}`)
)

// Known ticketing platforms checked before generic registration keywords.
var ticketPlatforms = []string{
	"eventbrite.", "ticketmaster.", "entradas.com", "ticketea.",
	"wegow.", "dice.fm", "fever.", "bandsintown.", "songkick.",
	"notikumi.", "taquilla.com", "atrapalo.", "stubhub.",
}

var registrationKeywords = []string{
	"entrada", "entradas", "ticket", "tickets",
	"reserva", "reservar", "booking",
	"inscripcion", "inscripción", "registro",
	"comprar", "compra", "venta", "taquilla",
}

// PriceSignal is the outcome of scanning free text for pricing.
type PriceSignal struct {
	IsFree *bool
	Price  *float64
	Info   string
}

// DetectPrice scans free text for price signals. Free tokens win over
// numeric amounts; absence of any signal leaves IsFree nil and Info empty.
func DetectPrice(text string) PriceSignal {
	if text == "" {
		return PriceSignal{}
	}

	for _, re := range freePatterns {
		if re.MatchString(text) {
			free := true
			zero := 0.0
			return PriceSignal{IsFree: &free, Price: &zero, Info: "Gratuito"}
		}
	}

	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", ".")
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		paid := false
		info := strings.TrimSpace(text)
		// Truncate on a rune boundary; price text is full of € signs.
		if r := []rune(info); len(r) > 200 {
			info = string(r[:200])
		}
		return PriceSignal{IsFree: &paid, Price: &price, Info: info}
	}

	return PriceSignal{}
}

// ExtractEmail returns the first email address found in text, lowercased.
func ExtractEmail(text string) string {
	m := emailPattern.FindString(text)
	return strings.ToLower(m)
}

// ExtractPhone returns the first Spanish-format phone number found in text,
// normalized to "XXX XXX XXX".
func ExtractPhone(text string) string {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2] + " " + m[3]
}

// ExtractRegistrationURL picks a ticketing/registration link from the given
// texts. Known ticket platforms take priority over registration keywords.
func ExtractRegistrationURL(texts ...string) string {
	var urls []string
	for _, text := range texts {
		for _, m := range anchorPattern.FindAllStringSubmatch(text, -1) {
			urls = append(urls, m[1])
		}
		urls = append(urls, urlPattern.FindAllString(text, -1)...)
	}
	if len(urls) == 0 {
		return ""
	}

	for i, u := range urls {
		urls[i] = strings.TrimRight(u, ".,;:!?)")
	}

	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, platform := range ticketPlatforms {
			if strings.Contains(lower, platform) {
				return u
			}
		}
	}
	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, kw := range registrationKeywords {
			if strings.Contains(lower, kw) {
				return u
			}
		}
	}
	return ""
}

// StripAnchors replaces anchor markup with its label and removes leftover
// tags, leaving clean prose for fields shown as text.
func StripAnchors(text string) string {
	if text == "" {
		return ""
	}
	text = anchorPattern.ReplaceAllString(text, "$2")
	text = tagPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Normalize applies all heuristics to an event in place: pricing from the
// price text and description, one email and one phone, registration link
// extraction, and anchor cleanup on prose fields. PriceInfo is never left
// empty.
func Normalize(ev *models.CanonicalEvent) {
	priceText := ev.PriceInfo
	if priceText == "" {
		priceText = ev.Description
	}

	if ev.IsFree == nil && ev.Price == nil {
		sig := DetectPrice(priceText)
		if sig.IsFree != nil {
			ev.IsFree = sig.IsFree
			ev.Price = sig.Price
			if ev.PriceInfo == "" {
				ev.PriceInfo = sig.Info
			}
		}
	}

	if ev.ContactEmail == "" {
		ev.ContactEmail = ExtractEmail(ev.Description)
	}
	if ev.ContactPhone == "" {
		ev.ContactPhone = ExtractPhone(ev.Description)
	}

	if ev.RegistrationURL == "" {
		ev.RegistrationURL = ExtractRegistrationURL(ev.PriceInfo, ev.Description)
	}

	ev.PriceInfo = StripAnchors(ev.PriceInfo)
	ev.Description = StripAnchors(ev.Description)

	if ev.PriceInfo == "" {
		ev.PriceInfo = DefaultPriceInfo
	}
}
