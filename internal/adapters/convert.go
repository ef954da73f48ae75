package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// Field name variants seen across Spanish open-data APIs, feeds and
// schema.org payloads. First present key wins.
var (
	titleKeys       = []string{"title", "titulo", "name", "nombre", "summary"}
	startDateKeys   = []string{"start_date", "startDate", "fecha_inicio", "fecha", "date", "dtstart"}
	endDateKeys     = []string{"end_date", "endDate", "fecha_fin", "dtend"}
	startTimeKeys   = []string{"start_time", "hora_inicio", "hora"}
	endTimeKeys     = []string{"end_time", "hora_fin"}
	venueKeys       = []string{"venue", "lugar", "location", "espacio", "recinto"}
	cityKeys        = []string{"city", "municipio", "localidad", "ciudad", "addressLocality"}
	provinceKeys    = []string{"province", "provincia", "addressRegion"}
	descriptionKeys = []string{"description", "descripcion", "content", "body"}
	imageKeys       = []string{"image", "image_url", "imagen", "photo", "thumbnail"}
	urlKeys         = []string{"url", "link", "enlace", "external_url"}
	priceKeys       = []string{"price_info", "precio", "price", "tarifa"}
	organizerKeys   = []string{"organizer", "organizador", "organiza"}
	regURLKeys      = []string{"registration_url", "tickets_url", "entradas_url"}
	externalIDKeys  = []string{"external_id", "id", "uid", "guid", "identifier", "event_id"}
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	time.RFC1123Z,
	time.RFC1123,
}

var inlineDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4})\b`)

// canonicalize maps a raw record to a canonical event using the shared field
// vocabulary. Returns nil when the record has no title, no parsable date or
// describes an event that already ended.
func canonicalize(src registry.SourceDescriptor, raw models.RawRecord) *models.CanonicalEvent {
	title := strings.TrimSpace(firstString(raw, titleKeys...))
	if title == "" {
		return nil
	}

	start, ok := parseAnyDate(firstString(raw, startDateKeys...))
	if !ok {
		return nil
	}
	var endPtr *time.Time
	if end, ok := parseAnyDate(firstString(raw, endDateKeys...)); ok {
		endPtr = &end
	}
	if isPast(start, endPtr) {
		return nil
	}

	ev := &models.CanonicalEvent{
		Title:           title,
		StartDate:       start,
		EndDate:         endPtr,
		StartTime:       firstString(raw, startTimeKeys...),
		EndTime:         firstString(raw, endTimeKeys...),
		Venue:           firstString(raw, venueKeys...),
		City:            firstString(raw, cityKeys...),
		Province:        firstString(raw, provinceKeys...),
		Description:     strings.TrimSpace(firstString(raw, descriptionKeys...)),
		ImageURL:        firstString(raw, imageKeys...),
		ExternalURL:     firstString(raw, urlKeys...),
		PriceInfo:       firstString(raw, priceKeys...),
		Organizer:       firstString(raw, organizerKeys...),
		RegistrationURL: firstString(raw, regURLKeys...),
		Category:        firstString(raw, "category", "categoria", "tipo"),
		SourceID:        src.Slug,
	}

	ev.ExternalID = firstString(raw, externalIDKeys...)
	if ev.ExternalID == "" {
		// Stable fallback so re-ingestion of the same item maps to the
		// same (source_id, external_id) key.
		ev.ExternalID = shortHash(title + "|" + start.Format("2006-01-02") + "|" + ev.ExternalURL)
	}

	return ev
}

// firstString returns the first present key coerced to a string.
func firstString(raw models.RawRecord, keys ...string) string {
	for _, key := range keys {
		val, ok := raw[key]
		if !ok || val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strings.TrimSuffix(fmt.Sprintf("%f", v), ".000000")
		case map[string]any:
			// schema.org nested objects carry their text in "name" or "url"
			if s, ok := v["name"].(string); ok && s != "" {
				return s
			}
			if s, ok := v["url"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// parseAnyDate tries the known layouts, then an inline date inside free text.
func parseAnyDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Truncate(24 * time.Hour), true
		}
	}
	if m := inlineDatePattern.FindString(value); m != "" && m != value {
		return parseAnyDate(m)
	}
	return time.Time{}, false
}

// findDate searches free text for the first recognizable date.
func findDate(texts ...string) (time.Time, bool) {
	for _, text := range texts {
		if m := inlineDatePattern.FindString(text); m != "" {
			if t, ok := parseAnyDate(m); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// isPast reports whether the event is over: neither ongoing (end date today
// or later) nor upcoming (start date today or later).
func isPast(start time.Time, end *time.Time) bool {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if end != nil && !end.Before(today) {
		return false
	}
	return start.Before(today)
}

func shortHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}
