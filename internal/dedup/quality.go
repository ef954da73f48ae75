package dedup

import "github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"

// Per-field weights added on top of the tier base score when computing a
// contribution's quality score. A long description is worth the most; an
// external link the least.
var fieldWeights = map[string]int{
	"description":      10,
	"image_url":        8,
	"coordinates":      7,
	"end_date":         5,
	"price_info":       5,
	"organizer":        4,
	"start_time":       3,
	"end_time":         3,
	"category":         3,
	"external_url":     2,
	"registration_url": 2,
	"contact_email":    1,
	"contact_phone":    1,
}

// QualityScore computes the contribution score for an event coming from a
// source with the given tier base score.
func QualityScore(base int, fields []string) int {
	score := base
	for _, f := range fields {
		score += fieldWeights[f]
	}
	return score
}

// contributedFields lists the names of the optional fields the event
// actually carries. Used for the primary contribution on INSERT.
func contributedFields(ev *models.CanonicalEvent) []string {
	var fields []string
	add := func(name string, present bool) {
		if present {
			fields = append(fields, name)
		}
	}
	// Stub descriptions carry no weight; only substantial text counts.
	add("description", len(ev.Description) > 50)
	add("image_url", ev.ImageURL != "")
	add("coordinates", ev.Latitude != nil && ev.Longitude != nil)
	add("end_date", ev.EndDate != nil)
	add("price_info", ev.PriceInfo != "")
	add("organizer", ev.Organizer != "")
	add("start_time", ev.StartTime != "")
	add("end_time", ev.EndTime != "")
	add("category", ev.Category != "")
	add("external_url", ev.ExternalURL != "")
	add("registration_url", ev.RegistrationURL != "")
	add("contact_email", ev.ContactEmail != "")
	add("contact_phone", ev.ContactPhone != "")
	return fields
}
