package dedup

import (
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/normalizer"
)

// fillGaps computes the field values an incoming event can contribute to a
// stored one: only fields that are empty on the stored row and non-empty on
// the incoming event. Populated fields of the current winner are never
// overwritten. Returns the column update map together with the contributed
// field names.
func fillGaps(existing *models.Event, ev *models.CanonicalEvent) (map[string]any, []string) {
	updates := make(map[string]any)
	var fields []string

	fillStr := func(name string, current *string, incoming string) {
		if *current == "" && incoming != "" {
			updates[name] = incoming
			*current = incoming
			fields = append(fields, name)
		}
	}

	fillStr("description", &existing.Description, ev.Description)
	fillStr("summary", &existing.Summary, ev.Summary)
	fillStr("start_time", &existing.StartTime, ev.StartTime)
	fillStr("end_time", &existing.EndTime, ev.EndTime)
	fillStr("venue", &existing.Venue, ev.Venue)
	fillStr("city", &existing.City, ev.City)
	fillStr("province", &existing.Province, ev.Province)
	fillStr("category", &existing.Category, ev.Category)
	fillStr("image_url", &existing.ImageURL, ev.ImageURL)
	fillStr("image_author", &existing.ImageAuthor, ev.ImageAuthor)
	fillStr("image_author_url", &existing.ImageAuthorURL, ev.ImageAuthorURL)
	fillStr("registration_url", &existing.RegistrationURL, ev.RegistrationURL)
	fillStr("external_url", &existing.ExternalURL, ev.ExternalURL)
	fillStr("organizer", &existing.Organizer, ev.Organizer)
	fillStr("contact_email", &existing.ContactEmail, ev.ContactEmail)
	fillStr("contact_phone", &existing.ContactPhone, ev.ContactPhone)

	if existing.EndDate == nil && ev.EndDate != nil {
		updates["end_date"] = *ev.EndDate
		end := *ev.EndDate
		existing.EndDate = &end
		fields = append(fields, "end_date")
	}

	if existing.Latitude == nil && existing.Longitude == nil && ev.Latitude != nil && ev.Longitude != nil {
		updates["latitude"] = *ev.Latitude
		updates["longitude"] = *ev.Longitude
		lat, lng := *ev.Latitude, *ev.Longitude
		existing.Latitude, existing.Longitude = &lat, &lng
		fields = append(fields, "coordinates")
	}

	// A "consult the organizer" placeholder carries no price signal and is
	// treated as a gap.
	if (existing.PriceInfo == "" || existing.PriceInfo == normalizer.DefaultPriceInfo) &&
		ev.PriceInfo != "" && ev.PriceInfo != normalizer.DefaultPriceInfo {
		updates["price_info"] = ev.PriceInfo
		existing.PriceInfo = ev.PriceInfo
		fields = append(fields, "price_info")
	}

	if existing.IsFree == nil && ev.IsFree != nil {
		updates["is_free"] = *ev.IsFree
		isFree := *ev.IsFree
		existing.IsFree = &isFree
		fields = append(fields, "is_free")
	}

	if existing.Price == nil && ev.Price != nil {
		updates["price"] = *ev.Price
		price := *ev.Price
		existing.Price = &price
		fields = append(fields, "price")
	}

	return updates, fields
}
