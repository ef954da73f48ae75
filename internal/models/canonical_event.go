package models

import "time"

// RawRecord is a tier-specific payload produced by an adapter's fetch step
// and consumed immediately by the same adapter's parse step. Never persisted.
type RawRecord map[string]any

// CanonicalEvent is the normalized, source-agnostic representation of one
// event as it moves through the pipeline, before the dedup decision.
type CanonicalEvent struct {
	Title     string
	StartDate time.Time
	EndDate   *time.Time
	StartTime string
	EndTime   string

	Venue     string
	City      string
	Province  string
	Latitude  *float64
	Longitude *float64

	IsFree    *bool
	Price     *float64
	PriceInfo string

	Description string
	Summary     string
	Category    string

	ImageURL       string
	ImageAuthor    string
	ImageAuthorURL string

	RegistrationURL string
	ExternalURL     string
	Organizer       string
	ContactEmail    string
	ContactPhone    string

	SourceID   string
	ExternalID string
}

// ToEvent copies the canonical event into a fresh Event row.
func (e *CanonicalEvent) ToEvent() *Event {
	return &Event{
		Title:           e.Title,
		StartDate:       e.StartDate,
		EndDate:         e.EndDate,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Venue:           e.Venue,
		City:            e.City,
		Province:        e.Province,
		Latitude:        e.Latitude,
		Longitude:       e.Longitude,
		IsFree:          e.IsFree,
		Price:           e.Price,
		PriceInfo:       e.PriceInfo,
		Description:     e.Description,
		Summary:         e.Summary,
		Category:        e.Category,
		ImageURL:        e.ImageURL,
		ImageAuthor:     e.ImageAuthor,
		ImageAuthorURL:  e.ImageAuthorURL,
		RegistrationURL: e.RegistrationURL,
		ExternalURL:     e.ExternalURL,
		Organizer:       e.Organizer,
		ContactEmail:    e.ContactEmail,
		ContactPhone:    e.ContactPhone,
		SourceID:        e.SourceID,
		ExternalID:      e.ExternalID,
	}
}
