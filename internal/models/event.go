package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a stored canonical event. One row exists per real-world event;
// the sources that supplied its fields are tracked in SourceContribution.
type Event struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	StartDate   time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate     *time.Time `gorm:"type:date" json:"end_date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Venue       string     `json:"venue"`
	City        string     `json:"city"`
	Province    string     `json:"province"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	IsFree      *bool      `json:"is_free"`
	Price       *float64   `json:"price"`
	PriceInfo   string     `json:"price_info"`
	Description string     `gorm:"type:text" json:"description"`
	Summary     string     `json:"summary"`
	Category    string     `json:"category"`

	ImageURL       string `json:"image_url"`
	ImageAuthor    string `json:"image_author"`
	ImageAuthorURL string `json:"image_author_url"`

	RegistrationURL string `json:"registration_url"`
	ExternalURL     string `json:"external_url"`
	Organizer       string `json:"organizer"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`

	// Identity of the first (primary) source that produced this row
	SourceID   string `gorm:"not null;index:idx_events_source_key,unique" json:"source_id"`
	ExternalID string `gorm:"not null;index:idx_events_source_key,unique" json:"external_id"`

	// Derived matching key over (normalized title, start date, city)
	Fingerprint string `gorm:"not null;uniqueIndex:idx_events_fingerprint" json:"fingerprint"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}
