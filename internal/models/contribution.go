package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceContribution records which source supplied which fields to a stored
// event. Unique on (event_id, source_id): a later merge from the same source
// appends to FieldsContributed instead of creating a second row.
type SourceContribution struct {
	ID                int64     `gorm:"primary_key;autoIncrement" json:"id"`
	EventID           uuid.UUID `gorm:"type:uuid;not null;index:idx_contrib_event_source,unique" json:"event_id"`
	SourceID          string    `gorm:"not null;index:idx_contrib_event_source,unique" json:"source_id"`
	ExternalID        string    `gorm:"not null" json:"external_id"`
	FieldsContributed string    `gorm:"type:text" json:"fields_contributed"`
	IsPrimary         bool      `gorm:"not null;default:false" json:"is_primary"`
	QualityScore      int       `gorm:"not null;default:0" json:"quality_score"`
	CreatedAt         time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SourceContribution) TableName() string {
	return "event_source_contributions"
}

// Fields returns the contributed field names as a slice.
func (c *SourceContribution) Fields() []string {
	if c.FieldsContributed == "" {
		return nil
	}
	return strings.Split(c.FieldsContributed, ",")
}

// AppendFields adds field names not already present, preserving order.
func (c *SourceContribution) AppendFields(fields []string) {
	existing := c.Fields()
	seen := make(map[string]bool, len(existing))
	for _, f := range existing {
		seen[f] = true
	}
	for _, f := range fields {
		if !seen[f] {
			existing = append(existing, f)
			seen[f] = true
		}
	}
	c.FieldsContributed = strings.Join(existing, ",")
}
