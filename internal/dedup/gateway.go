package dedup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
)

// Gateway is the persistence boundary of the dedup engine. Lookups return
// (nil, nil) when no row matches. All calls are composed by the engine
// inside one per-fingerprint critical section.
type Gateway interface {
	FindByKey(ctx context.Context, sourceID, externalID string) (*models.Event, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.Event, error)
	Insert(ctx context.Context, event *models.Event) error
	Merge(ctx context.Context, eventID uuid.UUID, fields map[string]any) error
	FindContribution(ctx context.Context, eventID uuid.UUID, sourceID string) (*models.SourceContribution, error)
	RecordContribution(ctx context.Context, contribution *models.SourceContribution) error
}

// MemoryGateway is an in-memory Gateway used by tests and dry-run jobs.
type MemoryGateway struct {
	mu            sync.Mutex
	events        map[uuid.UUID]*models.Event
	contributions map[uuid.UUID]map[string]*models.SourceContribution
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		events:        make(map[uuid.UUID]*models.Event),
		contributions: make(map[uuid.UUID]map[string]*models.SourceContribution),
	}
}

func (g *MemoryGateway) FindByKey(_ context.Context, sourceID, externalID string) (*models.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ev := range g.events {
		if ev.SourceID == sourceID && ev.ExternalID == externalID {
			copied := *ev
			return &copied, nil
		}
	}
	return nil, nil
}

func (g *MemoryGateway) FindByFingerprint(_ context.Context, fingerprint string) (*models.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ev := range g.events {
		if ev.Fingerprint == fingerprint {
			copied := *ev
			return &copied, nil
		}
	}
	return nil, nil
}

func (g *MemoryGateway) Insert(_ context.Context, event *models.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	copied := *event
	g.events[event.ID] = &copied
	return nil
}

func (g *MemoryGateway) Merge(_ context.Context, eventID uuid.UUID, fields map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ev, ok := g.events[eventID]
	if !ok {
		return nil
	}
	applyUpdates(ev, fields)
	return nil
}

func (g *MemoryGateway) FindContribution(_ context.Context, eventID uuid.UUID, sourceID string) (*models.SourceContribution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	bySource, ok := g.contributions[eventID]
	if !ok {
		return nil, nil
	}
	c, ok := bySource[sourceID]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (g *MemoryGateway) RecordContribution(_ context.Context, contribution *models.SourceContribution) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	bySource, ok := g.contributions[contribution.EventID]
	if !ok {
		bySource = make(map[string]*models.SourceContribution)
		g.contributions[contribution.EventID] = bySource
	}
	copied := *contribution
	bySource[contribution.SourceID] = &copied
	return nil
}

// Events returns all stored events, ordered by title for stable assertions.
func (g *MemoryGateway) Events() []models.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Event, 0, len(g.events))
	for _, ev := range g.events {
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Contributions returns all contributions for an event.
func (g *MemoryGateway) Contributions(eventID uuid.UUID) []models.SourceContribution {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.SourceContribution
	for _, c := range g.contributions[eventID] {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// applyUpdates mirrors the column update map onto the in-memory struct.
func applyUpdates(ev *models.Event, fields map[string]any) {
	for name, val := range fields {
		switch name {
		case "description":
			ev.Description = val.(string)
		case "summary":
			ev.Summary = val.(string)
		case "start_time":
			ev.StartTime = val.(string)
		case "end_time":
			ev.EndTime = val.(string)
		case "venue":
			ev.Venue = val.(string)
		case "city":
			ev.City = val.(string)
		case "province":
			ev.Province = val.(string)
		case "category":
			ev.Category = val.(string)
		case "image_url":
			ev.ImageURL = val.(string)
		case "image_author":
			ev.ImageAuthor = val.(string)
		case "image_author_url":
			ev.ImageAuthorURL = val.(string)
		case "registration_url":
			ev.RegistrationURL = val.(string)
		case "external_url":
			ev.ExternalURL = val.(string)
		case "organizer":
			ev.Organizer = val.(string)
		case "contact_email":
			ev.ContactEmail = val.(string)
		case "contact_phone":
			ev.ContactPhone = val.(string)
		case "price_info":
			ev.PriceInfo = val.(string)
		case "is_free":
			b := val.(bool)
			ev.IsFree = &b
		case "price":
			f := val.(float64)
			ev.Price = &f
		case "latitude":
			f := val.(float64)
			ev.Latitude = &f
		case "longitude":
			f := val.(float64)
			ev.Longitude = &f
		case "end_date":
			t := val.(time.Time)
			ev.EndDate = &t
		}
	}
}
