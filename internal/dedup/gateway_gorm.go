package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
)

// GormGateway is the PostgreSQL-backed Gateway.
type GormGateway struct {
	db *gorm.DB
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func (g *GormGateway) FindByKey(ctx context.Context, sourceID, externalID string) (*models.Event, error) {
	var event models.Event
	err := g.db.WithContext(ctx).
		Where("source_id = ? AND external_id = ?", sourceID, externalID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up event by source key: %w", err)
	}
	return &event, nil
}

func (g *GormGateway) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Event, error) {
	var event models.Event
	err := g.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up event by fingerprint: %w", err)
	}
	return &event, nil
}

func (g *GormGateway) Insert(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := g.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (g *GormGateway) Merge(ctx context.Context, eventID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := g.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to merge event fields: %w", err)
	}
	return nil
}

func (g *GormGateway) FindContribution(ctx context.Context, eventID uuid.UUID, sourceID string) (*models.SourceContribution, error) {
	var contribution models.SourceContribution
	err := g.db.WithContext(ctx).
		Where("event_id = ? AND source_id = ?", eventID, sourceID).
		First(&contribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up contribution: %w", err)
	}
	return &contribution, nil
}

func (g *GormGateway) RecordContribution(ctx context.Context, contribution *models.SourceContribution) error {
	var err error
	if contribution.ID != 0 {
		err = g.db.WithContext(ctx).Save(contribution).Error
	} else {
		err = g.db.WithContext(ctx).Create(contribution).Error
	}
	if err != nil {
		return fmt.Errorf("failed to record contribution: %w", err)
	}
	return nil
}
