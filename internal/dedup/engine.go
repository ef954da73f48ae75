// Package dedup decides, for each canonical event about to be committed,
// whether it is new (INSERT), completes an existing event (MERGE) or adds
// nothing (SKIP). Matching is deterministic: exact source key first, then a
// content fingerprint over the normalized (title, start date, city) triple.
package dedup

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
)

// Action is the dedup decision for one event.
type Action string

const (
	ActionInsert Action = "insert"
	ActionMerge  Action = "merge"
	ActionSkip   Action = "skip"
)

// Decision is the ephemeral per-event result consumed by the orchestrator.
type Decision struct {
	Action            Action
	EventID           uuid.UUID
	FieldsContributed []string
}

// Engine runs the match-and-write step. Decisions for the same fingerprint
// are serialized so concurrent ingestion of one event from two sources
// cannot produce two inserts; nothing else is held under the lock.
type Engine struct {
	gateway Gateway
	logger  *zap.Logger
	locks   keyedMutex
}

func NewEngine(gateway Gateway, logger *zap.Logger) *Engine {
	return &Engine{
		gateway: gateway,
		logger:  logger,
		locks:   keyedMutex{entries: make(map[string]*lockEntry)},
	}
}

// Process decides and applies the outcome for one canonical event.
// qualityBase is the tier base score of the contributing source.
func (e *Engine) Process(ctx context.Context, ev *models.CanonicalEvent, qualityBase int) (Decision, error) {
	if ev.Title == "" || ev.StartDate.IsZero() || ev.SourceID == "" || ev.ExternalID == "" {
		return Decision{}, fmt.Errorf("event is missing required fields (title, start_date, source_id, external_id)")
	}

	fp := Fingerprint(ev.Title, ev.StartDate, ev.City)

	unlock := e.locks.lock(fp)
	defer unlock()

	// Re-ingestion of the same item from the same source: idempotent upsert
	// against itself, never a new insert.
	existing, err := e.gateway.FindByKey(ctx, ev.SourceID, ev.ExternalID)
	if err != nil {
		return Decision{}, err
	}
	if existing != nil {
		return e.merge(ctx, existing, ev, qualityBase)
	}

	// Fingerprint hit from a different source: cross-source duplicate.
	existing, err = e.gateway.FindByFingerprint(ctx, fp)
	if err != nil {
		return Decision{}, err
	}
	if existing != nil {
		return e.merge(ctx, existing, ev, qualityBase)
	}

	return e.insert(ctx, ev, fp, qualityBase)
}

func (e *Engine) insert(ctx context.Context, ev *models.CanonicalEvent, fp string, qualityBase int) (Decision, error) {
	row := ev.ToEvent()
	row.Fingerprint = fp
	if err := e.gateway.Insert(ctx, row); err != nil {
		return Decision{}, err
	}

	fields := contributedFields(ev)
	contribution := &models.SourceContribution{
		EventID:      row.ID,
		SourceID:     ev.SourceID,
		ExternalID:   ev.ExternalID,
		IsPrimary:    true,
		QualityScore: QualityScore(qualityBase, fields),
	}
	contribution.AppendFields(fields)
	if err := e.gateway.RecordContribution(ctx, contribution); err != nil {
		return Decision{}, err
	}

	e.logger.Debug("event inserted",
		zap.String("source", ev.SourceID),
		zap.String("external_id", ev.ExternalID),
		zap.String("fingerprint", fp),
	)
	return Decision{Action: ActionInsert, EventID: row.ID, FieldsContributed: fields}, nil
}

func (e *Engine) merge(ctx context.Context, existing *models.Event, ev *models.CanonicalEvent, qualityBase int) (Decision, error) {
	updates, fields := fillGaps(existing, ev)

	if len(updates) == 0 {
		// Nothing this source can contribute that the current winner does
		// not already have. The decision is still surfaced for audit.
		e.logger.Debug("event skipped, no fields to contribute",
			zap.String("source", ev.SourceID),
			zap.String("external_id", ev.ExternalID),
			zap.String("matched_event", existing.ID.String()),
		)
		return Decision{Action: ActionSkip, EventID: existing.ID}, nil
	}

	if err := e.gateway.Merge(ctx, existing.ID, updates); err != nil {
		return Decision{}, err
	}
	if err := e.recordSecondary(ctx, existing.ID, ev, qualityBase, fields); err != nil {
		return Decision{}, err
	}

	e.logger.Debug("event merged",
		zap.String("source", ev.SourceID),
		zap.String("matched_event", existing.ID.String()),
		zap.Strings("fields", fields),
	)
	return Decision{Action: ActionMerge, EventID: existing.ID, FieldsContributed: fields}, nil
}

// recordSecondary upserts the contribution row for (event, source): a second
// merge from the same source appends to its existing row instead of
// duplicating it.
func (e *Engine) recordSecondary(ctx context.Context, eventID uuid.UUID, ev *models.CanonicalEvent, qualityBase int, fields []string) error {
	contribution, err := e.gateway.FindContribution(ctx, eventID, ev.SourceID)
	if err != nil {
		return err
	}
	if contribution == nil {
		contribution = &models.SourceContribution{
			EventID:    eventID,
			SourceID:   ev.SourceID,
			ExternalID: ev.ExternalID,
			IsPrimary:  false,
		}
	}
	contribution.AppendFields(fields)
	contribution.QualityScore = QualityScore(qualityBase, contribution.Fields())
	return e.gateway.RecordContribution(ctx, contribution)
}

// keyedMutex serializes callers holding the same key. Entries are
// reference-counted so the map does not grow with the fingerprint space.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	m    sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.m.Lock()
	return func() {
		entry.m.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
