package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/normalizer"
)

func testEvent(sourceID, externalID string) *models.CanonicalEvent {
	return &models.CanonicalEvent{
		Title:      "Concierto de Jazz",
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		City:       "Madrid",
		SourceID:   sourceID,
		ExternalID: externalID,
	}
}

func TestProcessInsertsNewEvent(t *testing.T) {
	gw := NewMemoryGateway()
	engine := NewEngine(gw, zap.NewNop())

	ev := testEvent("src-a", "ext-1")
	ev.Description = "Una noche de jazz en directo con artistas invitados de la escena madrileña."

	decision, err := engine.Process(context.Background(), ev, 30)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if decision.Action != ActionInsert {
		t.Fatalf("action = %s, want insert", decision.Action)
	}

	events := gw.Events()
	if len(events) != 1 {
		t.Fatalf("stored events = %d, want 1", len(events))
	}
	if events[0].Fingerprint == "" {
		t.Fatal("stored event has no fingerprint")
	}

	contribs := gw.Contributions(decision.EventID)
	if len(contribs) != 1 || !contribs[0].IsPrimary {
		t.Fatalf("want one primary contribution, got %#v", contribs)
	}
	// base 30 + description 10
	if contribs[0].QualityScore != 40 {
		t.Fatalf("quality score = %d, want 40", contribs[0].QualityScore)
	}
}

func TestProcessRejectsIncompleteEvent(t *testing.T) {
	engine := NewEngine(NewMemoryGateway(), zap.NewNop())

	ev := testEvent("src-a", "ext-1")
	ev.Title = ""
	if _, err := engine.Process(context.Background(), ev, 30); err == nil {
		t.Fatal("expected error for event without title")
	}
}

func TestProcessReingestionIsIdempotent(t *testing.T) {
	gw := NewMemoryGateway()
	engine := NewEngine(gw, zap.NewNop())
	ctx := context.Background()

	ev := testEvent("src-a", "ext-1")
	ev.Description = "Una noche de jazz."
	if _, err := engine.Process(ctx, ev, 30); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	again := testEvent("src-a", "ext-1")
	again.Description = "Una noche de jazz."
	decision, err := engine.Process(ctx, again, 30)
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if decision.Action != ActionSkip {
		t.Fatalf("re-ingest action = %s, want skip", decision.Action)
	}
	if got := len(gw.Events()); got != 1 {
		t.Fatalf("stored events = %d, want 1", got)
	}
	if got := len(gw.Contributions(decision.EventID)); got != 1 {
		t.Fatalf("contributions = %d, want 1", got)
	}
}

func TestProcessCrossSourceMergeFillsGapsOnly(t *testing.T) {
	gw := NewMemoryGateway()
	engine := NewEngine(gw, zap.NewNop())
	ctx := context.Background()

	first := testEvent("src-gold", "g-1")
	first.Venue = "Sala Clamores"
	first.PriceInfo = normalizer.DefaultPriceInfo
	if _, err := engine.Process(ctx, first, 30); err != nil {
		t.Fatalf("insert: %v", err)
	}

	second := testEvent("src-bronze", "b-9")
	second.Venue = "Otro sitio"
	second.Description = "Programa completo del concierto."
	second.PriceInfo = "Entrada: 5€"
	decision, err := engine.Process(ctx, second, 10)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if decision.Action != ActionMerge {
		t.Fatalf("action = %s, want merge", decision.Action)
	}

	stored := gw.Events()
	if len(stored) != 1 {
		t.Fatalf("stored events = %d, want 1", len(stored))
	}
	// Populated fields keep the first writer's value.
	if stored[0].Venue != "Sala Clamores" {
		t.Fatalf("venue overwritten: %q", stored[0].Venue)
	}
	// Gaps are filled, and a placeholder price counts as a gap.
	if stored[0].Description != "Programa completo del concierto." {
		t.Fatalf("description not merged: %q", stored[0].Description)
	}
	if stored[0].PriceInfo != "Entrada: 5€" {
		t.Fatalf("price placeholder not replaced: %q", stored[0].PriceInfo)
	}

	contribs := gw.Contributions(decision.EventID)
	if len(contribs) != 2 {
		t.Fatalf("contributions = %d, want 2", len(contribs))
	}
	for _, c := range contribs {
		if c.SourceID == "src-gold" && !c.IsPrimary {
			t.Fatal("first source lost primary flag")
		}
		if c.SourceID == "src-bronze" && c.IsPrimary {
			t.Fatal("secondary source marked primary")
		}
	}
}

func TestProcessMergeOrderIndependentForGaps(t *testing.T) {
	ctx := context.Background()

	ingestBoth := func(order []*models.CanonicalEvent) models.Event {
		gw := NewMemoryGateway()
		engine := NewEngine(gw, zap.NewNop())
		for _, ev := range order {
			if _, err := engine.Process(ctx, ev, 20); err != nil {
				t.Fatalf("Process: %v", err)
			}
		}
		events := gw.Events()
		if len(events) != 1 {
			t.Fatalf("stored events = %d, want 1", len(events))
		}
		return events[0]
	}

	mkA := func() *models.CanonicalEvent {
		ev := testEvent("src-a", "a-1")
		ev.Description = "Descripción larga."
		return ev
	}
	mkB := func() *models.CanonicalEvent {
		ev := testEvent("src-b", "b-1")
		ev.Organizer = "Ayuntamiento"
		return ev
	}

	ab := ingestBoth([]*models.CanonicalEvent{mkA(), mkB()})
	ba := ingestBoth([]*models.CanonicalEvent{mkB(), mkA()})

	// Disjoint fields end up identical regardless of arrival order.
	if ab.Description != ba.Description || ab.Organizer != ba.Organizer {
		t.Fatalf("merge is order dependent: %+v vs %+v", ab, ba)
	}
}

func TestProcessConcurrentSameFingerprintSingleInsert(t *testing.T) {
	gw := NewMemoryGateway()
	engine := NewEngine(gw, zap.NewNop())
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := testEvent("src-"+string(rune('a'+i%4)), "ext-1")
			if _, err := engine.Process(ctx, ev, 20); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Process: %v", err)
	}

	if got := len(gw.Events()); got != 1 {
		t.Fatalf("stored events = %d, want exactly 1", got)
	}
}

func TestQualityScore(t *testing.T) {
	score := QualityScore(30, []string{"description", "image_url", "coordinates"})
	if score != 55 {
		t.Fatalf("score = %d, want 55", score)
	}
	if QualityScore(10, nil) != 10 {
		t.Fatal("empty field list should return the base score")
	}
}

func TestStubDescriptionCarriesNoWeight(t *testing.T) {
	ev := testEvent("src-a", "ext-1")
	ev.Description = "Concierto."
	for _, f := range contributedFields(ev) {
		if f == "description" {
			t.Fatal("short description should not count as a contributed field")
		}
	}
	ev.Description = "Una noche de jazz en directo con artistas invitados de la escena madrileña."
	found := false
	for _, f := range contributedFields(ev) {
		if f == "description" {
			found = true
		}
	}
	if !found {
		t.Fatal("substantial description should count as a contributed field")
	}
}
