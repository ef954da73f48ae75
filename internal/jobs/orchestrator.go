// Package jobs runs ingestion jobs. The orchestrator fans the selected
// sources out to a bounded worker pool and drives each event through
// normalization, enrichment and the dedup engine; the in-memory store
// tracks live progress and the append-only job log.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/adapters"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/config"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/dedup"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/enrich"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/metrics"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/normalizer"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// AdapterFactory resolves the adapter for a source tier.
type AdapterFactory func(tier registry.Tier) (adapters.Adapter, error)

// Options selects what a job ingests.
type Options struct {
	Filter registry.Filter
	Limit  int
	DryRun bool
}

// Orchestrator owns job execution. One orchestrator serves the whole
// process; jobs run on goroutines it spawns.
type Orchestrator struct {
	store      *Store
	registry   *registry.Registry
	engine     *dedup.Engine
	adapterFor AdapterFactory
	enricher   enrich.Enricher
	geocoder   enrich.Geocoder
	images     enrich.ImageResolver
	cfg        config.IngestConfig
	logger     *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewOrchestrator(
	store *Store,
	reg *registry.Registry,
	engine *dedup.Engine,
	adapterFor AdapterFactory,
	enricher enrich.Enricher,
	geocoder enrich.Geocoder,
	images enrich.ImageResolver,
	cfg config.IngestConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		registry:   reg,
		engine:     engine,
		adapterFor: adapterFor,
		enricher:   enricher,
		geocoder:   geocoder,
		images:     images,
		cfg:        cfg,
		logger:     logger,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Store exposes the job store for read-side handlers.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Submit registers a job for the sources matched by opts and starts it
// asynchronously. The returned id is immediately queryable.
func (o *Orchestrator) Submit(opts Options) (string, error) {
	opts.Filter.ActiveOnly = true
	sources := o.registry.List(opts.Filter)
	if len(sources) == 0 {
		return "", fmt.Errorf("no active sources match the requested filter")
	}

	slugs := make([]string, len(sources))
	for i, src := range sources {
		slugs[i] = src.Slug
	}

	id := uuid.New().String()
	o.store.Create(id, slugs, opts.DryRun)
	metrics.JobsSubmitted.Inc()

	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[id] = cancel
	o.mu.Unlock()

	go o.run(ctx, id, sources, opts)
	return id, nil
}

// Cancel requests cooperative cancellation. A cancelled job finishes the
// event it is processing, skips the rest and completes with partial
// counters. Returns ErrJobNotFound for unknown or already-terminal jobs.
func (o *Orchestrator) Cancel(id string) error {
	if !o.store.RequestCancel(id) {
		return ErrJobNotFound
	}
	o.store.AppendLog(id, LogWarn, "cancellation requested", "")

	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, id string, sources []registry.SourceDescriptor, opts Options) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("job panicked", zap.String("job_id", id), zap.Any("panic", r))
			o.store.AppendLog(id, LogError, fmt.Sprintf("internal error: %v", r), "")
			o.store.MarkFailed(id, fmt.Sprintf("internal error: %v", r))
		}
		o.mu.Lock()
		delete(o.cancels, id)
		o.mu.Unlock()
	}()

	engine := o.engine
	if opts.DryRun {
		// Dry runs evaluate dedup against an empty in-memory store so the
		// real tables are never touched.
		engine = dedup.NewEngine(dedup.NewMemoryGateway(), o.logger.Named("dedup.dryrun"))
		o.store.AppendLog(id, LogInfo, "dry run: no events will be persisted", "")
	}

	o.store.MarkRunning(id)
	o.store.AppendLog(id, LogInfo, fmt.Sprintf("job started with %d sources", len(sources)), "")

	workers := o.cfg.SourceWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, src := range sources {
		if ctx.Err() != nil {
			// Cancelled before this source started; it still counts as
			// completed so sources_completed reaches sources_total.
			o.store.AppendLog(id, LogWarn, "skipped: job cancelled", src.Slug)
			o.store.SourceCompleted(id)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(src registry.SourceDescriptor) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("source worker panicked",
						zap.String("job_id", id),
						zap.String("source", src.Slug),
						zap.Any("panic", r))
					o.store.AppendLog(id, LogError, fmt.Sprintf("internal error: %v", r), src.Slug)
				}
				o.store.SourceCompleted(id)
			}()
			// Cancellation may land while this source was queued on the
			// semaphore; don't start a fetch that is doomed to fail.
			if ctx.Err() != nil {
				o.store.AppendLog(id, LogWarn, "skipped: job cancelled", src.Slug)
				return
			}
			o.runSource(ctx, id, engine, src, opts.Limit)
		}(src)
	}
	wg.Wait()

	job, err := o.store.Get(id)
	if err != nil {
		return
	}
	if ctx.Err() != nil {
		o.store.AppendLog(id, LogWarn, "job cancelled, completed with partial results", "")
	}
	o.store.AppendLog(id, LogSuccess, fmt.Sprintf(
		"job finished: %d inserted, %d merged, %d skipped, %d failed",
		job.Counters.Inserted, job.Counters.Merged, job.Counters.Skipped, job.Counters.Failed), "")
	o.store.MarkCompleted(id)
	o.logger.Info("job completed",
		zap.String("job_id", id),
		zap.Int("inserted", job.Counters.Inserted),
		zap.Int("merged", job.Counters.Merged),
		zap.Int("skipped", job.Counters.Skipped),
		zap.Int("failed", job.Counters.Failed))
}

// runSource ingests one source end to end. Fetch failures abort the source
// only; per-event failures abort the event only.
func (o *Orchestrator) runSource(ctx context.Context, id string, engine *dedup.Engine, src registry.SourceDescriptor, limit int) {
	start := time.Now()
	defer func() { metrics.SourceDuration.Observe(time.Since(start).Seconds()) }()

	adapter, err := o.adapterFor(src.Tier)
	if err != nil {
		o.store.AppendLog(id, LogError, err.Error(), src.Slug)
		metrics.SourceFailures.WithLabelValues(src.Slug).Inc()
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	raws, err := adapter.FetchRaw(fetchCtx, src, limit)
	cancel()
	if err != nil {
		o.store.AppendLog(id, LogError, fmt.Sprintf("fetch failed: %v", err), src.Slug)
		metrics.SourceFailures.WithLabelValues(src.Slug).Inc()
		o.logger.Warn("source fetch failed", zap.String("source", src.Slug), zap.Error(err))
		return
	}

	o.store.AddCounts(id, Counters{Fetched: len(raws)})
	o.store.AppendLog(id, LogInfo, fmt.Sprintf("fetched %d raw items", len(raws)), src.Slug)

	// Feeds and listing pages frequently repeat items; within one run the
	// first occurrence of a (source, external id) pair wins.
	seen := make(map[string]bool)
	var counts Counters
	for _, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		o.processRaw(ctx, id, engine, adapter, src, raw, seen, &counts)
	}
	o.store.AddCounts(id, counts)

	level := LogSuccess
	if counts.Failed > 0 {
		level = LogWarn
	}
	o.store.AppendLog(id, level, fmt.Sprintf(
		"done: %d parsed, %d inserted, %d merged, %d skipped, %d failed",
		counts.Parsed, counts.Inserted, counts.Merged, counts.Skipped, counts.Failed), src.Slug)
}

func (o *Orchestrator) processRaw(ctx context.Context, id string, engine *dedup.Engine, adapter adapters.Adapter, src registry.SourceDescriptor, raw models.RawRecord, seen map[string]bool, counts *Counters) {
	ev, err := adapter.Parse(src, raw)
	if err != nil {
		counts.Failed++
		metrics.EventFailures.Inc()
		o.store.AppendLog(id, LogError, fmt.Sprintf("parse failed: %v", err), src.Slug)
		return
	}
	if ev == nil {
		return
	}
	key := ev.SourceID + "|" + ev.ExternalID
	if seen[key] {
		counts.Skipped++
		return
	}
	seen[key] = true
	counts.Parsed++

	normalizer.Normalize(ev)
	o.enrichEvent(ctx, ev, src, counts)

	decision, err := engine.Process(ctx, ev, src.Tier.BaseQualityScore())
	if err != nil {
		counts.Failed++
		metrics.EventFailures.Inc()
		o.store.AppendLog(id, LogError, fmt.Sprintf("persist failed for %q: %v", ev.Title, err), src.Slug)
		return
	}

	metrics.EventsProcessed.WithLabelValues(string(decision.Action)).Inc()
	switch decision.Action {
	case dedup.ActionInsert:
		counts.Inserted++
	case dedup.ActionMerge:
		counts.Merged++
	case dedup.ActionSkip:
		counts.Skipped++
	}
}

// enrichEvent runs the optional stages. None of them is fatal: an event
// that cannot be enriched, illustrated or geocoded still gets persisted.
func (o *Orchestrator) enrichEvent(ctx context.Context, ev *models.CanonicalEvent, src registry.SourceDescriptor, counts *Counters) {
	enrichCtx, cancel := context.WithTimeout(ctx, o.cfg.EnrichTimeout)
	defer cancel()

	enrichment, err := o.enricher.Enrich(enrichCtx, ev, src.Tier)
	if err != nil {
		o.logger.Warn("enrichment failed",
			zap.String("source", src.Slug),
			zap.String("title", ev.Title),
			zap.Error(err))
	} else {
		enrich.Apply(ev, enrichment)
		counts.Enriched++
	}

	if ev.ImageURL == "" {
		keywords := enrichment.ImageKeywords
		if len(keywords) == 0 {
			keywords = []string{ev.Title}
		}
		if img, err := o.images.Resolve(enrichCtx, keywords, ev.Category); err == nil && img != nil {
			ev.ImageURL = img.URL
			ev.ImageAuthor = img.Author
			ev.ImageAuthorURL = img.AuthorURL
		}
	}

	if ev.Latitude == nil && ev.City != "" {
		if coords, err := o.geocoder.Geocode(enrichCtx, ev.Venue, ev.City, ev.Province); err == nil && coords != nil {
			lat, lng := coords.Latitude, coords.Longitude
			ev.Latitude = &lat
			ev.Longitude = &lng
		}
	}
}
