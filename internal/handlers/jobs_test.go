package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/adapters"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/config"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/dedup"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/enrich"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/jobs"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

type stubAdapter struct{}

func (stubAdapter) FetchRaw(context.Context, registry.SourceDescriptor, int) ([]models.RawRecord, error) {
	return []models.RawRecord{{"id": "1", "title": "Concierto"}}, nil
}

func (stubAdapter) Parse(src registry.SourceDescriptor, raw models.RawRecord) (*models.CanonicalEvent, error) {
	return &models.CanonicalEvent{
		Title:      raw["title"].(string),
		StartDate:  time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC),
		City:       "Madrid",
		SourceID:   src.Slug,
		ExternalID: raw["id"].(string),
	}, nil
}

func testApp(t *testing.T) (*fiber.App, *jobs.Orchestrator) {
	t.Helper()
	reg := registry.NewFromSources(
		registry.SourceDescriptor{Slug: "src-a", Name: "Source A", Tier: registry.TierGold, Region: "Madrid", IsActive: true},
	)
	orch := jobs.NewOrchestrator(
		jobs.NewStore(),
		reg,
		dedup.NewEngine(dedup.NewMemoryGateway(), zap.NewNop()),
		func(registry.Tier) (adapters.Adapter, error) { return stubAdapter{}, nil },
		enrich.NoopEnricher{},
		enrich.NoopGeocoder{},
		enrich.NoopImageResolver{},
		config.IngestConfig{SourceWorkers: 1, FetchTimeout: time.Second, EnrichTimeout: time.Second},
		zap.NewNop(),
	)

	app := fiber.New()
	api := app.Group("/api/v1")
	h := NewJobsHandler(orch, zap.NewNop())
	api.Post("/jobs", h.Submit)
	api.Get("/jobs", h.List)
	api.Get("/jobs/:id", h.Get)
	api.Get("/jobs/:id/logs", h.Logs)
	api.Post("/jobs/:id/cancel", h.Cancel)
	api.Delete("/jobs/:id", h.Delete)
	api.Get("/sources", NewSourcesHandler(reg).List)
	return app, orch
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func TestSubmitAndPollJob(t *testing.T) {
	app, orch := testApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/jobs", `{"sources":["src-a"]}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["job_id"].(string)
	if id == "" {
		t.Fatalf("no job_id in response: %v", body)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := orch.Store().Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if job.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("job never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/jobs/"+id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if body["status"] != "completed" {
		t.Fatalf("status = %v", body["status"])
	}
	counters, _ := body["counters"].(map[string]any)
	if counters["events_inserted"] != float64(1) {
		t.Fatalf("counters = %v", counters)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/jobs/"+id+"/logs?since=0", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logs status = %d", resp.StatusCode)
	}
	entries, _ := body["entries"].([]any)
	if len(entries) == 0 {
		t.Fatal("no log entries returned")
	}
	next := int(body["next_offset"].(float64))

	// Polling from next_offset returns nothing new on a finished job.
	_, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/logs?since=%d", id, next), "")
	if rest, _ := body["entries"].([]any); len(rest) != 0 {
		t.Fatalf("expected empty tail, got %v", rest)
	}
}

func TestJobEndpointsValidation(t *testing.T) {
	app, _ := testApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/jobs/unknown", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/jobs/unknown/cancel", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cancel unknown status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/jobs", `{"tier":"platinum"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad tier status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/jobs", `{"sources":["nope"]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("no matching sources status = %d", resp.StatusCode)
	}

	app2, _ := testApp(t)
	resp, _ = doJSON(t, app2, http.MethodGet, "/api/v1/jobs/bad/logs?since=-1", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative since status = %d", resp.StatusCode)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	app, _ := testApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/sources", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sources status = %d", resp.StatusCode)
	}
	sources, _ := body["sources"].([]any)
	if len(sources) != 1 {
		t.Fatalf("sources = %v", body)
	}
	first, _ := sources[0].(map[string]any)
	if first["slug"] != "src-a" || first["tier"] != "gold" {
		t.Fatalf("source payload wrong: %v", first)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/sources?tier=platinum", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad tier filter status = %d", resp.StatusCode)
	}
}
