package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/jobs"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// JobsHandler exposes the ingestion job lifecycle over HTTP.
type JobsHandler struct {
	Orchestrator *jobs.Orchestrator
	Logger       *zap.Logger
}

func NewJobsHandler(orch *jobs.Orchestrator, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		Orchestrator: orch,
		Logger:       logger,
	}
}

// SubmitRequest is the body of POST /api/v1/jobs. All fields are optional;
// an empty body ingests every active source.
type SubmitRequest struct {
	Sources []string `json:"sources"`
	Tier    string   `json:"tier"`
	Region  string   `json:"region"`
	Limit   int      `json:"limit"`
	DryRun  bool     `json:"dry_run"`
}

// JobDTO is the wire shape of one job.
type JobDTO struct {
	JobID            string        `json:"job_id"`
	Status           string        `json:"status"`
	Sources          []string      `json:"sources"`
	SourcesTotal     int           `json:"sources_total"`
	SourcesCompleted int           `json:"sources_completed"`
	Counters         jobs.Counters `json:"counters"`
	DryRun           bool          `json:"dry_run"`
	CancelRequested  bool          `json:"cancel_requested"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        string        `json:"created_at"`
	StartedAt        *string       `json:"started_at"`
	CompletedAt      *string       `json:"completed_at"`
	DurationSeconds  float64       `json:"duration_seconds"`
}

// Submit handles POST /api/v1/jobs.
func (h *JobsHandler) Submit(c *fiber.Ctx) error {
	var req SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body: " + err.Error(),
			})
		}
	}

	opts := jobs.Options{
		Filter: registry.Filter{
			Slugs:  req.Sources,
			Region: req.Region,
		},
		Limit:  req.Limit,
		DryRun: req.DryRun,
	}
	if req.Tier != "" {
		tier, err := registry.ParseTier(req.Tier)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		opts.Filter.Tier = tier
	}

	id, err := h.Orchestrator.Submit(opts)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.Logger.Info("job submitted",
		zap.String("job_id", id),
		zap.Strings("sources", req.Sources),
		zap.Bool("dry_run", req.DryRun))

	job, err := h.Orchestrator.Store().Get(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "job vanished after submit",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(toDTO(job))
}

// List handles GET /api/v1/jobs.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	all := h.Orchestrator.Store().List()
	dtos := make([]JobDTO, 0, len(all))
	for _, job := range all {
		dtos = append(dtos, toDTO(job))
	}
	return c.JSON(fiber.Map{"jobs": dtos})
}

// Get handles GET /api/v1/jobs/:id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	job, err := h.Orchestrator.Store().Get(c.Params("id"))
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(toDTO(job))
}

// LogsResponse is the body of GET /api/v1/jobs/:id/logs. next_offset is
// the value to pass as ?since= on the next poll.
type LogsResponse struct {
	JobID      string          `json:"job_id"`
	Status     string          `json:"status"`
	Entries    []jobs.LogEntry `json:"entries"`
	NextOffset int             `json:"next_offset"`
}

// Logs handles GET /api/v1/jobs/:id/logs?since=N.
func (h *JobsHandler) Logs(c *fiber.Ctx) error {
	offset := 0
	if sinceStr := c.Query("since"); sinceStr != "" {
		parsed, err := strconv.Atoi(sinceStr)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "since must be a non-negative integer",
			})
		}
		offset = parsed
	}

	id := c.Params("id")
	entries, next, err := h.Orchestrator.Store().LogsSince(id, offset)
	if err != nil {
		return jobError(c, err)
	}
	job, err := h.Orchestrator.Store().Get(id)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(LogsResponse{
		JobID:      id,
		Status:     string(job.Status),
		Entries:    entries,
		NextOffset: next,
	})
}

// Cancel handles POST /api/v1/jobs/:id/cancel.
func (h *JobsHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Orchestrator.Cancel(id); err != nil {
		return jobError(c, err)
	}
	h.Logger.Info("job cancellation requested", zap.String("job_id", id))
	return c.JSON(fiber.Map{
		"job_id": id,
		"status": "cancelling",
	})
}

// Delete handles DELETE /api/v1/jobs/:id.
func (h *JobsHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Orchestrator.Store().Delete(id); err != nil {
		if err == jobs.ErrJobNotFound {
			return jobError(c, err)
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func jobError(c *fiber.Ctx, err error) error {
	if err == jobs.ErrJobNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "job not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func toDTO(job *jobs.Job) JobDTO {
	dto := JobDTO{
		JobID:            job.ID,
		Status:           string(job.Status),
		Sources:          job.Sources,
		SourcesTotal:     job.SourcesTotal,
		SourcesCompleted: job.SourcesCompleted,
		Counters:         job.Counters,
		DryRun:           job.DryRun,
		CancelRequested:  job.CancelRequested,
		Error:            strings.TrimSpace(job.Error),
		CreatedAt:        job.CreatedAt.UTC().Format(time.RFC3339),
		DurationSeconds:  job.DurationSeconds(),
	}
	if job.StartedAt != nil {
		s := job.StartedAt.UTC().Format(time.RFC3339)
		dto.StartedAt = &s
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.UTC().Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}
