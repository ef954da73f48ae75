package jobs

import (
	"time"
)

// Status is the lifecycle state of an ingestion job.
// PENDING → RUNNING → {COMPLETED | FAILED}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// LogLevel classifies a job log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarn    LogLevel = "warn"
	LogError   LogLevel = "error"
)

// LogEntry is one append-only job log line. Consumers poll with a
// monotonically increasing offset, never a timestamp, so clock skew can
// neither duplicate nor drop entries.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}

// Counters are the aggregate progress numbers of one job.
type Counters struct {
	Fetched  int `json:"events_fetched"`
	Parsed   int `json:"events_parsed"`
	Enriched int `json:"events_enriched"`
	Inserted int `json:"events_inserted"`
	Merged   int `json:"events_merged"`
	Skipped  int `json:"events_skipped"`
	Failed   int `json:"events_failed"`
}

func (c *Counters) add(other Counters) {
	c.Fetched += other.Fetched
	c.Parsed += other.Parsed
	c.Enriched += other.Enriched
	c.Inserted += other.Inserted
	c.Merged += other.Merged
	c.Skipped += other.Skipped
	c.Failed += other.Failed
}

// Job is the mutable run state of one ingestion job. Snapshots handed out
// by the store are copies; the store owns the live instance.
type Job struct {
	ID               string     `json:"job_id"`
	Status           Status     `json:"status"`
	Sources          []string   `json:"sources"`
	SourcesTotal     int        `json:"sources_total"`
	SourcesCompleted int        `json:"sources_completed"`
	Counters         Counters   `json:"counters"`
	DryRun           bool       `json:"dry_run"`
	CancelRequested  bool       `json:"cancel_requested"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	Logs             []LogEntry `json:"-"`
}

// DurationSeconds is the elapsed run time, or zero before start.
func (j *Job) DurationSeconds() float64 {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now().UTC()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt).Seconds()
}
