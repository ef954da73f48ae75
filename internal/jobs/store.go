package jobs

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrJobNotFound is returned when a job id is unknown to the store.
var ErrJobNotFound = errors.New("job not found")

// Store keeps all job state in memory behind a single mutex. Jobs are
// ephemeral run records, not durable domain data, so process restart
// losing them is acceptable.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new pending job.
func (s *Store) Create(id string, sources []string, dryRun bool) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:           id,
		Status:       StatusPending,
		Sources:      append([]string(nil), sources...),
		SourcesTotal: len(sources),
		DryRun:       dryRun,
		CreatedAt:    time.Now().UTC(),
	}
	s.jobs[id] = job
	return snapshot(job)
}

// Get returns a copy of the job, or ErrJobNotFound.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return snapshot(job), nil
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete removes a job. Running jobs cannot be deleted; cancel first.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status == StatusRunning || job.Status == StatusPending {
		return errors.New("job is active, cancel it before deleting")
	}
	delete(s.jobs, id)
	return nil
}

// AppendLog adds an entry to the job's log. Once a job reaches a terminal
// status its log is frozen and further appends are dropped.
func (s *Store) AppendLog(id string, level LogLevel, message, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Logs = append(job.Logs, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Source:    source,
	})
}

// LogsSince returns the entries at index >= offset and the next offset to
// poll with. The same offset always yields the same suffix, and
// offset == len(logs) yields an empty slice.
func (s *Store) LogsSince(id string, offset int) ([]LogEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, 0, ErrJobNotFound
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(job.Logs) {
		return []LogEntry{}, len(job.Logs), nil
	}
	entries := make([]LogEntry, len(job.Logs)-offset)
	copy(entries, job.Logs[offset:])
	return entries, len(job.Logs), nil
}

// MarkRunning transitions a pending job to running.
func (s *Store) MarkRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != StatusPending {
		return
	}
	job.Status = StatusRunning
	now := time.Now().UTC()
	job.StartedAt = &now
}

// MarkCompleted transitions the job to completed. Final log entries must
// be appended before this call; the log freezes on transition.
func (s *Store) MarkCompleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusCompleted
	now := time.Now().UTC()
	job.CompletedAt = &now
}

// MarkFailed transitions the job to failed with an error summary.
func (s *Store) MarkFailed(id string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusFailed
	job.Error = errMsg
	now := time.Now().UTC()
	job.CompletedAt = &now
}

// RequestCancel flags the job for cancellation. Returns false if the job
// is unknown or already terminal.
func (s *Store) RequestCancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}
	job.CancelRequested = true
	return true
}

// AddCounts folds per-source counters into the job totals so progress is
// visible while the job runs.
func (s *Store) AddCounts(id string, delta Counters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Counters.add(delta)
}

// SourceCompleted bumps the completed-source count. Called for every
// source regardless of outcome, so sources_completed always reaches
// sources_total on a finished job.
func (s *Store) SourceCompleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.SourcesCompleted++
}

func snapshot(job *Job) *Job {
	cp := *job
	cp.Sources = append([]string(nil), job.Sources...)
	cp.Logs = append([]LogEntry(nil), job.Logs...)
	return &cp
}
