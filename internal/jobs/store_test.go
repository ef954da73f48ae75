package jobs

import "testing"

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	s.Create("job-1", []string{"src-a", "src-b"}, false)

	job, err := s.Get("job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != StatusPending || job.SourcesTotal != 2 {
		t.Fatalf("unexpected initial state: %+v", job)
	}

	s.MarkRunning("job-1")
	job, _ = s.Get("job-1")
	if job.Status != StatusRunning || job.StartedAt == nil {
		t.Fatalf("expected running with start time: %+v", job)
	}

	s.AddCounts("job-1", Counters{Fetched: 10, Inserted: 4})
	s.AddCounts("job-1", Counters{Fetched: 5, Merged: 2})
	s.SourceCompleted("job-1")
	s.SourceCompleted("job-1")

	s.MarkCompleted("job-1")
	job, _ = s.Get("job-1")
	if job.Status != StatusCompleted || job.CompletedAt == nil {
		t.Fatalf("expected completed: %+v", job)
	}
	if job.Counters.Fetched != 15 || job.Counters.Inserted != 4 || job.Counters.Merged != 2 {
		t.Fatalf("counters not accumulated: %+v", job.Counters)
	}
	if job.SourcesCompleted != 2 {
		t.Fatalf("sources_completed = %d, want 2", job.SourcesCompleted)
	}
}

func TestStoreGetUnknownJob(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("missing"); err != ErrJobNotFound {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestStoreSnapshotsAreCopies(t *testing.T) {
	s := NewStore()
	s.Create("job-1", []string{"src-a"}, false)

	job, _ := s.Get("job-1")
	job.Sources[0] = "mutated"
	job.Counters.Fetched = 999

	fresh, _ := s.Get("job-1")
	if fresh.Sources[0] != "src-a" || fresh.Counters.Fetched != 0 {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestLogsSinceOffsetsAreMonotonic(t *testing.T) {
	s := NewStore()
	s.Create("job-1", nil, false)
	s.AppendLog("job-1", LogInfo, "one", "")
	s.AppendLog("job-1", LogWarn, "two", "src-a")
	s.AppendLog("job-1", LogError, "three", "src-a")

	entries, next, err := s.LogsSince("job-1", 0)
	if err != nil {
		t.Fatalf("LogsSince: %v", err)
	}
	if len(entries) != 3 || next != 3 {
		t.Fatalf("got %d entries, next=%d", len(entries), next)
	}

	// The same offset always yields the same suffix.
	again, _, _ := s.LogsSince("job-1", 1)
	if len(again) != 2 || again[0].Message != "two" || again[1].Message != "three" {
		t.Fatalf("offset 1 suffix wrong: %+v", again)
	}
	repeat, _, _ := s.LogsSince("job-1", 1)
	if len(repeat) != 2 || repeat[0].Message != again[0].Message {
		t.Fatal("repeated poll at the same offset diverged")
	}

	// offset == len(logs) is an empty, non-error poll.
	empty, next, err := s.LogsSince("job-1", 3)
	if err != nil || len(empty) != 0 || next != 3 {
		t.Fatalf("tail poll: entries=%d next=%d err=%v", len(empty), next, err)
	}

	// Negative offsets are clamped, out-of-range reads return the tail.
	clamped, _, _ := s.LogsSince("job-1", -5)
	if len(clamped) != 3 {
		t.Fatalf("negative offset not clamped: %d entries", len(clamped))
	}
	beyond, next, _ := s.LogsSince("job-1", 99)
	if len(beyond) != 0 || next != 3 {
		t.Fatalf("beyond-end poll: entries=%d next=%d", len(beyond), next)
	}
}

func TestLogsFreezeAfterTerminalStatus(t *testing.T) {
	s := NewStore()
	s.Create("job-1", nil, false)
	s.MarkRunning("job-1")
	s.AppendLog("job-1", LogInfo, "while running", "")
	s.MarkCompleted("job-1")
	s.AppendLog("job-1", LogInfo, "after completion", "")

	entries, _, _ := s.LogsSince("job-1", 0)
	if len(entries) != 1 || entries[0].Message != "while running" {
		t.Fatalf("terminal job log not frozen: %+v", entries)
	}
}

func TestDeleteRefusesActiveJob(t *testing.T) {
	s := NewStore()
	s.Create("job-1", nil, false)
	s.MarkRunning("job-1")

	if err := s.Delete("job-1"); err == nil {
		t.Fatal("expected error deleting a running job")
	}
	s.MarkFailed("job-1", "boom")
	if err := s.Delete("job-1"); err != nil {
		t.Fatalf("Delete after terminal: %v", err)
	}
	if _, err := s.Get("job-1"); err != ErrJobNotFound {
		t.Fatal("job still present after delete")
	}
}

func TestMarkFailedIsTerminal(t *testing.T) {
	s := NewStore()
	s.Create("job-1", nil, false)
	s.MarkRunning("job-1")
	s.MarkFailed("job-1", "source exploded")
	s.MarkCompleted("job-1")

	job, _ := s.Get("job-1")
	if job.Status != StatusFailed || job.Error != "source exploded" {
		t.Fatalf("terminal status overwritten: %+v", job)
	}
}
