package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop/pkg/core"
)

// MemoryStorage is an in-memory core.Storage. It keeps the same locking
// semantics as GormStorage so workers behave identically against either
// backend. Useful for tests and embedded single-process setups.
type MemoryStorage struct {
	mu   sync.Mutex
	jobs map[string]*core.Job
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{jobs: make(map[string]*core.Job)}
}

// Migrate is a no-op for the in-memory backend.
func (s *MemoryStorage) Migrate(ctx context.Context) error {
	return nil
}

// Enqueue adds a job.
func (s *MemoryStorage) Enqueue(ctx context.Context, job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = core.StatusPending
	}
	if job.Queue == "" {
		job.Queue = "default"
	}
	job.CreatedAt = time.Now()

	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

// Dequeue fetches and locks the next available job.
func (s *MemoryStorage) Dequeue(ctx context.Context, queues []string, workerID string) (*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	due := s.dueLocked(queues, now)
	if len(due) == 0 {
		return nil, nil
	}

	job := due[0]
	lockUntil := now.Add(lockDuration)
	started := now

	job.Status = core.StatusRunning
	job.LockedBy = workerID
	job.LockedUntil = &lockUntil
	job.StartedAt = &started

	clone := *job
	return &clone, nil
}

// Complete marks a job as successfully completed.
func (s *MemoryStorage) Complete(ctx context.Context, jobID string, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.LockedBy != workerID {
		return core.ErrJobNotOwned
	}

	now := time.Now()
	job.Status = core.StatusSucceeded
	job.CompletedAt = &now
	job.LockedBy = ""
	job.LockedUntil = nil
	return nil
}

// MarkFatal records a terminal fatal outcome.
func (s *MemoryStorage) MarkFatal(ctx context.Context, jobID string, workerID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.LockedBy != workerID {
		return core.ErrJobNotOwned
	}

	now := time.Now()
	job.Status = core.StatusFatal
	job.LastError = errMsg
	job.CompletedAt = &now
	job.LockedBy = ""
	job.LockedUntil = nil
	return nil
}

// GetDueJobs returns jobs ready to run.
func (s *MemoryStorage) GetDueJobs(ctx context.Context, queues []string, limit int) ([]*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := s.dueLocked(queues, time.Now())
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*core.Job, 0, len(due))
	for _, job := range due {
		clone := *job
		out = append(out, &clone)
	}
	return out, nil
}

// Heartbeat extends the lock on a running job.
func (s *MemoryStorage) Heartbeat(ctx context.Context, jobID string, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.LockedBy != workerID {
		return core.ErrJobNotOwned
	}

	lockUntil := time.Now().Add(lockDuration)
	job.LockedUntil = &lockUntil
	return nil
}

// ReleaseStaleLocks returns expired running jobs to the pending state.
func (s *MemoryStorage) ReleaseStaleLocks(ctx context.Context, staleDuration time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-staleDuration)
	var released int64
	for _, job := range s.jobs {
		if job.Status == core.StatusRunning && job.LockedUntil != nil && job.LockedUntil.Before(cutoff) {
			job.Status = core.StatusPending
			job.LockedBy = ""
			job.LockedUntil = nil
			released++
		}
	}
	return released, nil
}

// GetJob retrieves a job by ID.
func (s *MemoryStorage) GetJob(ctx context.Context, jobID string) (*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	clone := *job
	return &clone, nil
}

// GetJobsByStatus retrieves jobs by status.
func (s *MemoryStorage) GetJobsByStatus(ctx context.Context, status core.JobStatus, limit int) ([]*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*core.Job
	for _, job := range s.jobs {
		if job.Status == status {
			clone := *job
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByStatus returns job counts per status, optionally filtered by queue.
func (s *MemoryStorage) CountByStatus(ctx context.Context, queue string) (map[core.JobStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[core.JobStatus]int64)
	for _, job := range s.jobs {
		if queue != "" && job.Queue != queue {
			continue
		}
		counts[job.Status]++
	}
	return counts, nil
}

// dueLocked returns pending, unlocked, due jobs ordered by creation time.
// Caller must hold s.mu.
func (s *MemoryStorage) dueLocked(queues []string, now time.Time) []*core.Job {
	inQueues := make(map[string]bool, len(queues))
	for _, q := range queues {
		inQueues[q] = true
	}

	var due []*core.Job
	for _, job := range s.jobs {
		if !inQueues[job.Queue] || job.Status != core.StatusPending {
			continue
		}
		if job.RunAt != nil && job.RunAt.After(now) {
			continue
		}
		if job.LockedUntil != nil && job.LockedUntil.After(now) {
			continue
		}
		due = append(due, job)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	return due
}
