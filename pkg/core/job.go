package core

import (
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFatal     JobStatus = "fatal" // task declared the failure unrecoverable
)

// Job represents one unit of work. The ID doubles as the correlation
// identifier (tid): it is assigned once at creation and ties every attempt,
// log line, and metric for this job together. Retry state (attempt counter,
// current backoff delay) is deliberately not part of the model — it lives
// only in the executor for the lifetime of one run loop.
type Job struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Type        string     `gorm:"index;size:255;not null"`
	Payload     []byte     `gorm:"type:bytes"`
	Queue       string     `gorm:"index;size:255;default:'default'"`
	Status      JobStatus  `gorm:"index;size:20;default:'pending'"`
	LastError   string     `gorm:"type:text"`
	RunAt       *time.Time `gorm:"index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
	LockedBy    string     `gorm:"size:255"`
	LockedUntil *time.Time `gorm:"index"`
}

// CorrelationID returns the stable identity shared by all attempts of this job.
func (j *Job) CorrelationID() string {
	return j.ID
}
