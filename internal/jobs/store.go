// Package jobs keeps the process-local state of every upload: its parsed
// dataset, lifecycle state and generated artifact.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"idcard-backend/internal/models"
)

var ErrNotFound = errors.New("job not found")

// InProgressError is returned when a generation for the upload is already
// running.
type InProgressError struct {
	UploadID string
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("generation already in progress for upload %s", e.UploadID)
}

// EvictFunc is called, outside the store lock, for every job removed by the
// janitor.
type EvictFunc func(job models.Job)

type Store struct {
	mu        sync.Mutex
	jobs      map[string]*models.Job
	artifacts map[string]string
	ttl       time.Duration
	now       func() time.Time
	onEvict   EvictFunc
	logger    *slog.Logger
}

func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		jobs:      make(map[string]*models.Job),
		artifacts: make(map[string]string),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// OnEvict registers a callback for jobs removed by expiry.
func (s *Store) OnEvict(fn EvictFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create registers a freshly parsed dataset in state uploaded.
func (s *Store) Create(ds *models.Dataset) models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &models.Job{
		UploadID:  ds.ID,
		State:     models.StateUploaded,
		Dataset:   ds,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.jobs[ds.ID] = job
	return *job
}

// Get returns a snapshot of the job.
func (s *Store) Get(uploadID string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.live(uploadID)
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return *job, nil
}

// MarkPreviewed moves an uploaded job to previewed. Other states are left
// untouched.
func (s *Store) MarkPreviewed(uploadID string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.live(uploadID)
	if !ok {
		return models.Job{}, ErrNotFound
	}
	if job.State == models.StateUploaded {
		s.transition(job, models.StatePreviewed)
	}
	return *job, nil
}

// BeginGenerate atomically claims the job for generation. Only one caller
// can hold the claim; the others get an *InProgressError.
func (s *Store) BeginGenerate(uploadID string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.live(uploadID)
	if !ok {
		return models.Job{}, ErrNotFound
	}
	if job.State == models.StateGenerating {
		return models.Job{}, &InProgressError{UploadID: uploadID}
	}
	s.transition(job, models.StateGenerating)
	job.ErrorMessage = ""
	return *job, nil
}

// Complete records the artifact of a finished generation.
func (s *Store) Complete(uploadID string, summary *models.GenerationSummary, artifact *models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[uploadID]
	if !ok {
		return ErrNotFound
	}
	if job.Artifact != nil {
		delete(s.artifacts, job.Artifact.ID)
	}
	s.transition(job, models.StateReady)
	job.Summary = summary
	job.Artifact = artifact
	job.ErrorMessage = ""
	s.artifacts[artifact.ID] = uploadID
	return nil
}

// Fail marks the job failed with the error and optional summary.
func (s *Store) Fail(uploadID string, summary *models.GenerationSummary, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[uploadID]
	if !ok {
		return ErrNotFound
	}
	s.transition(job, models.StateFailed)
	job.Summary = summary
	if cause != nil {
		job.ErrorMessage = cause.Error()
	}
	return nil
}

// Reject fails a job whose request was refused before generation started.
// A running generation is left alone.
func (s *Store) Reject(uploadID string, summary *models.GenerationSummary, cause error) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.live(uploadID)
	if !ok {
		return models.Job{}, ErrNotFound
	}
	if job.State == models.StateGenerating {
		return models.Job{}, &InProgressError{UploadID: uploadID}
	}
	s.transition(job, models.StateFailed)
	job.Summary = summary
	job.ErrorMessage = cause.Error()
	return *job, nil
}

// Artifact finds the job owning artifactID.
func (s *Store) Artifact(artifactID string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploadID, ok := s.artifacts[artifactID]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	job, ok := s.live(uploadID)
	if !ok || job.Artifact == nil || job.Artifact.ID != artifactID {
		return models.Job{}, ErrNotFound
	}
	return *job, nil
}

// Delete removes the job and returns its last snapshot.
func (s *Store) Delete(uploadID string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[uploadID]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	s.remove(job)
	return *job, nil
}

// Len is the number of jobs held, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Sweep evicts expired jobs that are not generating and returns how many
// were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	now := s.now()
	var evicted []models.Job
	for _, job := range s.jobs {
		if job.State != models.StateGenerating && !now.Before(job.ExpiresAt) {
			evicted = append(evicted, *job)
			s.remove(job)
		}
	}
	onEvict := s.onEvict
	s.mu.Unlock()

	for _, job := range evicted {
		s.logger.Info("job expired", "upload_id", job.UploadID, "state", job.State)
		if onEvict != nil {
			onEvict(job)
		}
	}
	return len(evicted)
}

// Run sweeps expired jobs every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// live returns the job unless it has expired. Generating jobs never expire.
func (s *Store) live(uploadID string) (*models.Job, bool) {
	job, ok := s.jobs[uploadID]
	if !ok {
		return nil, false
	}
	if job.State != models.StateGenerating && !s.now().Before(job.ExpiresAt) {
		return nil, false
	}
	return job, true
}

func (s *Store) transition(job *models.Job, state models.JobState) {
	now := s.now()
	job.State = state
	job.UpdatedAt = now
	job.ExpiresAt = now.Add(s.ttl)
}

func (s *Store) remove(job *models.Job) {
	if job.Artifact != nil {
		delete(s.artifacts, job.Artifact.ID)
	}
	delete(s.jobs, job.UploadID)
}
