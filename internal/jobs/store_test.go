package jobs_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"idcard-backend/internal/jobs"
	"idcard-backend/internal/models"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(ttl time.Duration) (*jobs.Store, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := jobs.NewStore(ttl, nil)
	s.SetClock(c.Now)
	return s, c
}

func TestStore_Lifecycle(t *testing.T) {
	s, _ := newStore(time.Hour)

	job := s.Create(&models.Dataset{ID: "u1"})
	assert.Equal(t, models.StateUploaded, job.State)

	job, err := s.MarkPreviewed("u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatePreviewed, job.State)

	job, err = s.BeginGenerate("u1")
	require.NoError(t, err)
	assert.Equal(t, models.StateGenerating, job.State)

	job, err = s.MarkPreviewed("u1")
	require.NoError(t, err)
	assert.Equal(t, models.StateGenerating, job.State)

	artifact := &models.Artifact{ID: "a1", UploadID: "u1"}
	require.NoError(t, s.Complete("u1", &models.GenerationSummary{Pages: 1}, artifact))

	job, err = s.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, job.State)
	assert.Equal(t, 1, job.Summary.Pages)

	owner, err := s.Artifact("a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner.UploadID)

	_, err = s.BeginGenerate("u1")
	require.NoError(t, err, "ready jobs can be regenerated")
	require.NoError(t, s.Complete("u1", &models.GenerationSummary{}, &models.Artifact{ID: "a2"}))

	_, err = s.Artifact("a1")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
	_, err = s.Artifact("a2")
	assert.NoError(t, err)
}

func TestStore_FailAllowsRetry(t *testing.T) {
	s, _ := newStore(time.Hour)
	s.Create(&models.Dataset{ID: "u1"})

	_, err := s.BeginGenerate("u1")
	require.NoError(t, err)
	require.NoError(t, s.Fail("u1", nil, errors.New("disk full")))

	job, err := s.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, job.State)
	assert.Equal(t, "disk full", job.ErrorMessage)

	job, err = s.BeginGenerate("u1")
	require.NoError(t, err)
	assert.Empty(t, job.ErrorMessage)
}

func TestStore_Reject(t *testing.T) {
	s, _ := newStore(time.Hour)
	s.Create(&models.Dataset{ID: "u1"})

	job, err := s.Reject("u1", &models.GenerationSummary{TotalRows: 3}, errors.New("bad color"))
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, job.State)
	assert.Equal(t, "bad color", job.ErrorMessage)

	_, err = s.BeginGenerate("u1")
	require.NoError(t, err)

	_, err = s.Reject("u1", nil, errors.New("bad font"))
	var inProgress *jobs.InProgressError
	assert.ErrorAs(t, err, &inProgress)

	job, err = s.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, models.StateGenerating, job.State)
}

func TestStore_BeginGenerateIsExclusive(t *testing.T) {
	s, _ := newStore(time.Hour)
	s.Create(&models.Dataset{ID: "u1"})

	const callers = 16
	var won, rejected atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.BeginGenerate("u1")
			var inProgress *jobs.InProgressError
			switch {
			case err == nil:
				won.Add(1)
			case errors.As(err, &inProgress):
				rejected.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(callers-1), rejected.Load())
}

func TestStore_UnknownUpload(t *testing.T) {
	s, _ := newStore(time.Hour)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
	_, err = s.BeginGenerate("missing")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
	_, err = s.Delete("missing")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestStore_ExpiryAndSweep(t *testing.T) {
	s, c := newStore(time.Hour)

	var evicted []string
	s.OnEvict(func(job models.Job) { evicted = append(evicted, job.UploadID) })

	s.Create(&models.Dataset{ID: "idle"})
	s.Create(&models.Dataset{ID: "busy"})
	_, err := s.BeginGenerate("busy")
	require.NoError(t, err)

	c.Advance(30 * time.Minute)
	assert.Equal(t, 0, s.Sweep())

	c.Advance(31 * time.Minute)
	_, err = s.Get("idle")
	assert.ErrorIs(t, err, jobs.ErrNotFound, "expired jobs are invisible before the sweep")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, []string{"idle"}, evicted)
	assert.Equal(t, 1, s.Len())

	_, err = s.Get("busy")
	assert.NoError(t, err, "generating jobs never expire")
}

func TestStore_DeleteDropsArtifact(t *testing.T) {
	s, _ := newStore(time.Hour)
	s.Create(&models.Dataset{ID: "u1"})
	_, err := s.BeginGenerate("u1")
	require.NoError(t, err)
	require.NoError(t, s.Complete("u1", &models.GenerationSummary{}, &models.Artifact{ID: "a1"}))

	job, err := s.Delete("u1")
	require.NoError(t, err)
	assert.Equal(t, "a1", job.Artifact.ID)

	_, err = s.Artifact("a1")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestStore_RunStopsWithContext(t *testing.T) {
	s, c := newStore(time.Minute)
	s.Create(&models.Dataset{ID: "u1"})
	c.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
