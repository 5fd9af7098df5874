package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, store *Store, id string, want jobs.JobStatus) *jobs.SyncJob {
	t.Helper()
	var job *jobs.SyncJob
	require.Eventually(t, func() bool {
		j, err := store.GetJob(context.Background(), id)
		if err != nil {
			return false
		}
		job = j
		return j.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestQueue_RunsJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	ctx := context.Background()

	require.NoError(t, q.Start(ctx, func(_ context.Context, job *jobs.SyncJob) error {
		job.Result = &jobs.SyncResult{Accounts: 2, Transactions: 10}
		return nil
	}))
	defer q.Close()

	job := &jobs.SyncJob{Trigger: jobs.TriggerAPI}
	require.NoError(t, q.PublishSync(ctx, job))
	require.NotEmpty(t, job.JobID)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, 10, done.Result.Transactions)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
}

func TestQueue_FailedJobIsNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	ctx := context.Background()

	var calls int32
	require.NoError(t, q.Start(ctx, func(context.Context, *jobs.SyncJob) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("authentication failure")
	}))
	defer q.Close()

	job := &jobs.SyncJob{Trigger: jobs.TriggerSchedule}
	require.NoError(t, q.PublishSync(ctx, job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, "authentication failure", failed.Error)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueue_OneJobAtATime(t *testing.T) {
	store := NewStore()
	q := NewQueue(8, store)
	ctx := context.Background()

	var running, maxRunning int32
	require.NoError(t, q.Start(ctx, func(context.Context, *jobs.SyncJob) error {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	}))
	defer q.Close()

	var ids []string
	for i := 0; i < 5; i++ {
		job := &jobs.SyncJob{Trigger: jobs.TriggerAPI}
		require.NoError(t, q.PublishSync(ctx, job))
		ids = append(ids, job.JobID)
	}
	for _, id := range ids {
		waitForStatus(t, store, id, jobs.JobStatusCompleted)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestQueue_StartTwice(t *testing.T) {
	q := NewQueue(1, nil)
	handler := func(context.Context, *jobs.SyncJob) error { return nil }
	require.NoError(t, q.Start(context.Background(), handler))
	defer q.Close()
	assert.Error(t, q.Start(context.Background(), handler))
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Close())
	assert.Error(t, q.PublishSync(context.Background(), &jobs.SyncJob{}))
}

func TestStore_GetUnknownJob(t *testing.T) {
	_, err := NewStore().GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		require.NoError(t, s.SaveJob(ctx, &jobs.SyncJob{
			JobID:     string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].JobID)

	completed, err := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 1})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "c", completed[0].JobID)

	page, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	job := &jobs.SyncJob{JobID: "x", Status: jobs.JobStatusPending, Result: &jobs.SyncResult{Accounts: 1}}
	require.NoError(t, s.SaveJob(ctx, job))

	job.Result.Accounts = 99
	got, err := s.GetJob(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Result.Accounts)

	require.NoError(t, s.UpdateJobStatus(ctx, "x", jobs.JobStatusFailed, "boom"))
	got, err = s.GetJob(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "y", jobs.JobStatusFailed, ""), apperrors.ErrNotFound)
}

func TestStore_SaveRequiresID(t *testing.T) {
	assert.ErrorIs(t, NewStore().SaveJob(context.Background(), &jobs.SyncJob{}), apperrors.ErrValidation)
}
