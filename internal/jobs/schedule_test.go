package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []*SyncJob
	err  error
}

func (p *recordingPublisher) PublishSync(_ context.Context, job *SyncJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	job.JobID = "job"
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func TestSchedule_Once(t *testing.T) {
	p := &recordingPublisher{}
	Schedule(context.Background(), p, 0)

	require.Equal(t, 1, p.count())
	assert.Equal(t, TriggerSchedule, p.jobs[0].Trigger)
}

func TestSchedule_Repeats(t *testing.T) {
	p := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Schedule(ctx, p, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestSchedule_PublishErrorIsLogged(t *testing.T) {
	p := &recordingPublisher{err: errors.New("queue closed")}
	assert.NotPanics(t, func() { Schedule(context.Background(), p, 0) })
	assert.Equal(t, 0, p.count())
}
